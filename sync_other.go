//go:build !linux

package rowdb

import "os"

func fdatasync(f *os.File) error {
	return f.Sync()
}
