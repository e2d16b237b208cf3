package rowdb

import (
	"fmt"
	"os"
)

// pager owns the backing file and an in-memory cache of page buffers
// indexed by page number. Pages load lazily on first access and are
// written back only on flush; nothing is ever evicted, so a buffer
// returned by page() stays valid for the pager's lifetime.
type pager struct {
	file       *os.File
	fileLength int64
	numPages   uint32
	maxPages   uint32
	pages      []*page
}

// openPager opens or creates the backing file at path. Fails with
// ErrCorruption if the existing file is not a whole number of pages.
func openPager(path string, maxPages uint32) (*pager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if info.Size()%PageSize != 0 {
		file.Close()
		return nil, fmt.Errorf("%w: file length %d is not a whole number of pages", ErrCorruption, info.Size())
	}
	if pages := info.Size() / PageSize; pages > int64(maxPages) {
		file.Close()
		return nil, fmt.Errorf("%w: file holds %d pages, maximum %d", ErrPageCapacityExceeded, pages, maxPages)
	}

	return &pager{
		file:       file,
		fileLength: info.Size(),
		numPages:   uint32(info.Size() / PageSize),
		maxPages:   maxPages,
		pages:      make([]*page, maxPages),
	}, nil
}

// page returns the cached buffer for page n, loading it from the file
// on first access. Requesting a page beyond the current count returns a
// zeroed buffer and raises the count; requesting one beyond maxPages
// fails with ErrPageCapacityExceeded.
func (pg *pager) page(n uint32) (*page, error) {
	if n >= pg.maxPages {
		return nil, fmt.Errorf("%w: page %d, maximum %d", ErrPageCapacityExceeded, n, pg.maxPages)
	}

	if pg.pages[n] != nil {
		return pg.pages[n], nil
	}

	p := &page{}
	if n < uint32(pg.fileLength/PageSize) {
		offset := int64(n) * PageSize
		read, err := pg.file.ReadAt(p.buf[:], offset)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", n, err)
		}
		if read != PageSize {
			return nil, fmt.Errorf("%w: short read of page %d (%d bytes)", ErrCorruption, n, read)
		}
	}

	pg.pages[n] = p
	if n >= pg.numPages {
		pg.numPages = n + 1
	}
	return p, nil
}

// flush writes the cached buffer for page n back to the file. Flushing
// a page that was never loaded is a programming error.
func (pg *pager) flush(n uint32) error {
	if n >= pg.maxPages || pg.pages[n] == nil {
		return fmt.Errorf("%w: flush of page %d", ErrPageNotCached, n)
	}

	offset := int64(n) * PageSize
	written, err := pg.file.WriteAt(pg.pages[n].buf[:], offset)
	if err != nil {
		return fmt.Errorf("flushing page %d: %w", n, err)
	}
	if written != PageSize {
		return fmt.Errorf("flushing page %d: short write (%d bytes)", n, written)
	}
	if end := offset + PageSize; end > pg.fileLength {
		pg.fileLength = end
	}
	return nil
}

// allocatePage returns the next unused page number. Allocation is
// monotonic; with no deletion there is nothing to reuse.
func (pg *pager) allocatePage() uint32 {
	return pg.numPages
}

// close flushes every cached page, syncs file data to disk, and closes
// the file descriptor.
func (pg *pager) close() error {
	for i := uint32(0); i < pg.numPages; i++ {
		if pg.pages[i] == nil {
			continue
		}
		if err := pg.flush(i); err != nil {
			return err
		}
	}

	if err := fdatasync(pg.file); err != nil {
		return fmt.Errorf("syncing table file: %w", err)
	}
	if err := pg.file.Close(); err != nil {
		return fmt.Errorf("closing table file: %w", err)
	}
	return nil
}
