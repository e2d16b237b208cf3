package rowdb

import "encoding/binary"

const (
	// UsernameSize and EmailSize are the usable capacities of the two
	// string columns. On disk each column takes one extra byte so that a
	// maximum-length value still carries a terminator.
	UsernameSize = 32
	EmailSize    = 255

	idSize        = 4
	usernameBytes = UsernameSize + 1
	emailBytes    = EmailSize + 1

	idOffset       = 0
	usernameOffset = idOffset + idSize
	emailOffset    = usernameOffset + usernameBytes

	// RowSize is the serialized size of a Row: 4 + 33 + 256 = 293 bytes.
	RowSize = idSize + usernameBytes + emailBytes
)

// Row is the fixed-schema record stored in leaf cells.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// encode serializes the row into dst, which must be at least RowSize
// bytes. Strings longer than their column capacity are truncated;
// shorter ones are null-padded.
func (r *Row) encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[idOffset:], r.ID)

	username := dst[usernameOffset : usernameOffset+usernameBytes]
	clear(username)
	copy(username, r.Username[:min(len(r.Username), UsernameSize)])

	email := dst[emailOffset : emailOffset+emailBytes]
	clear(email)
	copy(email, r.Email[:min(len(r.Email), EmailSize)])
}

// EncodeRow serializes a row to its fixed 293-byte on-disk form.
func EncodeRow(r Row) [RowSize]byte {
	var buf [RowSize]byte
	r.encode(buf[:])
	return buf
}

// DecodeRow deserializes a row from its fixed on-disk form.
func DecodeRow(buf [RowSize]byte) Row {
	return decodeRow(buf[:])
}

// decodeRow deserializes a row from src (at least RowSize bytes).
// String columns end at the first null byte.
func decodeRow(src []byte) Row {
	return Row{
		ID:       binary.LittleEndian.Uint32(src[idOffset:]),
		Username: cString(src[usernameOffset : usernameOffset+usernameBytes]),
		Email:    cString(src[emailOffset : emailOffset+emailBytes]),
	}
}

// cString returns the bytes of buf up to the first null terminator.
func cString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
