package rowdb

import "errors"

var (
	// ErrCorruption is returned by Open when the backing file's length is
	// not a whole number of pages.
	ErrCorruption = errors.New("data corruption detected")

	// ErrPageCapacityExceeded is returned when an operation would touch a
	// page number beyond the store's fixed maximum.
	ErrPageCapacityExceeded = errors.New("page capacity exceeded")

	// ErrInternalNodeSplitUnsupported is returned when an insert would
	// require splitting a full internal node. Internal-node splitting is a
	// capability boundary of this engine; the tree is left unmodified.
	ErrInternalNodeSplitUnsupported = errors.New("internal node is full: splitting internal nodes is not supported")

	// ErrPageNotCached indicates a flush of a page that was never loaded.
	// This is a programming error, not a recoverable condition.
	ErrPageNotCached = errors.New("page is not in cache")

	ErrDuplicateKey = errors.New("duplicate key")
	ErrTableClosed  = errors.New("table is closed")
)
