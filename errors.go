package chigo

import "errors"

var (
	// ErrCorruptHeader is returned by Open when the file header does not
	// validate against the expected layout.
	ErrCorruptHeader = errors.New("corrupt header")

	// ErrInvalidPageNumber is returned when a page number is zero or
	// beyond the last allocated page.
	ErrInvalidPageNumber = errors.New("invalid page number")

	// ErrInvalidCellNumber is returned when a cell index is out of range
	// for the node.
	ErrInvalidCellNumber = errors.New("invalid cell number")

	// ErrKeyNotFound is returned by Find when no entry has the given key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDuplicateKey is returned on insertion of a key that already
	// exists in the tree. For index trees the indexed key alone decides:
	// equal keyIdx is a duplicate even when the primary keys differ.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrEmptyNode is returned by operations that need at least one cell.
	ErrEmptyNode = errors.New("node has no cells")

	// ErrCellTooLarge is returned when a cell cannot fit in a page even
	// after splitting. Overflow chains are not supported.
	ErrCellTooLarge = errors.New("cell too large for page")
)
