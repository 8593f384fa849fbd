package chigo

import (
	"encoding/binary"
	"fmt"
)

// On-disk cell layouts, offsets relative to the first byte of the
// cell. Varints are written in their canonical 4-byte form, so every
// cell header has a fixed width.
const (
	tableInternalCellChildOffset = 0
	tableInternalCellKeyOffset   = 4
	tableInternalCellSize        = 8

	tableLeafCellKeyOffset  = 0
	tableLeafCellSizeOffset = 4
	tableLeafCellDataOffset = 8
	tableLeafCellHeaderSize = 8

	indexInternalCellChildOffset  = 0
	indexInternalCellKeyIdxOffset = 4
	indexInternalCellKeyPkOffset  = 8
	indexInternalCellSize         = 12

	indexLeafCellKeyIdxOffset = 0
	indexLeafCellKeyPkOffset  = 4
	indexLeafCellSize         = 8
)

// BTreeCell is an in-memory representation of a cell. The type selects
// which of the fields variants is meaningful; key holds the table key
// or, for index cells, the indexed key.
type BTreeCell struct {
	// Type of page where this cell is contained
	typ BTreeNodeType

	// Key of cell
	key uint32

	fields struct {
		// Represents a table internal cell
		tableInternal struct {
			// Child page with keys <= key
			childPage uint32
		}

		// Represents a table leaf cell
		tableLeaf struct {
			// Number of bytes of data stored in this cell
			size uint32

			// Row data. When the cell was read from a node this slice
			// aliases the page buffer and is only valid while the node
			// is pinned.
			data []byte
		}

		// Represents a index internal cell
		indexInternal struct {
			// Primary key of the row where the indexed field equals key
			keyPk uint32

			// Child page with keys <= key
			childPage uint32
		}

		// Represents a index leaf cell
		indexLeaf struct {
			// Primary key of the row where the indexed field equals key
			keyPk uint32
		}
	}
}

// NewTableInternalCell creates a routing cell for a table tree.
func NewTableInternalCell(key, childPage uint32) *BTreeCell {
	cell := &BTreeCell{typ: InternalTable, key: key}
	cell.fields.tableInternal.childPage = childPage
	return cell
}

// NewTableLeafCell creates a row cell for a table tree. The data slice
// is referenced, not copied.
func NewTableLeafCell(key uint32, data []byte) *BTreeCell {
	cell := &BTreeCell{typ: LeafTable, key: key}
	cell.fields.tableLeaf.size = uint32(len(data))
	cell.fields.tableLeaf.data = data
	return cell
}

// NewIndexInternalCell creates a routing cell for an index tree.
func NewIndexInternalCell(keyIdx, keyPk, childPage uint32) *BTreeCell {
	cell := &BTreeCell{typ: InternalIndex, key: keyIdx}
	cell.fields.indexInternal.keyPk = keyPk
	cell.fields.indexInternal.childPage = childPage
	return cell
}

// NewIndexLeafCell creates an entry cell for an index tree.
func NewIndexLeafCell(keyIdx, keyPk uint32) *BTreeCell {
	cell := &BTreeCell{typ: LeafIndex, key: keyIdx}
	cell.fields.indexLeaf.keyPk = keyPk
	return cell
}

// Type returns the cell type.
func (c *BTreeCell) Type() BTreeNodeType { return c.typ }

// Key returns the cell key. For index cells this is the indexed key.
func (c *BTreeCell) Key() uint32 { return c.key }

// KeyPk returns the primary key carried by index cells.
func (c *BTreeCell) KeyPk() uint32 {
	if c.typ == InternalIndex {
		return c.fields.indexInternal.keyPk
	}
	return c.fields.indexLeaf.keyPk
}

// ChildPage returns the child page of internal cells.
func (c *BTreeCell) ChildPage() uint32 {
	if c.typ == InternalIndex {
		return c.fields.indexInternal.childPage
	}
	return c.fields.tableInternal.childPage
}

// Data returns the row data of a table leaf cell. For cells read from
// a node the slice aliases the page buffer and is only valid while the
// source node is pinned.
func (c *BTreeCell) Data() []byte { return c.fields.tableLeaf.data }

// DataSize returns the row data size of a table leaf cell.
func (c *BTreeCell) DataSize() uint32 { return c.fields.tableLeaf.size }

// size returns the number of bytes the cell occupies on a page.
func (c *BTreeCell) size() uint16 {
	switch c.typ {
	case InternalTable:
		return tableInternalCellSize
	case LeafTable:
		return tableLeafCellHeaderSize + uint16(c.fields.tableLeaf.size)
	case InternalIndex:
		return indexInternalCellSize
	default:
		return indexLeafCellSize
	}
}

// clone returns a copy of the cell that does not alias any page buffer.
func (c *BTreeCell) clone() *BTreeCell {
	dup := *c
	if c.typ == LeafTable {
		dup.fields.tableLeaf.data = make([]byte, len(c.fields.tableLeaf.data))
		copy(dup.fields.tableLeaf.data, c.fields.tableLeaf.data)
	}
	return &dup
}

// serialize writes the cell in its on-disk layout at the start of buf.
// The buffer must be at least size() bytes long.
func (c *BTreeCell) serialize(buf []byte) {
	switch c.typ {
	case InternalTable:
		binary.BigEndian.PutUint32(buf[tableInternalCellChildOffset:], c.fields.tableInternal.childPage)
		putVarint32(buf[tableInternalCellKeyOffset:], c.key)
	case LeafTable:
		putVarint32(buf[tableLeafCellKeyOffset:], c.key)
		putVarint32(buf[tableLeafCellSizeOffset:], c.fields.tableLeaf.size)
		copy(buf[tableLeafCellDataOffset:], c.fields.tableLeaf.data)
	case InternalIndex:
		binary.BigEndian.PutUint32(buf[indexInternalCellChildOffset:], c.fields.indexInternal.childPage)
		binary.BigEndian.PutUint32(buf[indexInternalCellKeyIdxOffset:], c.key)
		binary.BigEndian.PutUint32(buf[indexInternalCellKeyPkOffset:], c.fields.indexInternal.keyPk)
	case LeafIndex:
		binary.BigEndian.PutUint32(buf[indexLeafCellKeyIdxOffset:], c.key)
		binary.BigEndian.PutUint32(buf[indexLeafCellKeyPkOffset:], c.fields.indexLeaf.keyPk)
	}
}

// parseCell decodes the cell starting at buf[0] according to the node
// type. Table leaf data aliases buf.
func parseCell(buf []byte, typ BTreeNodeType) (*BTreeCell, error) {
	cell := &BTreeCell{typ: typ}

	switch typ {
	case InternalTable:
		cell.fields.tableInternal.childPage = binary.BigEndian.Uint32(buf[tableInternalCellChildOffset:])
		key, _, err := getVarint32(buf[tableInternalCellKeyOffset:])
		if err != nil {
			return nil, err
		}
		cell.key = key
	case LeafTable:
		key, _, err := getVarint32(buf[tableLeafCellKeyOffset:])
		if err != nil {
			return nil, err
		}
		size, _, err := getVarint32(buf[tableLeafCellSizeOffset:])
		if err != nil {
			return nil, err
		}
		if int(tableLeafCellDataOffset+size) > len(buf) {
			return nil, fmt.Errorf("cell data of %d bytes overruns page", size)
		}
		cell.key = key
		cell.fields.tableLeaf.size = size
		cell.fields.tableLeaf.data = buf[tableLeafCellDataOffset : tableLeafCellDataOffset+size]
	case InternalIndex:
		cell.fields.indexInternal.childPage = binary.BigEndian.Uint32(buf[indexInternalCellChildOffset:])
		cell.key = binary.BigEndian.Uint32(buf[indexInternalCellKeyIdxOffset:])
		cell.fields.indexInternal.keyPk = binary.BigEndian.Uint32(buf[indexInternalCellKeyPkOffset:])
	case LeafIndex:
		cell.key = binary.BigEndian.Uint32(buf[indexLeafCellKeyIdxOffset:])
		cell.fields.indexLeaf.keyPk = binary.BigEndian.Uint32(buf[indexLeafCellKeyPkOffset:])
	default:
		return nil, fmt.Errorf("invalid cell type %d", typ)
	}

	return cell, nil
}
