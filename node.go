package chigo

import (
	"encoding/binary"
	"fmt"
)

type BTreeNodeType byte

const (
	InternalTable BTreeNodeType = 0x05
	LeafTable     BTreeNodeType = 0x0D
	InternalIndex BTreeNodeType = 0x02
	LeafIndex     BTreeNodeType = 0x0A
)

// Bitfields of the type byte.
const (
	pgtypeMaskLeaf  = 0x08
	pgtypeMaskIndex = 0x02
	pgtypeMaskTable = 0x05
)

// BTreeNodeTypeFromByte create a BTreeNodeType from a raw byte
func BTreeNodeTypeFromByte(b byte) (BTreeNodeType, error) {
	switch b {
	case 0x05:
		return InternalTable, nil
	case 0x0D:
		return LeafTable, nil
	case 0x02:
		return InternalIndex, nil
	case 0x0A:
		return LeafIndex, nil
	}
	return BTreeNodeType(b), fmt.Errorf("invalid btree node type %v", b)
}

// Value return the byte representation of BTreeNodeType
func (t BTreeNodeType) Value() byte { return byte(t) }

// IsLeaf reports whether the type is a leaf type.
func (t BTreeNodeType) IsLeaf() bool { return t&pgtypeMaskLeaf != 0 }

// IsInternal reports whether the type is an internal type.
func (t BTreeNodeType) IsInternal() bool { return !t.IsLeaf() }

// IsTable reports whether the type belongs to a table tree.
func (t BTreeNodeType) IsTable() bool { return t&pgtypeMaskTable != 0 }

// IsIndex reports whether the type belongs to an index tree.
func (t BTreeNodeType) IsIndex() bool { return t&pgtypeMaskIndex != 0 }

func (t BTreeNodeType) String() string {
	switch t {
	case InternalTable:
		return "internal table"
	case LeafTable:
		return "leaf table"
	case InternalIndex:
		return "internal index"
	case LeafIndex:
		return "leaf index"
	}
	return "<invalid type>"
}

// Node header layout. The header sits at headerOffset within the page
// and the cell offset array begins immediately after it.
const (
	pgHeaderTypeOffset        = 0
	pgHeaderZeroOffset        = 1
	pgHeaderFreeOffset        = 2
	pgHeaderNCellsOffset      = 4
	pgHeaderCellsOffsetOffset = 6
	pgHeaderRightPageOffset   = 8

	leafPageHeaderSize     = 8
	internalPageHeaderSize = 12
)

// headerOffset returns the offset of the node header within a page.
// Page 1 holds the file header in its first HeaderSize bytes.
func headerOffset(npage uint32) uint16 {
	if npage == 1 {
		return HeaderSize
	}
	return 0
}

// headerSize returns the node header length for the type, which is
// also the offset of the cell offset array relative to the header.
func (t BTreeNodeType) headerSize() uint16 {
	if t.IsInternal() {
		return internalPageHeaderSize
	}
	return leafPageHeaderSize
}

// BTreeNode is an in-memory representation of a B-Tree node. Most of
// the values in this struct are a copy, for ease of access, of what
// can be found in the page header. When modifying typ, freeOffset,
// nCells, cellsOffset, or rightPage, do so in the corresponding field
// of the BTreeNode variable (the changes become effective once the
// node is written back with WriteNode). Modifications of the cell
// offset array or of the cells are done directly on the in-memory
// page.
type BTreeNode struct {
	// In-memory page returned by the Pager
	page *MemPage

	// The type of page
	typ BTreeNodeType

	// The byte offset at which the free space starts. Must be updated
	// every time the cell offset array grows.
	freeOffset uint16

	// The number of cells stored in this page.
	nCells uint16

	// The byte offset at which the cells start. If the page contains
	// no cells, this field holds the page size. Must be updated every
	// time a cell is added.
	cellsOffset uint16

	// Right page (internal nodes only)
	rightPage uint32

	// Absolute offset of the cell offset array within the page
	cellOffsetArray uint16
}

// newBTreeNode builds the descriptor of an empty node over a pinned
// page.
func newBTreeNode(page *MemPage, typ BTreeNodeType, pageSize uint16) *BTreeNode {
	start := headerOffset(page.number) + typ.headerSize()
	return &BTreeNode{
		page:            page,
		typ:             typ,
		freeOffset:      start,
		nCells:          0,
		cellsOffset:     pageSize,
		rightPage:       0,
		cellOffsetArray: start,
	}
}

// btreeNodeFromPage parses the node header of a pinned page into a
// descriptor. Leaves get rightPage 0.
func btreeNodeFromPage(page *MemPage) (*BTreeNode, error) {
	head := page.data[headerOffset(page.number):]

	typ, err := BTreeNodeTypeFromByte(head[pgHeaderTypeOffset])
	if err != nil {
		return nil, err
	}

	node := &BTreeNode{
		page:            page,
		typ:             typ,
		freeOffset:      binary.BigEndian.Uint16(head[pgHeaderFreeOffset:]),
		nCells:          binary.BigEndian.Uint16(head[pgHeaderNCellsOffset:]),
		cellsOffset:     binary.BigEndian.Uint16(head[pgHeaderCellsOffsetOffset:]),
		cellOffsetArray: headerOffset(page.number) + typ.headerSize(),
	}
	if typ.IsInternal() {
		node.rightPage = binary.BigEndian.Uint32(head[pgHeaderRightPageOffset:])
	}
	return node, nil
}

// packHeader stores the descriptor fields back into the page buffer.
// The cell offset array and the cells are already on the page.
func (n *BTreeNode) packHeader() {
	head := n.page.data[headerOffset(n.page.number):]
	head[pgHeaderTypeOffset] = n.typ.Value()
	head[pgHeaderZeroOffset] = 0
	binary.BigEndian.PutUint16(head[pgHeaderFreeOffset:], n.freeOffset)
	binary.BigEndian.PutUint16(head[pgHeaderNCellsOffset:], n.nCells)
	binary.BigEndian.PutUint16(head[pgHeaderCellsOffsetOffset:], n.cellsOffset)
	if n.typ.IsInternal() {
		binary.BigEndian.PutUint32(head[pgHeaderRightPageOffset:], n.rightPage)
	}
}

// Type returns the node type.
func (n *BTreeNode) Type() BTreeNodeType { return n.typ }

// NCells returns the number of cells stored in the node.
func (n *BTreeNode) NCells() uint16 { return n.nCells }

// FreeOffset returns the offset of the first unused byte after the
// cell offset array.
func (n *BTreeNode) FreeOffset() uint16 { return n.freeOffset }

// CellsOffset returns the offset of the first byte of the cell area.
func (n *BTreeNode) CellsOffset() uint16 { return n.cellsOffset }

// RightPage returns the right-most child page of an internal node.
func (n *BTreeNode) RightPage() uint32 { return n.rightPage }

// Page returns the pinned page backing the node.
func (n *BTreeNode) Page() *MemPage { return n.page }

// GetCell reads the contents of a cell.
//
// This involves the following:
//  1. Find out the offset of the requested cell in the cell offset
//     array.
//  2. Read the cell from the in-memory page and parse its contents
//     according to the node type.
func (n *BTreeNode) GetCell(ncell uint16) (*BTreeCell, error) {
	if ncell >= n.nCells {
		return nil, fmt.Errorf("cell %d of %d: %w", ncell, n.nCells, ErrInvalidCellNumber)
	}
	offset := binary.BigEndian.Uint16(n.page.data[n.cellOffsetArray+2*ncell:])
	return parseCell(n.page.data[offset:], n.typ)
}

// InsertCell inserts a new cell into the node at position ncell.
//
// This involves the following:
//  1. Add the cell at the top of the cell area, translating the
//     BTreeCell into its on-disk layout.
//  2. Move cellsOffset down to reflect the growth of the cell area.
//  3. Shift the cell offset array entries at positions >= ncell one
//     slot forward, then set slot ncell to the offset of the new cell.
//
// This function assumes that there is enough space for the cell in
// this node.
func (n *BTreeNode) InsertCell(ncell uint16, cell *BTreeCell) error {
	if ncell > n.nCells {
		return fmt.Errorf("cell %d of %d: %w", ncell, n.nCells, ErrInvalidCellNumber)
	}

	n.cellsOffset -= cell.size()
	cell.serialize(n.page.data[n.cellsOffset:])

	array := n.page.data[n.cellOffsetArray:]
	copy(array[2*ncell+2:2*n.nCells+2], array[2*ncell:2*n.nCells])
	binary.BigEndian.PutUint16(array[2*ncell:], n.cellsOffset)

	n.nCells++
	n.freeOffset += 2

	return nil
}

// hasRoomFor reports whether the free gap can take size more cell
// bytes plus the offset array slot.
func (n *BTreeNode) hasRoomFor(size uint16) bool {
	return n.cellsOffset-n.freeOffset >= size+2
}

// search locates key among the node's cells with a binary search. When
// found, the returned index is the matching cell. Otherwise it is the
// lower bound: the first cell with a key greater than the target,
// possibly nCells when the target exceeds every key in the node.
func (n *BTreeNode) search(key uint32) (bool, uint16, error) {
	lo, hi := uint16(0), n.nCells
	for lo < hi {
		mid := lo + (hi-lo)/2
		cell, err := n.GetCell(mid)
		if err != nil {
			return false, 0, err
		}
		switch {
		case cell.Key() < key:
			lo = mid + 1
		case cell.Key() > key:
			hi = mid
		default:
			return true, mid, nil
		}
	}
	return false, lo, nil
}
