// Package chigo implements the B-Tree file layer of a small relational
// storage engine. A single paged file holds a collection of B-Trees,
// each rooted at a numbered page; the layer exposes node and cell
// level primitives plus key search and insertion on top of a pager
// that abstracts block I/O.
//
// The layer does not read or write the database file directly. All
// I/O goes through the Pager.
package chigo

import (
	"errors"
	"fmt"
	"io"
)

// BTree represents a "B-Tree file": a paged file containing any number
// of B-Trees. It owns the Pager it uses to access pages on the file.
type BTree struct {
	pager *Pager
}

// Open opens a database file and verifies that the file header is
// correct. If the file is empty (which will happen if the pager is
// given a filename for a file that does not exist) then this function
// will (1) create an empty table leaf node in page 1 and (2)
// initialize the file header using the default page size.
func Open(filename string) (*BTree, error) {
	pager, err := OpenPager(filename)
	if err != nil {
		return nil, err
	}
	btree := &BTree{pager: pager}

	isEmpty, err := pager.IsEmpty()
	if err != nil {
		pager.Close()
		return nil, err
	}

	if isEmpty {
		if err := btree.bootstrap(); err != nil {
			pager.Close()
			return nil, err
		}
		return btree, nil
	}

	raw, err := pager.ReadHeader()
	if err != nil {
		pager.Close()
		// A non-empty file too short to hold a header cannot be a
		// database file.
		if errors.Is(err, io.EOF) {
			return nil, ErrCorruptHeader
		}
		return nil, err
	}
	header, err := ParseBTreeHeader(raw)
	if err != nil {
		pager.Close()
		return nil, err
	}
	if err := pager.SetPageSize(header.PageSize()); err != nil {
		pager.Close()
		return nil, err
	}

	return btree, nil
}

// bootstrap initializes a fresh file: page 1 becomes an empty table
// leaf and the canonical file header is written over its first
// HeaderSize bytes.
func (b *BTree) bootstrap() error {
	if err := b.pager.SetPageSize(DefaultPageSize); err != nil {
		return err
	}
	npage, err := b.NewNode(LeafTable)
	if err != nil {
		return err
	}
	if npage != 1 {
		return fmt.Errorf("fresh file bootstrap allocated page %d", npage)
	}
	header := DefaultBTreeHeader()
	return b.pager.WriteHeader(header.Bytes())
}

// Close closes the database file.
func (b *BTree) Close() error {
	return b.pager.Close()
}

// Pager returns the pager owned by the B-Tree file.
func (b *BTree) Pager() *Pager {
	return b.pager
}

// ReadHeader returns the parsed file header.
func (b *BTree) ReadHeader() (*BTreeHeader, error) {
	raw, err := b.pager.ReadHeader()
	if err != nil {
		return nil, err
	}
	return ParseBTreeHeader(raw)
}

// NewNode creates a new B-Tree node: it allocates a new page in the
// file and initializes it as an empty node of the given type, returning
// the page number.
func (b *BTree) NewNode(typ BTreeNodeType) (uint32, error) {
	npage := b.pager.AllocatePage()
	if err := b.InitEmptyNode(npage, typ); err != nil {
		return 0, err
	}
	return npage, nil
}

// InitEmptyNode initializes a database page to contain an empty B-Tree
// node. The page is assumed to have been already allocated by the
// pager.
func (b *BTree) InitEmptyNode(npage uint32, typ BTreeNodeType) error {
	page, err := b.pager.ReadPage(npage)
	if err != nil {
		return err
	}
	node := newBTreeNode(page, typ, b.pager.PageSize())
	err = b.WriteNode(node)
	b.pager.ReleasePage(page)
	return err
}

// GetNodeByPage loads a B-Tree node from disk.
//
// The returned descriptor holds the pinned page; release it with
// FreeMemNode. Any changes made to the descriptor are not effective in
// the database until WriteNode is called on it.
func (b *BTree) GetNodeByPage(npage uint32) (*BTreeNode, error) {
	page, err := b.pager.ReadPage(npage)
	if err != nil {
		return nil, err
	}
	node, err := btreeNodeFromPage(page)
	if err != nil {
		b.pager.ReleasePage(page)
		return nil, err
	}
	return node, nil
}

// FreeMemNode releases an in-memory B-Tree node and unpins the page it
// holds.
func (b *BTree) FreeMemNode(node *BTreeNode) {
	b.pager.ReleasePage(node.page)
}

// WriteNode writes an in-memory B-Tree node to disk. Since the cell
// offset array and the cells themselves are modified directly on the
// page, the only thing to do is to store the values of type,
// freeOffset, nCells, cellsOffset and rightPage in the page header and
// hand the page to the pager.
func (b *BTree) WriteNode(node *BTreeNode) error {
	node.packHeader()
	return b.pager.WritePage(node.page)
}
