package chigo

// InsertInTable inserts an entry into a table B-Tree. This is a
// convenience wrapper around Insert that builds the table leaf cell
// from a key and its data.
func (b *BTree) InsertInTable(nroot uint32, key uint32, data []byte) error {
	return b.Insert(nroot, NewTableLeafCell(key, data))
}

// InsertInIndex inserts an entry into an index B-Tree. This is a
// convenience wrapper around Insert that builds the index leaf cell
// from the indexed key and the primary key it refers to.
func (b *BTree) InsertInIndex(nroot uint32, keyIdx, keyPk uint32) error {
	return b.Insert(nroot, NewIndexLeafCell(keyIdx, keyPk))
}

// Insert inserts a BTreeCell into the B-Tree rooted at nroot.
//
// Insert first checks whether the root has to be split, which is a
// splitting operation different from splitting any other node because
// the root must keep its page number. If so the root content moves to
// a fresh page, the root is reset as an empty internal node pointing
// at the copy, and the copy is split as child 0. The actual insertion
// is then done by InsertNonFull.
func (b *BTree) Insert(nroot uint32, cell *BTreeCell) error {
	// A node must be able to hold two cells of this size, or the
	// proactive split below can never create room for the insertion.
	needed := requiredRoom(cell)
	maxCell := (b.pager.PageSize()-HeaderSize-internalPageHeaderSize)/2 - 2
	if needed > maxCell {
		return ErrCellTooLarge
	}

	root, err := b.GetNodeByPage(nroot)
	if err != nil {
		return err
	}
	full := !root.hasRoomFor(needed)
	b.FreeMemNode(root)

	if full {
		if err := b.splitRoot(nroot); err != nil {
			return err
		}
	}
	return b.InsertNonFull(nroot, cell)
}

// requiredRoom returns the free space an insertion descent must see in
// a node before stepping into it: enough for the cell being inserted
// or for the routing cell a split of one of the node's children would
// promote into it, whichever is larger. Index routing cells are wider
// than index leaf cells, so checking against the leaf cell alone would
// let a split overflow its parent.
func requiredRoom(cell *BTreeCell) uint16 {
	size := cell.size()
	routing := uint16(tableInternalCellSize)
	if cell.typ.IsIndex() {
		routing = indexInternalCellSize
	}
	if routing > size {
		return routing
	}
	return size
}

// splitRoot grows the tree by one level while preserving the root page
// number.
func (b *BTree) splitRoot(nroot uint32) error {
	root, err := b.GetNodeByPage(nroot)
	if err != nil {
		return err
	}

	// Move the root's entire content to a fresh page of the same type.
	ncopy, err := b.NewNode(root.typ)
	if err != nil {
		b.FreeMemNode(root)
		return err
	}
	copied, err := b.GetNodeByPage(ncopy)
	if err != nil {
		b.FreeMemNode(root)
		return err
	}
	for i := uint16(0); i < root.nCells; i++ {
		cell, err := root.GetCell(i)
		if err == nil {
			err = copied.InsertCell(i, cell)
		}
		if err != nil {
			b.FreeMemNode(copied)
			b.FreeMemNode(root)
			return err
		}
	}
	copied.rightPage = root.rightPage
	err = b.WriteNode(copied)
	b.FreeMemNode(copied)
	if err != nil {
		b.FreeMemNode(root)
		return err
	}

	// Reset the root as an empty internal node of the matching kind,
	// pointing at the copy.
	newType := InternalTable
	if root.typ.IsIndex() {
		newType = InternalIndex
	}
	b.FreeMemNode(root)
	if err := b.InitEmptyNode(nroot, newType); err != nil {
		return err
	}
	emptyRoot, err := b.GetNodeByPage(nroot)
	if err != nil {
		return err
	}
	emptyRoot.rightPage = ncopy
	err = b.WriteNode(emptyRoot)
	b.FreeMemNode(emptyRoot)
	if err != nil {
		return err
	}

	_, err = b.Split(nroot, ncopy, 0)
	return err
}

// InsertNonFull inserts a BTreeCell into a node assumed not to require
// splitting. If the node is a leaf the cell is added in the position
// its key sorts to. If the node is internal, the descent picks the
// child the key routes to, but first checks whether that child can
// take the cell: a full child is split before stepping down, and the
// routing decision is redone on the updated parent.
func (b *BTree) InsertNonFull(npage uint32, cell *BTreeCell) error {
	needed := requiredRoom(cell)

	for {
		node, err := b.GetNodeByPage(npage)
		if err != nil {
			return err
		}

		found, ncell, err := node.search(cell.Key())
		if err != nil {
			b.FreeMemNode(node)
			return err
		}
		if found {
			// Routing keys of internal nodes are real keys, so a match
			// at any level means the entry exists.
			b.FreeMemNode(node)
			return ErrDuplicateKey
		}

		if node.typ.IsLeaf() {
			if err := node.InsertCell(ncell, cell); err != nil {
				b.FreeMemNode(node)
				return err
			}
			err = b.WriteNode(node)
			b.FreeMemNode(node)
			return err
		}

		nchild := node.rightPage
		if ncell < node.nCells {
			routing, err := node.GetCell(ncell)
			if err != nil {
				b.FreeMemNode(node)
				return err
			}
			nchild = routing.ChildPage()
		}

		child, err := b.GetNodeByPage(nchild)
		if err != nil {
			b.FreeMemNode(node)
			return err
		}
		childFull := !child.hasRoomFor(needed)
		b.FreeMemNode(child)
		b.FreeMemNode(node)

		if childFull {
			if _, err := b.Split(npage, nchild, ncell); err != nil {
				return err
			}
			// The split may have moved the key range of the target
			// into the new sibling; redo the routing decision.
			continue
		}
		npage = nchild
	}
}
