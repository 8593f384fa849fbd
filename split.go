package chigo

// Split splits the B-Tree node at nchild. This involves the following:
//   - Find the median cell of the child.
//   - Create a new sibling node of the same type.
//   - Move the cells before the median to the sibling. Table leaves
//     also move the median cell itself: leaves carry the row payload,
//     so the median row stays with the lower half while its key is
//     echoed in the parent. For every other type the median cell is
//     consumed as the separator.
//   - Insert a routing cell at position parentNcell of the parent
//     (which, by definition, is an internal node) with the median key
//     and the page number of the sibling.
//
// The child keeps its page number and retains the cells after the
// median. Returns the page number of the new sibling.
func (b *BTree) Split(nparent, nchild uint32, parentNcell uint16) (uint32, error) {
	child, err := b.GetNodeByPage(nchild)
	if err != nil {
		return 0, err
	}
	if child.nCells == 0 {
		b.FreeMemNode(child)
		return 0, ErrEmptyNode
	}

	median := child.nCells / 2
	medianCell, err := child.GetCell(median)
	if err != nil {
		b.FreeMemNode(child)
		return 0, err
	}
	medianKey := medianCell.Key()
	medianKeyPk := medianCell.KeyPk()
	medianChild := medianCell.ChildPage()

	nnew, err := b.NewNode(child.typ)
	if err != nil {
		b.FreeMemNode(child)
		return 0, err
	}
	sibling, err := b.GetNodeByPage(nnew)
	if err != nil {
		b.FreeMemNode(child)
		return 0, err
	}

	// Lower half moves to the sibling; table leaves take the median
	// row with them.
	moved := median
	if child.typ == LeafTable {
		moved = median + 1
	}
	for i := uint16(0); i < moved; i++ {
		cell, err := child.GetCell(i)
		if err == nil {
			err = sibling.InsertCell(i, cell)
		}
		if err != nil {
			b.FreeMemNode(sibling)
			b.FreeMemNode(child)
			return 0, err
		}
	}
	if child.typ.IsInternal() {
		sibling.rightPage = medianChild
	}
	err = b.WriteNode(sibling)
	b.FreeMemNode(sibling)
	if err != nil {
		b.FreeMemNode(child)
		return 0, err
	}

	// Compact the child in place: copy out the retained cells, reset
	// the node, and reinsert them. The page number is preserved.
	retained := make([]*BTreeCell, 0, child.nCells-median)
	for i := median + 1; i < child.nCells; i++ {
		cell, err := child.GetCell(i)
		if err != nil {
			b.FreeMemNode(child)
			return 0, err
		}
		retained = append(retained, cell.clone())
	}
	childType := child.typ
	childRight := child.rightPage
	b.FreeMemNode(child)

	if err := b.InitEmptyNode(nchild, childType); err != nil {
		return 0, err
	}
	compacted, err := b.GetNodeByPage(nchild)
	if err != nil {
		return 0, err
	}
	compacted.rightPage = childRight
	for i, cell := range retained {
		if err := compacted.InsertCell(uint16(i), cell); err != nil {
			b.FreeMemNode(compacted)
			return 0, err
		}
	}
	err = b.WriteNode(compacted)
	b.FreeMemNode(compacted)
	if err != nil {
		return 0, err
	}

	routing := NewTableInternalCell(medianKey, nnew)
	if childType.IsIndex() {
		routing = NewIndexInternalCell(medianKey, medianKeyPk, nnew)
	}

	parent, err := b.GetNodeByPage(nparent)
	if err != nil {
		return 0, err
	}
	if err := parent.InsertCell(parentNcell, routing); err != nil {
		b.FreeMemNode(parent)
		return 0, err
	}
	err = b.WriteNode(parent)
	b.FreeMemNode(parent)
	if err != nil {
		return 0, err
	}

	return nnew, nil
}
