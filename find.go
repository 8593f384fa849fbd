package chigo

// tableRootPage is the page where Open roots the primary table tree of
// a fresh file. Index lookups resolve the primary key they carry
// against this tree.
const tableRootPage = 1

// Find looks up the entry with the given key in the B-Tree rooted at
// nroot and returns a copy of its data.
//
// The descent is iterative and may switch trees: a hit in an index
// node yields the primary key of the indexed row, and the search
// restarts against the table rooted at page 1 with that key.
func (b *BTree) Find(nroot uint32, key uint32) ([]byte, error) {
	npage := nroot
	searchKey := key

	for {
		node, err := b.GetNodeByPage(npage)
		if err != nil {
			return nil, err
		}

		found, ncell, err := node.search(searchKey)
		if err != nil {
			b.FreeMemNode(node)
			return nil, err
		}

		switch {
		case found && node.typ.IsIndex():
			// The index holds (keyIdx, keyPk) pairs; the row itself
			// lives in the table tree.
			cell, err := node.GetCell(ncell)
			if err != nil {
				b.FreeMemNode(node)
				return nil, err
			}
			searchKey = cell.KeyPk()
			npage = tableRootPage

		case found && node.typ == LeafTable:
			cell, err := node.GetCell(ncell)
			if err != nil {
				b.FreeMemNode(node)
				return nil, err
			}
			data := make([]byte, len(cell.Data()))
			copy(data, cell.Data())
			b.FreeMemNode(node)
			return data, nil

		case node.typ.IsInternal():
			// On an exact match in a table internal node the row lives
			// in the child at the matching cell, since splits leave
			// the median row below its routing key.
			if ncell == node.nCells {
				npage = node.rightPage
			} else {
				cell, err := node.GetCell(ncell)
				if err != nil {
					b.FreeMemNode(node)
					return nil, err
				}
				npage = cell.ChildPage()
			}

		default:
			b.FreeMemNode(node)
			return nil, ErrKeyNotFound
		}

		b.FreeMemNode(node)
	}
}
