package chigo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestNode allocates a fresh node of the given type and returns its
// pinned descriptor.
func newTestNode(t *testing.T, btree *BTree, typ BTreeNodeType) *BTreeNode {
	t.Helper()

	npage, err := btree.NewNode(typ)
	require.NoError(t, err)
	node, err := btree.GetNodeByPage(npage)
	require.NoError(t, err)
	t.Cleanup(func() { btree.FreeMemNode(node) })
	return node
}

// checkNode verifies the structural invariants of a node: the free
// gap is well formed, the cell offset array matches the cell count and
// points into the cell area, and keys are strictly ascending.
func checkNode(t *testing.T, btree *BTree, node *BTreeNode) {
	t.Helper()

	pageSize := btree.Pager().PageSize()
	assert.LessOrEqual(t, node.freeOffset, node.cellsOffset)
	assert.LessOrEqual(t, node.cellsOffset, pageSize)
	assert.Equal(t, node.cellOffsetArray+2*node.nCells, node.freeOffset)

	lastKey := uint32(0)
	for i := uint16(0); i < node.nCells; i++ {
		offset := binary.BigEndian.Uint16(node.page.data[node.cellOffsetArray+2*i:])
		assert.GreaterOrEqual(t, offset, node.cellsOffset)
		assert.Less(t, offset, pageSize)

		cell, err := node.GetCell(i)
		require.NoError(t, err)
		if i > 0 {
			assert.Greater(t, cell.Key(), lastKey, "keys must ascend strictly")
		}
		lastKey = cell.Key()
	}
}

func TestCellRoundTrip(t *testing.T) {
	btree := openBtree(t)

	testcases := []struct {
		name string
		typ  BTreeNodeType
		cell *BTreeCell
	}{
		{name: "table internal", typ: InternalTable, cell: NewTableInternalCell(42, 7)},
		{name: "table leaf", typ: LeafTable, cell: NewTableLeafCell(42, []byte{0xAB, 0xCD, 0xEF})},
		{name: "index internal", typ: InternalIndex, cell: NewIndexInternalCell(42, 1000, 7)},
		{name: "index leaf", typ: LeafIndex, cell: NewIndexLeafCell(42, 1000)},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			node := newTestNode(t, btree, tt.typ)
			require.NoError(t, node.InsertCell(0, tt.cell))

			got, err := node.GetCell(0)
			require.NoError(t, err)

			assert.Equal(t, tt.typ, got.Type())
			assert.Equal(t, tt.cell.Key(), got.Key())
			switch tt.typ {
			case InternalTable:
				assert.Equal(t, tt.cell.ChildPage(), got.ChildPage())
			case LeafTable:
				assert.Equal(t, tt.cell.DataSize(), got.DataSize())
				assert.Equal(t, tt.cell.Data(), got.Data())
			case InternalIndex:
				assert.Equal(t, tt.cell.KeyPk(), got.KeyPk())
				assert.Equal(t, tt.cell.ChildPage(), got.ChildPage())
			case LeafIndex:
				assert.Equal(t, tt.cell.KeyPk(), got.KeyPk())
			}
		})
	}
}

func TestInsertCellKeepsKeyOrder(t *testing.T) {
	btree := openBtree(t)
	node := newTestNode(t, btree, LeafTable)

	for _, key := range []uint32{5, 1, 9, 3, 7} {
		found, ncell, err := node.search(key)
		require.NoError(t, err)
		require.False(t, found)
		require.NoError(t, node.InsertCell(ncell, NewTableLeafCell(key, []byte{byte(key)})))
	}
	require.NoError(t, btree.WriteNode(node))

	checkNode(t, btree, node)
	var keys []uint32
	for i := uint16(0); i < node.NCells(); i++ {
		cell, err := node.GetCell(i)
		require.NoError(t, err)
		keys = append(keys, cell.Key())
	}
	assert.Equal(t, []uint32{1, 3, 5, 7, 9}, keys)
}

func TestGetCellInvalidNumber(t *testing.T) {
	btree := openBtree(t)
	node := newTestNode(t, btree, LeafTable)

	_, err := node.GetCell(0)
	assert.ErrorIs(t, err, ErrInvalidCellNumber)

	require.NoError(t, node.InsertCell(0, NewTableLeafCell(1, []byte("a"))))
	_, err = node.GetCell(1)
	assert.ErrorIs(t, err, ErrInvalidCellNumber)
}

func TestInsertCellInvalidNumber(t *testing.T) {
	btree := openBtree(t)
	node := newTestNode(t, btree, LeafTable)

	// Appending at position nCells is valid; beyond it is not.
	err := node.InsertCell(1, NewTableLeafCell(1, []byte("a")))
	assert.ErrorIs(t, err, ErrInvalidCellNumber)

	require.NoError(t, node.InsertCell(0, NewTableLeafCell(1, []byte("a"))))
	require.NoError(t, node.InsertCell(1, NewTableLeafCell(2, []byte("b"))))
	assert.Equal(t, uint16(2), node.NCells())
}

func TestInsertCellAccounting(t *testing.T) {
	btree := openBtree(t)
	node := newTestNode(t, btree, LeafTable)

	freeBefore := node.FreeOffset()
	cellsBefore := node.CellsOffset()

	cell := NewTableLeafCell(1, []byte("hello"))
	require.NoError(t, node.InsertCell(0, cell))

	assert.Equal(t, freeBefore+2, node.FreeOffset())
	assert.Equal(t, cellsBefore-cell.size(), node.CellsOffset())
}

func TestWriteNodeIdempotent(t *testing.T) {
	btree := openBtree(t)

	npage, err := btree.NewNode(LeafTable)
	require.NoError(t, err)

	node, err := btree.GetNodeByPage(npage)
	require.NoError(t, err)
	for i, key := range []uint32{2, 4, 6} {
		require.NoError(t, node.InsertCell(uint16(i), NewTableLeafCell(key, []byte("x"))))
	}
	require.NoError(t, btree.WriteNode(node))
	btree.FreeMemNode(node)

	before, err := btree.Pager().ReadPage(npage)
	require.NoError(t, err)
	raw := make([]byte, len(before.data))
	copy(raw, before.data)
	btree.Pager().ReleasePage(before)

	// Re-reading and writing back must not change a single byte.
	node, err = btree.GetNodeByPage(npage)
	require.NoError(t, err)
	require.NoError(t, btree.WriteNode(node))
	btree.FreeMemNode(node)

	after, err := btree.Pager().ReadPage(npage)
	require.NoError(t, err)
	assert.Equal(t, raw, after.data)
	btree.Pager().ReleasePage(after)
}

func TestNodeSearch(t *testing.T) {
	btree := openBtree(t)
	node := newTestNode(t, btree, LeafTable)

	for i := uint16(0); i < 10; i++ {
		key := uint32(i+1) * 10
		require.NoError(t, node.InsertCell(i, NewTableLeafCell(key, []byte("v"))))
	}

	testcases := []struct {
		key   uint32
		found bool
		ncell uint16
	}{
		{key: 5, found: false, ncell: 0},
		{key: 10, found: true, ncell: 0},
		{key: 15, found: false, ncell: 1},
		{key: 55, found: false, ncell: 5},
		{key: 100, found: true, ncell: 9},
		{key: 105, found: false, ncell: 10},
	}

	for _, tt := range testcases {
		found, ncell, err := node.search(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.found, found, "key %d", tt.key)
		assert.Equal(t, tt.ncell, ncell, "key %d", tt.key)
	}
}

func TestNodeTypePredicates(t *testing.T) {
	testcases := []struct {
		typ      BTreeNodeType
		leaf     bool
		table    bool
		index    bool
		internal bool
	}{
		{typ: InternalTable, leaf: false, table: true, index: false, internal: true},
		{typ: LeafTable, leaf: true, table: true, index: false, internal: false},
		{typ: InternalIndex, leaf: false, table: false, index: true, internal: true},
		{typ: LeafIndex, leaf: true, table: false, index: true, internal: false},
	}

	for _, tt := range testcases {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.leaf, tt.typ.IsLeaf())
			assert.Equal(t, tt.table, tt.typ.IsTable())
			assert.Equal(t, tt.index, tt.typ.IsIndex())
			assert.Equal(t, tt.internal, tt.typ.IsInternal())
		})
	}

	_, err := BTreeNodeTypeFromByte(0x03)
	assert.Error(t, err)
}
