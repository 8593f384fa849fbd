package chigo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSingleInsert(t *testing.T) {
	btree := openBtree(t)

	require.NoError(t, btree.InsertInTable(1, 42, []byte{0xAB, 0xCD, 0xEF}))

	data, err := btree.Find(1, 42)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD, 0xEF}, data)

	_, err = btree.Find(1, 41)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.Equal(t, 0, btree.Pager().Pins(), "descent must release every page")
}

func TestFindEmptyTree(t *testing.T) {
	btree := openBtree(t)

	_, err := btree.Find(1, 1)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFindInvalidRoot(t *testing.T) {
	btree := openBtree(t)

	_, err := btree.Find(99, 1)
	assert.ErrorIs(t, err, ErrInvalidPageNumber)
}

func TestFindIndexRedirectsToTable(t *testing.T) {
	btree := openBtree(t)

	// The row lives in the table rooted at page 1; the index maps the
	// indexed key 10 to its primary key 100.
	require.NoError(t, btree.InsertInTable(1, 100, []byte("row")))

	indexRoot, err := btree.NewNode(LeafIndex)
	require.NoError(t, err)
	require.NoError(t, btree.InsertInIndex(indexRoot, 10, 100))

	data, err := btree.Find(indexRoot, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("row"), data)

	_, err = btree.Find(indexRoot, 11)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// A dangling index entry resolves to a miss in the table tree.
	require.NoError(t, btree.InsertInIndex(indexRoot, 20, 200))
	_, err = btree.Find(indexRoot, 20)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.Equal(t, 0, btree.Pager().Pins())
}
