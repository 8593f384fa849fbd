package chigo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagerWriteReadHeader(t *testing.T) {
	pager := openPager(t)

	header := DefaultBTreeHeader()
	written := header.Bytes()

	err := pager.WriteHeader(written)
	require.NoError(t, err, "Expected nil error to write header: %v", err)

	read, err := pager.ReadHeader()
	require.NoError(t, err)

	assert.Equal(t, HeaderSize, len(read), "Expected equals header size")
	assert.Equal(t, written, read, "Expected equals headers after write and read")
}

func TestPagerWriteHeaderInvalidSize(t *testing.T) {
	pager := openPager(t)

	err := pager.WriteHeader(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestPagerReadWritePage(t *testing.T) {
	pager := openPager(t)
	require.NoError(t, pager.SetPageSize(DefaultPageSize))

	npage := pager.AllocatePage()
	assert.Equal(t, uint32(1), npage)

	page, err := pager.ReadPage(npage)
	require.NoError(t, err)
	assert.Equal(t, 1, pager.Pins())

	copy(page.data, []byte("some page content"))
	require.NoError(t, pager.WritePage(page))
	pager.ReleasePage(page)
	assert.Equal(t, 0, pager.Pins())

	read, err := pager.ReadPage(npage)
	require.NoError(t, err)
	assert.Equal(t, []byte("some page content"), read.data[:17])
	assert.Equal(t, DefaultPageSize, len(read.data))
	pager.ReleasePage(read)
}

func TestPagerInvalidPageNumber(t *testing.T) {
	pager := openPager(t)
	require.NoError(t, pager.SetPageSize(DefaultPageSize))
	pager.AllocatePage()

	_, err := pager.ReadPage(0)
	assert.ErrorIs(t, err, ErrInvalidPageNumber)

	_, err = pager.ReadPage(2)
	assert.ErrorIs(t, err, ErrInvalidPageNumber)
}

func TestPagerSetPageSizeCountsPages(t *testing.T) {
	db, err := os.CreateTemp(t.TempDir(), t.Name())
	require.NoError(t, err)

	pager, err := OpenPager(db.Name())
	require.NoError(t, err)
	require.NoError(t, pager.SetPageSize(DefaultPageSize))

	for i := 0; i < 3; i++ {
		npage := pager.AllocatePage()
		page, err := pager.ReadPage(npage)
		require.NoError(t, err)
		require.NoError(t, pager.WritePage(page))
		pager.ReleasePage(page)
	}
	require.NoError(t, pager.Close())

	reopened, err := OpenPager(db.Name())
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.SetPageSize(DefaultPageSize))

	assert.Equal(t, uint32(3), reopened.TotalPages())
}

func openPager(tb testing.TB) *Pager {
	db, err := os.CreateTemp(tb.TempDir(), tb.Name())
	require.NoError(tb, err)

	pager, err := OpenPager(db.Name())
	require.NoError(tb, err)
	tb.Cleanup(func() { pager.Close() })
	return pager
}
