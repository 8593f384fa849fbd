package chigo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	header := DefaultBTreeHeader()

	parsed, err := ParseBTreeHeader(header.Bytes())
	require.NoError(t, err)

	assert.Equal(t, uint16(DefaultPageSize), parsed.PageSize())
	assert.Equal(t, uint32(0), parsed.FileChangeCounter())
	assert.Equal(t, uint32(PageCacheSizeInitial), parsed.PageCacheSize())
	assert.Equal(t, uint32(0), parsed.UserVersion())
}

func TestHeaderUnvalidatedFieldsPreserved(t *testing.T) {
	header := DefaultBTreeHeader()
	buf := header.Bytes()
	binary.BigEndian.PutUint32(buf[24:], 7) // file change counter
	binary.BigEndian.PutUint32(buf[60:], 9) // user version

	parsed, err := ParseBTreeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), parsed.FileChangeCounter())
	assert.Equal(t, uint32(9), parsed.UserVersion())
}

func TestHeaderValidation(t *testing.T) {
	testcases := []struct {
		name    string
		corrupt func(buf []byte)
	}{
		{name: "bad magic", corrupt: func(buf []byte) { buf[0] = 'X' }},
		{name: "bad write version", corrupt: func(buf []byte) { buf[18] = 2 }},
		{name: "bad read version", corrupt: func(buf []byte) { buf[19] = 2 }},
		{name: "bad reserved space", corrupt: func(buf []byte) { buf[20] = 1 }},
		{name: "bad max payload fraction", corrupt: func(buf []byte) { buf[21] = 63 }},
		{name: "bad min payload fraction", corrupt: func(buf []byte) { buf[22] = 33 }},
		{name: "bad leaf payload fraction", corrupt: func(buf []byte) { buf[23] = 33 }},
		{name: "bad schema format", corrupt: func(buf []byte) { binary.BigEndian.PutUint32(buf[44:], 2) }},
		{name: "bad page cache size", corrupt: func(buf []byte) { binary.BigEndian.PutUint32(buf[48:], 1000) }},
		{name: "bad text encoding", corrupt: func(buf []byte) { binary.BigEndian.PutUint32(buf[56:], 2) }},
		{name: "bad reserved word", corrupt: func(buf []byte) { binary.BigEndian.PutUint32(buf[64:], 1) }},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			header := DefaultBTreeHeader()
			buf := header.Bytes()
			tt.corrupt(buf)

			_, err := ParseBTreeHeader(buf)
			assert.ErrorIs(t, err, ErrCorruptHeader)
		})
	}
}

func TestHeaderInvalidLength(t *testing.T) {
	_, err := ParseBTreeHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrCorruptHeader)
}
