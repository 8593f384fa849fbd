package chigo

import (
	"bytes"
	"encoding/binary"
)

// PageCacheSizeInitial is the default pager cache size recorded in the
// file header.
const PageCacheSizeInitial = 20000

var headerMagic = []byte("SQLite format 3\x00")

// BTreeHeader is the parsed form of the file header stored in the
// first HeaderSize bytes of page 1. Fields the format pins to a single
// value (format versions, payload fractions, schema format, text
// encoding) are validated on read and written back as constants. The
// fields below are carried in the struct; of them, the page cache size
// is also validated and must equal PageCacheSizeInitial.
type BTreeHeader struct {
	// Size of database page
	pageSize uint16

	// Initialized to 0 on create. Read from and written to the header
	// as is; this layer never increments it.
	fileChangeCounter uint32

	// Default pager cache size. Initialized to PageCacheSizeInitial
	pageCacheSize uint32

	// Available to the user for read-write access. Initialized to 0
	userVersion uint32
}

// DefaultBTreeHeader returns the header written when a new file is
// created.
func DefaultBTreeHeader() BTreeHeader {
	return BTreeHeader{
		pageSize:          DefaultPageSize,
		fileChangeCounter: 0,
		pageCacheSize:     PageCacheSizeInitial,
		userVersion:       0,
	}
}

// PageSize returns the page size recorded in the header.
func (h *BTreeHeader) PageSize() uint16 { return h.pageSize }

// FileChangeCounter returns the file change counter.
func (h *BTreeHeader) FileChangeCounter() uint32 { return h.fileChangeCounter }

// PageCacheSize returns the suggested pager cache size.
func (h *BTreeHeader) PageCacheSize() uint32 { return h.pageCacheSize }

// UserVersion returns the user version cookie.
func (h *BTreeHeader) UserVersion() uint32 { return h.userVersion }

// ParseBTreeHeader validates a raw 100-byte file header and returns
// its parsed form. Any mismatch of a pinned field yields
// ErrCorruptHeader.
func ParseBTreeHeader(buf []byte) (*BTreeHeader, error) {
	if len(buf) != HeaderSize {
		return nil, ErrCorruptHeader
	}

	valid := bytes.Equal(buf[0:16], headerMagic) &&
		buf[18] == 1 && // file format write version
		buf[19] == 1 && // file format read version
		buf[20] == 0 && // reserved space per page
		buf[21] == 64 && // max embedded payload fraction
		buf[22] == 32 && // min embedded payload fraction
		buf[23] == 32 && // leaf payload fraction
		binary.BigEndian.Uint32(buf[32:]) == 0 &&
		binary.BigEndian.Uint32(buf[36:]) == 0 &&
		binary.BigEndian.Uint32(buf[44:]) == 1 && // schema format
		binary.BigEndian.Uint32(buf[48:]) == PageCacheSizeInitial &&
		binary.BigEndian.Uint32(buf[52:]) == 0 &&
		binary.BigEndian.Uint32(buf[56:]) == 1 && // text encoding (UTF-8)
		binary.BigEndian.Uint32(buf[64:]) == 0
	if !valid {
		return nil, ErrCorruptHeader
	}

	return &BTreeHeader{
		pageSize:          binary.BigEndian.Uint16(buf[16:]),
		fileChangeCounter: binary.BigEndian.Uint32(buf[24:]),
		pageCacheSize:     binary.BigEndian.Uint32(buf[48:]),
		userVersion:       binary.BigEndian.Uint32(buf[60:]),
	}, nil
}

// Bytes serializes the header into its fixed 100-byte layout.
func (h *BTreeHeader) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, headerMagic)
	binary.BigEndian.PutUint16(buf[16:], h.pageSize)
	buf[18] = 1
	buf[19] = 1
	buf[20] = 0
	buf[21] = 64
	buf[22] = 32
	buf[23] = 32
	binary.BigEndian.PutUint32(buf[24:], h.fileChangeCounter)
	binary.BigEndian.PutUint32(buf[44:], 1)
	binary.BigEndian.PutUint32(buf[48:], h.pageCacheSize)
	binary.BigEndian.PutUint32(buf[56:], 1)
	binary.BigEndian.PutUint32(buf[60:], h.userVersion)
	return buf
}
