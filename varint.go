package chigo

import "errors"

// Variable-length integer encoding (SQLite format, 32-bit subset).
// The low seven bits of every byte carry data, the high bit marks
// continuation, most significant group first. Values are decoded in
// their general 1-5 byte form but always encoded in the canonical
// 4-byte form so that cell headers have a fixed width. Keys and data
// sizes are therefore limited to 28 bits.

const varint32Size = 4

// MaxKey is the largest key value representable in a cell header.
const MaxKey = 1<<28 - 1

var errBadVarint = errors.New("malformed varint")

// putVarint32 writes v to the first four bytes of buf in the canonical
// 4-byte varint form. Values above MaxKey are truncated to 28 bits.
func putVarint32(buf []byte, v uint32) {
	buf[0] = 0x80 | byte(v>>21&0x7f)
	buf[1] = 0x80 | byte(v>>14&0x7f)
	buf[2] = 0x80 | byte(v>>7&0x7f)
	buf[3] = byte(v & 0x7f)
}

// getVarint32 reads a varint from buf and returns the value and the
// number of bytes consumed.
func getVarint32(buf []byte) (uint32, int, error) {
	var v uint64
	for i := 0; i < len(buf) && i < 5; i++ {
		v = v<<7 | uint64(buf[i]&0x7f)
		if buf[i]&0x80 == 0 {
			if v > 1<<32-1 {
				return 0, 0, errBadVarint
			}
			return uint32(v), i + 1, nil
		}
	}
	return 0, 0, errBadVarint
}
