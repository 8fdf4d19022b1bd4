// Package bitstream provides a bit-addressed cursor over a fixed input
// buffer, with checkpoint/rewind support.
//
// Cursor is the bit-level analogue of a token cursor: instead of stepping
// over a token stream, it steps over individual bits, and instead of
// yielding a typed token on Next, it yields raw bits or bytes on demand.
// The Mark/Rewind pair is deliberately shaped like a token cursor's, since
// the PoU manager (package pou) needs exactly this kind of checkpoint to
// implement speculative rollback.
package bitstream

import (
	"fmt"

	"github.com/brnnnfx/daffodil/internal/ext/bitsx"
)

// Cursor is a forward cursor over a byte slice, addressed by 0-based bit
// offset. It does not own the underlying buffer and does not copy it.
type Cursor struct {
	data   []byte
	bitPos uint64
}

// NewCursor returns a cursor positioned at bit offset 0 of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current 0-based bit offset.
func (c *Cursor) Pos() uint64 {
	return c.bitPos
}

// Len returns the total number of bits in the underlying buffer.
func (c *Cursor) Len() uint64 {
	return uint64(len(c.data)) * 8
}

// Remaining returns the number of bits left to read.
func (c *Cursor) Remaining() uint64 {
	return c.Len() - c.bitPos
}

// AtEnd reports whether the cursor has consumed the entire buffer.
func (c *Cursor) AtEnd() bool {
	return c.bitPos >= c.Len()
}

// IsByteAligned reports whether the cursor currently sits on a byte
// boundary, which many DFDL representations require before reading a
// byte-oriented element.
func (c *Cursor) IsByteAligned() bool {
	return bitsx.IsByteAligned(c.bitPos)
}

// AlignToByte advances the cursor to the next byte boundary, doing nothing
// if it is already aligned. It never advances past the end of the buffer.
func (c *Cursor) AlignToByte() {
	c.bitPos = min(bitsx.RoundUpToByte(c.bitPos), c.Len())
}

// BytesConsumed returns the number of whole bytes needed to hold every bit
// read so far, rounding up on a partial trailing byte. Diagnostics report
// positions this way alongside the raw bit offset.
func (c *Cursor) BytesConsumed() uint64 {
	return bitsx.ByteLen(c.bitPos)
}

// Mark is a checkpoint on a Cursor that can be rewound to with Rewind.
//
// A Mark is only valid for the Cursor that created it.
type Mark struct {
	owner *Cursor
	pos   uint64
}

// Mark makes a mark on this cursor to indicate a position that can be
// rewound to.
func (c *Cursor) Mark() Mark {
	return Mark{owner: c, pos: c.bitPos}
}

// Rewind moves this cursor back to the position described by mark.
//
// Panics if mark was not created by this cursor's Mark method.
func (c *Cursor) Rewind(mark Mark) {
	if mark.owner != c {
		panic("bitstream: rewound cursor using a mark from a different cursor")
	}
	c.bitPos = mark.pos
}

// Seek moves the cursor to an absolute bit offset.
//
// Panics if pos is past the end of the buffer; callers that want a
// boundable seek should check Len first.
func (c *Cursor) Seek(pos uint64) {
	if pos > c.Len() {
		panic(fmt.Sprintf("bitstream: seek past end: %d > %d", pos, c.Len()))
	}
	c.bitPos = pos
}

// Advance moves the cursor forward by n bits.
//
// Returns false (and does not move the cursor) if fewer than n bits remain.
func (c *Cursor) Advance(n uint64) bool {
	if n > c.Remaining() {
		return false
	}
	c.bitPos += n
	return true
}

// ReadBits reads the next n bits (n <= 64) as a big-endian unsigned integer
// and advances the cursor by n bits.
//
// Returns false (and does not move the cursor) if fewer than n bits remain.
func (c *Cursor) ReadBits(n uint) (uint64, bool) {
	if n > 64 {
		panic("bitstream: ReadBits: n > 64")
	}
	if uint64(n) > c.Remaining() {
		return 0, false
	}

	var out uint64
	pos := c.bitPos
	for i := uint(0); i < n; i++ {
		byteIdx := (pos + uint64(i)) / 8
		bitIdx := 7 - (pos+uint64(i))%8
		bit := (c.data[byteIdx] >> bitIdx) & 1
		out = out<<1 | uint64(bit)
	}
	c.bitPos += uint64(n)
	return out, true
}

// PopCount returns the number of set bits among the next n bits without
// advancing the cursor, used by parity- and checksum-bearing bit fields
// that need to validate their content before the driver decides whether
// the occurrence is present.
//
// Returns false (and zero) if fewer than n bits remain.
func (c *Cursor) PopCount(n uint) (int, bool) {
	if uint64(n) > c.Remaining() {
		return 0, false
	}
	count := 0
	pos, remaining := c.bitPos, uint64(n)
	for remaining > 0 {
		byteIdx := pos / 8
		bitOff := pos % 8
		take := min(8-bitOff, remaining)
		shift := uint(8 - bitOff - take)
		count += bitsx.OnesInRange(c.data[byteIdx]>>shift, uint(take))
		pos += take
		remaining -= take
	}
	return count, true
}

// PeekBits is like ReadBits but does not advance the cursor.
func (c *Cursor) PeekBits(n uint) (uint64, bool) {
	mark := c.Mark()
	v, ok := c.ReadBits(n)
	c.Rewind(mark)
	return v, ok
}

// Bytes returns the raw underlying buffer. Callers must not mutate it.
func (c *Cursor) Bytes() []byte {
	return c.data
}
