package replay

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor is a positional little-endian reader over an immutable byte slice.
// A failed read leaves the position unchanged.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
// The cursor never writes to buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the size of the underlying buffer in bytes.
func (c *Cursor) Len() int { return len(c.buf) }

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// BitPos returns the current offset in bits.
func (c *Cursor) BitPos() int { return c.pos * 8 }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// SetPos moves the cursor to an absolute byte offset. Seeking to Len() is
// allowed and marks the cursor as exhausted.
func (c *Cursor) SetPos(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return fmt.Errorf("seek to %d of %d: %w", pos, len(c.buf), ErrOutOfBounds)
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if _, err := c.take(n); err != nil {
		return err
	}
	return nil
}

// Bytes returns a view of the next n bytes. The view aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	return c.take(n)
}

// Sub returns a cursor over the next n bytes and advances past them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	return NewCursor(b[:n:n]), nil
}

func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) Float32() (float32, error) {
	v, err := c.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Bool reads a 32-bit integer; only the value 1 is true.
func (c *Cursor) Bool() (bool, error) {
	v, err := c.Uint32()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.pos {
		return nil, fmt.Errorf("read %d bytes at %d of %d: %w", n, c.pos, len(c.buf), ErrOutOfBounds)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
