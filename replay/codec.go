package replay

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	utf16Decoder  = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	latin1Decoder = charmap.ISO8859_1
)

// FString reads a length-prefixed string.
//
// The int32 prefix n selects the encoding: 0 is the empty string, n > 0 is n
// bytes of null-terminated UTF-8 (Latin-1 when the bytes are not valid UTF-8)
// and n < 0 is -n null-terminated UTF-16LE code units.
func (c *Cursor) FString() (string, error) {
	start := c.pos
	n, err := c.Int32()
	if err != nil {
		return "", err
	}
	switch {
	case n == 0:
		return "", nil
	case n < 0:
		b, err := c.Bytes(-int(n) * 2)
		if err != nil {
			c.pos = start
			return "", err
		}
		s, err := utf16Decoder.NewDecoder().Bytes(b[:len(b)-2])
		if err != nil {
			c.pos = start
			return "", fmt.Errorf("decode utf-16 string: %w", err)
		}
		return string(s), nil
	default:
		b, err := c.Bytes(int(n))
		if err != nil {
			c.pos = start
			return "", err
		}
		if b[len(b)-1] != 0 {
			c.pos = start
			return "", fmt.Errorf("string of %d bytes at %d: %w", n, start, ErrMalformedString)
		}
		b = b[:len(b)-1]
		if utf8.Valid(b) {
			return string(b), nil
		}
		s, err := latin1Decoder.NewDecoder().Bytes(b)
		if err != nil {
			c.pos = start
			return "", fmt.Errorf("decode latin-1 string: %w", err)
		}
		return string(s), nil
	}
}

// GUID is a 16-byte identifier as stored in the stream.
type GUID [16]byte

// String renders the GUID as 32 lowercase hex characters in stream order.
// This is the form used by current replays to identify players.
func (g GUID) String() string {
	return hex.EncodeToString(g[:])
}

// UUID reinterprets the GUID with its first three groups stored little-endian,
// the layout written by older headers.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// IsZero reports whether all bytes are zero.
func (g GUID) IsZero() bool { return g == GUID{} }

// MarshalText implements encoding.TextMarshaler using the hex form.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// GUID reads 16 raw bytes.
func (c *Cursor) GUID() (GUID, error) {
	var g GUID
	b, err := c.Bytes(len(g))
	if err != nil {
		return g, err
	}
	copy(g[:], b)
	return g, nil
}

// ReadArray reads a uint32 element count followed by that many elements.
func ReadArray[T any](c *Cursor, read func(*Cursor) (T, error)) ([]T, error) {
	n, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	// Every element is at least one byte; anything larger cannot be satisfied.
	if int64(n) > int64(c.Remaining()) {
		return nil, fmt.Errorf("array of %d elements with %d bytes left: %w", n, c.Remaining(), ErrOutOfBounds)
	}
	out := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := read(c)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Pair is an element of a tuple array.
type Pair[A, B any] struct {
	First  A
	Second B
}

// ReadTupleArray reads a uint32 count followed by that many (A, B) pairs.
func ReadTupleArray[A, B any](c *Cursor, readA func(*Cursor) (A, error), readB func(*Cursor) (B, error)) ([]Pair[A, B], error) {
	return ReadArray(c, func(c *Cursor) (Pair[A, B], error) {
		a, err := readA(c)
		if err != nil {
			return Pair[A, B]{}, err
		}
		b, err := readB(c)
		if err != nil {
			return Pair[A, B]{}, err
		}
		return Pair[A, B]{First: a, Second: b}, nil
	})
}

// Method expressions usable as element readers.
var (
	readString = (*Cursor).FString
	readUint32 = (*Cursor).Uint32
)
