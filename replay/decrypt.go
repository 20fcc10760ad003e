package replay

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// payloadSource hands out the payload of an event as its own cursor.
type payloadSource interface {
	payload(c *Cursor, size int) (*Cursor, error)
}

// plainSource returns the payload bytes as they are stored.
type plainSource struct{}

func (plainSource) payload(c *Cursor, size int) (*Cursor, error) {
	return c.Sub(size)
}

// ecbSource decrypts every payload with AES in ECB mode.
type ecbSource struct {
	block cipher.Block
}

func newPayloadSource(m *Meta) (payloadSource, error) {
	if m == nil || !m.IsEncrypted {
		return plainSource{}, nil
	}
	block, err := aes.NewCipher(m.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %v: %w", err, ErrInvalidContainer)
	}
	return ecbSource{block: block}, nil
}

func (s ecbSource) payload(c *Cursor, size int) (*Cursor, error) {
	src, err := c.Bytes(size)
	if err != nil {
		return nil, err
	}
	bs := s.block.BlockSize()
	if len(src)%bs != 0 {
		return nil, fmt.Errorf("encrypted payload of %d bytes is not a multiple of %d: %w", len(src), bs, ErrInvalidContainer)
	}
	dst := make([]byte, len(src))
	for off := 0; off < len(src); off += bs {
		s.block.Decrypt(dst[off:off+bs], src[off:off+bs])
	}
	return NewCursor(dst), nil
}
