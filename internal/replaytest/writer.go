// Package replaytest writes synthetic replay containers for tests.
//
// Output layout:
//   - meta record, written by NewWriter
//   - [type:u32][size:i32][payload] for every chunk
//
// Event payloads are AES-ECB encrypted when the meta says so. The package
// does not depend on the decoder so that decoder tests can import it.
package replaytest

import (
	"bytes"
	"crypto/aes"
	"fmt"
	"io"
	"os"
)

// Container constants mirrored from the decoder.
const (
	FileMagic          = 0x1CA2E27F
	HeaderMagic        = 0x2CF5A13D
	CurrentFileVersion = 6

	ChunkHeader     = 0
	ChunkReplayData = 1
	ChunkCheckpoint = 2
	ChunkEvent      = 3
)

// Meta is the meta record to write. A zero Magic writes FileMagic.
type Meta struct {
	Magic          uint32
	FileVersion    uint32
	LengthInMs     uint32
	NetworkVersion uint32
	Changelist     uint32
	FriendlyName   string
	IsLive         bool
	Timestamp      uint64 // .NET ticks
	IsCompressed   bool
	IsEncrypted    bool
	Key            []byte
}

// Level is a (name, time) entry of the header.
type Level struct {
	Name   string
	TimeMs uint32
}

// Header is the payload of a HEADER chunk. A zero Magic writes HeaderMagic.
type Header struct {
	Magic                uint32
	NetworkVersion       uint32
	NetworkChecksum      uint32
	EngineNetworkVersion uint32
	GameNetworkProtocol  uint32
	GUID                 [16]byte // written when NetworkVersion > 11
	Major, Minor, Patch  uint16
	Changelist           uint32
	Branch               string
	Levels               []Level
	Flags                uint32
	GameSpecificData     []string
}

// Event is the payload of an EVENT chunk.
type Event struct {
	ID          string
	Group       string
	Metadata    string
	StartTimeMs uint32
	EndTimeMs   uint32
	Payload     []byte
}

// Writer streams a replay container to an io.Writer.
type Writer struct {
	out    io.Writer
	meta   Meta
	file   *os.File // set by Create
	closed bool
}

// NewWriter writes the meta record to out and returns a Writer for the chunks.
func NewWriter(out io.Writer, meta Meta) (*Writer, error) {
	if meta.Magic == 0 {
		meta.Magic = FileMagic
	}
	var b Buf
	b.U32(meta.Magic)
	b.U32(meta.FileVersion)
	b.U32(meta.LengthInMs)
	b.U32(meta.NetworkVersion)
	b.U32(meta.Changelist)
	b.Str(meta.FriendlyName)
	b.Bool(meta.IsLive)
	if meta.FileVersion >= 3 {
		b.U64(meta.Timestamp)
	}
	if meta.FileVersion >= 2 {
		b.Bool(meta.IsCompressed)
	}
	if meta.FileVersion >= 6 {
		b.Bool(meta.IsEncrypted)
		b.U32(uint32(len(meta.Key)))
		b.Raw(meta.Key)
	}
	if _, err := out.Write(b.Bytes()); err != nil {
		return nil, fmt.Errorf("write meta: %w", err)
	}
	return &Writer{out: out, meta: meta}, nil
}

// Create opens/creates a file at path and returns a Writer that owns it.
// Close also closes the file.
func Create(path string, meta Meta) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, meta)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// WriteChunk writes one chunk frame with an explicit payload.
func (w *Writer) WriteChunk(typ uint32, payload []byte) error {
	return w.WriteChunkSized(typ, int32(len(payload)), payload)
}

// WriteChunkSized writes a chunk frame whose size field may disagree with
// the payload length.
func (w *Writer) WriteChunkSized(typ uint32, size int32, payload []byte) error {
	if w.closed {
		return fmt.Errorf("replaytest: writer closed")
	}
	var b Buf
	b.U32(typ)
	b.I32(size)
	b.Raw(payload)
	_, err := w.out.Write(b.Bytes())
	return err
}

// WriteHeader writes a HEADER chunk.
func (w *Writer) WriteHeader(h Header) error {
	return w.WriteChunk(ChunkHeader, EncodeHeader(h))
}

// WriteEvent writes an EVENT chunk, encrypting the payload when the meta
// record is flagged as encrypted.
func (w *Writer) WriteEvent(e Event) error {
	payload := e.Payload
	if w.meta.IsEncrypted {
		enc, err := EncryptECB(w.meta.Key, payload)
		if err != nil {
			return err
		}
		payload = enc
	}
	var b Buf
	b.Str(e.ID)
	b.Str(e.Group)
	b.Str(e.Metadata)
	b.U32(e.StartTimeMs)
	b.U32(e.EndTimeMs)
	b.U32(uint32(len(payload)))
	b.Raw(payload)
	return w.WriteChunk(ChunkEvent, b.Bytes())
}

// Close closes the underlying file when the Writer owns one.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// EncodeHeader returns the payload of a HEADER chunk.
func EncodeHeader(h Header) []byte {
	if h.Magic == 0 {
		h.Magic = HeaderMagic
	}
	var b Buf
	b.U32(h.Magic)
	b.U32(h.NetworkVersion)
	b.U32(h.NetworkChecksum)
	b.U32(h.EngineNetworkVersion)
	b.U32(h.GameNetworkProtocol)
	if h.NetworkVersion > 11 {
		b.Raw(h.GUID[:])
	}
	b.U16(h.Major)
	b.U16(h.Minor)
	b.U16(h.Patch)
	b.U32(h.Changelist)
	b.Str(h.Branch)
	b.U32(uint32(len(h.Levels)))
	for _, l := range h.Levels {
		b.Str(l.Name)
		b.U32(l.TimeMs)
	}
	b.U32(h.Flags)
	b.U32(uint32(len(h.GameSpecificData)))
	for _, s := range h.GameSpecificData {
		b.Str(s)
	}
	return b.Bytes()
}

// EncryptECB zero-pads plain to the AES block size and encrypts each block
// independently with key.
func EncryptECB(key, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	padded := bytes.Clone(plain)
	if r := len(padded) % bs; r != 0 {
		padded = append(padded, make([]byte, bs-r)...)
	}
	out := make([]byte, len(padded))
	for off := 0; off < len(padded); off += bs {
		block.Encrypt(out[off:off+bs], padded[off:off+bs])
	}
	return out, nil
}
