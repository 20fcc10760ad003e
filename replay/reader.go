package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ChunkType identifies the payload of a chunk.
type ChunkType uint32

const (
	ChunkHeader     ChunkType = 0
	ChunkReplayData ChunkType = 1
	ChunkCheckpoint ChunkType = 2
	ChunkEvent      ChunkType = 3
)

func (t ChunkType) String() string {
	switch t {
	case ChunkHeader:
		return "HEADER"
	case ChunkReplayData:
		return "REPLAYDATA"
	case ChunkCheckpoint:
		return "CHECKPOINT"
	case ChunkEvent:
		return "EVENT"
	}
	return fmt.Sprintf("ChunkType(%d)", uint32(t))
}

func (t ChunkType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// chunkHeaderSize is the size of [type:u32][size:i32].
const chunkHeaderSize = 8

// ChunkInfo records where a chunk was found in the stream.
type ChunkInfo struct {
	Type   ChunkType `json:"type" yaml:"type"`
	Offset int       `json:"offset" yaml:"offset"` // first payload byte
	Size   int       `json:"size" yaml:"size"`
}

// Replay is everything decoded from one replay file.
// Header, Stats and TeamStats are nil when the replay has no such chunk.
type Replay struct {
	Size         int           `json:"size" yaml:"size"`
	Meta         *Meta         `json:"meta" yaml:"meta"`
	Header       *Header       `json:"header,omitempty" yaml:"header,omitempty"`
	Eliminations []Elimination `json:"eliminations" yaml:"eliminations"`
	Stats        *MatchStats   `json:"stats,omitempty" yaml:"stats,omitempty"`
	TeamStats    *TeamStats    `json:"teamStats,omitempty" yaml:"teamStats,omitempty"`
	Chunks       []ChunkInfo   `json:"chunks" yaml:"chunks"`
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) { d.log = l }
}

// Decoder is a single decode session over an in-memory replay.
type Decoder struct {
	c      *Cursor
	log    zerolog.Logger
	source payloadSource
	replay *Replay
}

// NewDecoder prepares a session over buf. buf must not be modified while
// the session runs; decoded records do not retain it.
func NewDecoder(buf []byte, opts ...Option) *Decoder {
	d := &Decoder{
		c:   NewCursor(buf),
		log: log.Logger.With().Str("component", "replay").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode runs the session to completion.
func (d *Decoder) Decode() (*Replay, error) {
	d.replay = &Replay{Size: d.c.Len()}

	meta, err := parseMeta(d.c)
	if err != nil {
		return nil, stageError(StageMeta, d.c.Pos(), err)
	}
	d.replay.Meta = meta
	if d.source, err = newPayloadSource(meta); err != nil {
		return nil, stageError(StageMeta, d.c.Pos(), err)
	}
	d.log.Debug().
		Uint32("fileVersion", meta.FileVersion).
		Uint32("networkVersion", meta.NetworkVersion).
		Bool("encrypted", meta.IsEncrypted).
		Str("name", meta.FriendlyName).
		Msg("parsed meta")

	if err := d.parseChunks(); err != nil {
		return nil, err
	}
	return d.replay, nil
}

func (d *Decoder) parseChunks() error {
	for d.c.Remaining() > 0 {
		start := d.c.Pos()
		if d.c.Remaining() < chunkHeaderSize {
			return stageError(StageChunk, start, fmt.Errorf("%d trailing bytes: %w", d.c.Remaining(), ErrTruncatedStream))
		}
		typ, _ := d.c.Uint32()
		size, _ := d.c.Int32()
		frameStart := d.c.Pos()
		if size < 0 {
			return stageError(StageChunk, start, fmt.Errorf("negative chunk size %d: %w", size, ErrInvalidContainer))
		}
		frameEnd := frameStart + int(size)
		if frameEnd > d.c.Len() {
			return stageError(StageChunk, start, fmt.Errorf("%s chunk of %d bytes with %d left: %w", ChunkType(typ), size, d.c.Remaining(), ErrTruncatedStream))
		}

		info := ChunkInfo{Type: ChunkType(typ), Offset: frameStart, Size: int(size)}
		d.replay.Chunks = append(d.replay.Chunks, info)
		d.log.Debug().Stringer("type", info.Type).Int("offset", frameStart).Int("size", info.Size).Msg("chunk")

		switch info.Type {
		case ChunkHeader:
			h, err := parseHeader(d.c)
			if err != nil {
				return stageError(StageHeader, frameStart, err)
			}
			d.replay.Header = h
		case ChunkEvent:
			if err := d.parseEvent(frameStart); err != nil {
				return err
			}
		case ChunkReplayData, ChunkCheckpoint:
			// Not decoded.
		default:
			d.log.Debug().Uint32("type", typ).Msg("skipping unknown chunk type")
		}

		if err := d.c.SetPos(frameEnd); err != nil {
			return stageError(StageChunk, start, err)
		}
	}
	return nil
}

func (d *Decoder) parseEvent(frameStart int) error {
	ev, err := parseEventEnvelope(d.c)
	if err != nil {
		return stageError(StageEvent, frameStart, err)
	}
	payloadStart := d.c.Pos()
	p, err := d.source.payload(d.c, int(ev.Size))
	if err != nil {
		return stageError(StageEvent, payloadStart, fmt.Errorf("event %q payload: %w", ev.ID, err))
	}
	payload := p.buf

	if ev.Group == GroupPlayerElimination {
		elim, err := parseElimination(NewCursor(payload), d.replay.Header, ev.StartTimeMs)
		if err != nil {
			d.log.Error().Err(err).Str("event", ev.ID).Int("offset", payloadStart).Msg("could not parse player elimination")
		} else {
			d.replay.Eliminations = append(d.replay.Eliminations, elim)
			d.log.Debug().Str("event", ev.ID).Stringer("elimination", elim).Send()
		}
	}
	if ev.Metadata == MetadataMatchStats {
		s, err := parseMatchStats(NewCursor(payload))
		if err != nil {
			return stageError(StageStats, payloadStart, err)
		}
		d.replay.Stats = s
	}
	if ev.Metadata == MetadataTeamStats {
		s, err := parseTeamStats(NewCursor(payload))
		if err != nil {
			return stageError(StageTeamStats, payloadStart, err)
		}
		d.replay.TeamStats = s
	}
	return nil
}

// Decode decodes a replay held in memory.
func Decode(buf []byte, opts ...Option) (*Replay, error) {
	return NewDecoder(buf, opts...).Decode()
}

// Read reads r to the end and decodes it. zstd and gzip wrapped replays are
// unwrapped first.
func Read(r io.Reader, opts ...Option) (*Replay, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	data, err = unwrap(data, "")
	if err != nil {
		return nil, err
	}
	return Decode(data, opts...)
}

// Open reads and decodes the replay at path. Besides plain .replay files it
// accepts zstd, gzip and brotli (.br) wrapped copies.
func Open(path string, opts ...Option) (*Replay, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	data, err = unwrap(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Decode(data, opts...)
}

// maxReplaySize bounds the decompressed size of a wrapped replay.
const maxReplaySize = 1 << 30

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// zstdDec is shared; DecodeAll is safe for concurrent use.
var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(maxReplaySize),
	)
	if err != nil {
		panic("replay: init zstd decoder: " + err.Error())
	}
}

var errTooLarge = errors.New("decompressed replay exceeds size limit")

func unwrap(data []byte, path string) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		out, err := zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress zstd: %w", err)
		}
		return out, nil
	case bytes.HasPrefix(data, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer func() { _ = zr.Close() }()
		return readLimited(zr, "gzip")
	case strings.EqualFold(filepath.Ext(path), ".br"):
		return readLimited(brotli.NewReader(bytes.NewReader(data)), "brotli")
	}
	return data, nil
}

func readLimited(r io.Reader, codec string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxReplaySize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", codec, err)
	}
	if len(out) > maxReplaySize {
		return nil, errTooLarge
	}
	return out, nil
}
