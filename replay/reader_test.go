package replay

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/reallyoldfogie/fortnite-replay-go/internal/replaytest"
)

var testMeta = replaytest.Meta{
	FileVersion:    replaytest.CurrentFileVersion,
	LengthInMs:     1_200_000,
	NetworkVersion: 2,
	Changelist:     4532893,
	FriendlyName:   "Unsaved Replay",
	Timestamp:      testTicks,
}

var season4Header = replaytest.Header{
	NetworkVersion:       6,
	EngineNetworkVersion: 3,
	Major:                4,
	Minor:                20,
	Changelist:           4532893,
	Branch:               "++Fortnite+Release-4.0",
}

var season4Stats = replaytest.MatchStats{
	Accuracy:          0.22,
	Assists:           4,
	Eliminations:      3,
	WeaponDamage:      753,
	OtherDamage:       119,
	DamageTaken:       839,
	DamageStructures:  43504,
	MaterialsGathered: 2063,
	MaterialsUsed:     710,
	TotalTraveled:     400000,
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func buildReplay(t *testing.T, meta replaytest.Meta, write func(w *replaytest.Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := replaytest.NewWriter(&buf, meta)
	must(t, err)
	write(w)
	must(t, w.Close())
	return buf.Bytes()
}

func quiet() Option { return WithLogger(zerolog.Nop()) }

func TestDecodeMatchAndTeamStats(t *testing.T) {
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(season4Header))
		must(t, w.WriteEvent(replaytest.Event{ID: "stats", Group: "AthenaReplayBrowserEvents", Metadata: MetadataMatchStats, Payload: season4Stats.Encode()}))
		must(t, w.WriteEvent(replaytest.Event{ID: "team", Group: "AthenaReplayBrowserEvents", Metadata: MetadataTeamStats, Payload: replaytest.TeamStats{Position: 2, TotalPlayers: 96}.Encode()}))
	})

	r, err := Decode(buf, quiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStats := MatchStats{
		Accuracy:          22,
		Assists:           4,
		Eliminations:      3,
		WeaponDamage:      753,
		OtherDamage:       119,
		Revives:           0,
		DamageTaken:       839,
		DamageStructures:  43504,
		MaterialsGathered: 2063,
		MaterialsUsed:     710,
		TotalTraveled:     4,
	}
	if r.Stats == nil || *r.Stats != wantStats {
		t.Errorf("expected stats %+v, got %+v", wantStats, r.Stats)
	}
	wantTeam := TeamStats{Unknown: 0, Position: 2, TotalPlayers: 96}
	if r.TeamStats == nil || *r.TeamStats != wantTeam {
		t.Errorf("expected team stats %+v, got %+v", wantTeam, r.TeamStats)
	}
	if r.Header == nil || r.Header.Branch != "++Fortnite+Release-4.0" {
		t.Errorf("expected header with 4.0 branch, got %+v", r.Header)
	}
	if len(r.Chunks) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(r.Chunks))
	}
	if r.Size != len(buf) {
		t.Errorf("expected size %d, got %d", len(buf), r.Size)
	}
}

func TestStatsTransforms(t *testing.T) {
	if got := accuracyPercent(0.22); got != 22 {
		t.Errorf("expected accuracy 22, got %d", got)
	}
	if got := accuracyPercent(0.999); got != 99 {
		t.Errorf("expected accuracy 99, got %d", got)
	}
	tests := []struct{ in, want uint32 }{
		{400000, 4},
		{449999, 4},
		{450001, 5},
		{250000, 2},
		{0, 0},
	}
	for _, tt := range tests {
		if got := travelKilometers(tt.in); got != tt.want {
			t.Errorf("traveled %d: expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestDecodeStatsLastWriteWins(t *testing.T) {
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(season4Header))
		must(t, w.WriteEvent(replaytest.Event{ID: "t1", Metadata: MetadataTeamStats, Payload: replaytest.TeamStats{Position: 10, TotalPlayers: 100}.Encode()}))
		must(t, w.WriteEvent(replaytest.Event{ID: "t2", Metadata: MetadataTeamStats, Payload: replaytest.TeamStats{Position: 1, TotalPlayers: 99}.Encode()}))
	})
	r, err := Decode(buf, quiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TeamStats == nil || r.TeamStats.Position != 1 || r.TeamStats.TotalPlayers != 99 {
		t.Errorf("expected last team stats to win, got %+v", r.TeamStats)
	}
}

func TestDecodeFramingIsAuthoritative(t *testing.T) {
	hdr := replaytest.EncodeHeader(season4Header)
	padded := append(bytes.Clone(hdr), make([]byte, 23)...)

	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		// Parser consumes fewer bytes than the frame.
		must(t, w.WriteChunk(replaytest.ChunkHeader, padded))
		// Opaque chunks are skipped whole.
		must(t, w.WriteChunk(replaytest.ChunkCheckpoint, []byte("checkpoint-data")))
		must(t, w.WriteChunk(replaytest.ChunkReplayData, make([]byte, 64)))
		must(t, w.WriteChunk(99, []byte{1, 2, 3}))
		// Event payload longer than the frame: the parser reads into the
		// next chunk, framing pulls the cursor back.
		var ev replaytest.Buf
		ev.Str("elim")
		ev.Str("other")
		ev.Str("other")
		ev.U32(0)
		ev.U32(0)
		ev.U32(12)
		ev.Zero(4)
		must(t, w.WriteChunk(replaytest.ChunkEvent, ev.Bytes()))
		must(t, w.WriteEvent(replaytest.Event{ID: "team", Metadata: MetadataTeamStats, Payload: replaytest.TeamStats{Position: 7, TotalPlayers: 50}.Encode()}))
	})

	r, err := Decode(buf, quiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Header == nil || r.Header.Branch != season4Header.Branch {
		t.Fatalf("expected header, got %+v", r.Header)
	}
	if r.TeamStats == nil || r.TeamStats.Position != 7 {
		t.Errorf("expected team stats after overlong event, got %+v", r.TeamStats)
	}

	wantTypes := []ChunkType{ChunkHeader, ChunkCheckpoint, ChunkReplayData, ChunkType(99), ChunkEvent, ChunkEvent}
	if len(r.Chunks) != len(wantTypes) {
		t.Fatalf("expected %d chunks, got %d", len(wantTypes), len(r.Chunks))
	}
	metaLen := len(encodeMeta(t, testMeta))
	next := metaLen
	for i, c := range r.Chunks {
		if c.Type != wantTypes[i] {
			t.Errorf("chunk %d: expected %s, got %s", i, wantTypes[i], c.Type)
		}
		if c.Offset != next+chunkHeaderSize {
			t.Errorf("chunk %d: expected payload at %d, got %d", i, next+chunkHeaderSize, c.Offset)
		}
		next = c.Offset + c.Size
	}
	if next != len(buf) {
		t.Errorf("expected last frame to end at %d, got %d", len(buf), next)
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(season4Header))
	})

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"dangling chunk header", append(bytes.Clone(full), 0, 0, 0), ErrTruncatedStream},
		{"short frame", full[:len(full)-1], ErrTruncatedStream},
		{"meta only cut", full[:10], ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf, quiet())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodeNegativeChunkSize(t *testing.T) {
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteChunkSized(replaytest.ChunkEvent, -4, nil))
	})
	_, err := Decode(buf, quiet())
	if !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer, got %v", err)
	}
}

func TestDecodeErrorStage(t *testing.T) {
	bad := season4Header
	bad.Magic = 1
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(bad))
	})
	_, err := Decode(buf, quiet())

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Stage != StageHeader {
		t.Errorf("expected stage %s, got %s", StageHeader, de.Stage)
	}
	if !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer, got %v", err)
	}

	_, err = Decode([]byte{1, 2, 3, 4}, quiet())
	if !errors.As(err, &de) || de.Stage != StageMeta || !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected meta stage ErrInvalidContainer, got %v", err)
	}
}

func TestDecodeEliminations(t *testing.T) {
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(season4Header))
		must(t, w.WriteEvent(replaytest.Event{ID: "e1", Group: GroupPlayerElimination, StartTimeMs: 1000, Payload: replaytest.NamedElimination(12, "a", "b", 4, true)}))
		// Truncated payload: dropped, decoding continues.
		must(t, w.WriteEvent(replaytest.Event{ID: "e2", Group: GroupPlayerElimination, StartTimeMs: 2000, Payload: make([]byte, 14)}))
		must(t, w.WriteEvent(replaytest.Event{ID: "e3", Group: GroupPlayerElimination, StartTimeMs: 3000, Payload: replaytest.NamedElimination(12, "b", "c", 200, false)}))
	})

	r, err := Decode(buf, quiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Eliminations) != 2 {
		t.Fatalf("expected 2 eliminations, got %d", len(r.Eliminations))
	}
	first, second := r.Eliminations[0], r.Eliminations[1]
	if first.Eliminated.Name() != "a" || first.Weapon != WeaponAR || !first.Knocked {
		t.Errorf("unexpected first elimination: %s", first)
	}
	if second.Eliminated.Name() != "b" || second.Weapon != WeaponUnknown || second.Knocked {
		t.Errorf("unexpected second elimination: %s", second)
	}
	if second.Time.UnixMilli() != 3000 {
		t.Errorf("expected second elimination at 3000ms, got %d", second.Time.UnixMilli())
	}
}

func TestDecodeEliminationUnsupportedVersionIsNotFatal(t *testing.T) {
	old := season4Header
	old.Branch = "++Fortnite+Release-3.5"
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(old))
		must(t, w.WriteEvent(replaytest.Event{ID: "e1", Group: GroupPlayerElimination, Payload: replaytest.NamedElimination(12, "a", "b", 4, true)}))
	})
	r, err := Decode(buf, quiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Eliminations) != 0 {
		t.Errorf("expected elimination to be dropped, got %d", len(r.Eliminations))
	}
}

func TestDecodeStatsErrorIsFatal(t *testing.T) {
	buf := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(season4Header))
		must(t, w.WriteEvent(replaytest.Event{ID: "stats", Metadata: MetadataMatchStats, Payload: make([]byte, 20)}))
	})
	_, err := Decode(buf, quiet())
	var de *DecodeError
	if !errors.As(err, &de) || de.Stage != StageStats {
		t.Fatalf("expected stats stage error, got %v", err)
	}
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestDecodeEncrypted(t *testing.T) {
	meta := testMeta
	meta.IsEncrypted = true
	meta.Key = testKey

	header := season9Header
	buf := buildReplay(t, meta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(header))
		must(t, w.WriteEvent(replaytest.Event{
			ID:          "elim",
			Group:       GroupPlayerElimination,
			StartTimeMs: 5000,
			Payload:     replaytest.StructuredElimination(replaytest.Player{Type: 0x03}, replaytest.Player{Type: 0x10, Name: "Raven"}, 7, false),
		}))
		must(t, w.WriteEvent(replaytest.Event{ID: "stats", Metadata: MetadataMatchStats, Payload: season4Stats.Encode()}))
	})

	r, err := Decode(buf, quiet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Eliminations) != 1 {
		t.Fatalf("expected 1 elimination, got %d", len(r.Eliminations))
	}
	e := r.Eliminations[0]
	if e.Eliminated != (Bot{}) || e.Eliminator != (NamedBot{DisplayName: "Raven"}) || e.Weapon != WeaponPickaxe {
		t.Errorf("unexpected elimination: %s", e)
	}
	if r.Stats == nil || r.Stats.Accuracy != 22 || r.Stats.TotalTraveled != 4 {
		t.Errorf("unexpected stats: %+v", r.Stats)
	}
}

func TestOpenWrapped(t *testing.T) {
	plain := buildReplay(t, testMeta, func(w *replaytest.Writer) {
		must(t, w.WriteHeader(season4Header))
		must(t, w.WriteEvent(replaytest.Event{ID: "team", Metadata: MetadataTeamStats, Payload: replaytest.TeamStats{Position: 2, TotalPlayers: 96}.Encode()}))
	})

	enc, err := zstd.NewWriter(nil)
	must(t, err)
	zstdData := enc.EncodeAll(plain, nil)
	must(t, enc.Close())

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err = gw.Write(plain)
	must(t, err)
	must(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write(plain)
	must(t, err)
	must(t, bw.Close())

	dir := t.TempDir()
	files := map[string][]byte{
		"plain.replay":     plain,
		"match.replay.zst": zstdData,
		"match.replay.gz":  gz.Bytes(),
		"match.replay.br":  br.Bytes(),
	}
	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			must(t, os.WriteFile(path, data, 0o644))
			r, err := Open(path, quiet())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.TeamStats == nil || r.TeamStats.TotalPlayers != 96 {
				t.Errorf("expected team stats, got %+v", r.TeamStats)
			}
		})
	}
}

func TestReadAndOpenAgree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "match.replay")
	w, err := replaytest.Create(path, testMeta)
	must(t, err)
	must(t, w.WriteHeader(season4Header))
	must(t, w.WriteEvent(replaytest.Event{ID: "stats", Metadata: MetadataMatchStats, Payload: season4Stats.Encode()}))
	must(t, w.Close())

	fromPath, err := Open(path, quiet())
	must(t, err)

	f, err := os.Open(path)
	must(t, err)
	defer f.Close()
	fromReader, err := Read(f, quiet())
	must(t, err)

	if *fromPath.Stats != *fromReader.Stats {
		t.Errorf("expected equal stats, got %+v and %+v", fromPath.Stats, fromReader.Stats)
	}
	if fromPath.Meta.FriendlyName != "Unsaved Replay" {
		t.Errorf("expected friendly name, got %q", fromPath.Meta.FriendlyName)
	}

	if _, err := Open(filepath.Join(dir, "missing.replay"), quiet()); err == nil {
		t.Error("expected error for missing file")
	}
}
