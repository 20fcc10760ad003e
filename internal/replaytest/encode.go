package replaytest

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// Buf accumulates little-endian primitives.
type Buf struct {
	bytes.Buffer
}

func (b *Buf) U8(v uint8) { b.WriteByte(v) }

func (b *Buf) U16(v uint16) { b.Write(binary.LittleEndian.AppendUint16(nil, v)) }

func (b *Buf) U32(v uint32) { b.Write(binary.LittleEndian.AppendUint32(nil, v)) }

func (b *Buf) I32(v int32) { b.U32(uint32(v)) }

func (b *Buf) U64(v uint64) { b.Write(binary.LittleEndian.AppendUint64(nil, v)) }

func (b *Buf) F32(v float32) { b.U32(math.Float32bits(v)) }

func (b *Buf) Bool(v bool) {
	if v {
		b.U32(1)
		return
	}
	b.U32(0)
}

func (b *Buf) Raw(p []byte) { b.Write(p) }

// Zero writes n zero bytes.
func (b *Buf) Zero(n int) { b.Write(make([]byte, n)) }

// Str writes s as a null-terminated narrow string; "" is written as a bare
// zero length.
func (b *Buf) Str(s string) {
	if s == "" {
		b.I32(0)
		return
	}
	b.I32(int32(len(s) + 1))
	b.WriteString(s)
	b.WriteByte(0)
}

// RawStr writes p with a positive length prefix and no terminator added.
func (b *Buf) RawStr(p []byte) {
	b.I32(int32(len(p)))
	b.Write(p)
}

// WideStr writes s as a null-terminated UTF-16LE string.
func (b *Buf) WideStr(s string) {
	units := utf16.Encode([]rune(s))
	b.I32(-int32(len(units) + 1))
	for _, u := range units {
		b.U16(u)
	}
	b.U16(0)
}

// MatchStats are the raw values of an AthenaMatchStats payload.
type MatchStats struct {
	Unknown           uint32
	Accuracy          float32
	Assists           uint32
	Eliminations      uint32
	WeaponDamage      uint32
	OtherDamage       uint32
	Revives           uint32
	DamageTaken       uint32
	DamageStructures  uint32
	MaterialsGathered uint32
	MaterialsUsed     uint32
	TotalTraveled     uint32
}

// Encode returns the event payload.
func (s MatchStats) Encode() []byte {
	var b Buf
	b.U32(s.Unknown)
	b.F32(s.Accuracy)
	for _, v := range []uint32{
		s.Assists, s.Eliminations, s.WeaponDamage, s.OtherDamage, s.Revives,
		s.DamageTaken, s.DamageStructures, s.MaterialsGathered, s.MaterialsUsed,
		s.TotalTraveled,
	} {
		b.U32(v)
	}
	return b.Bytes()
}

// TeamStats are the raw values of an AthenaMatchTeamStats payload.
type TeamStats struct {
	Unknown      uint32
	Position     uint32
	TotalPlayers uint32
}

// Encode returns the event payload.
func (s TeamStats) Encode() []byte {
	var b Buf
	b.U32(s.Unknown)
	b.U32(s.Position)
	b.U32(s.TotalPlayers)
	return b.Bytes()
}

// NamedElimination returns a playerElim payload of the name-based layout:
// skip filler bytes, two names, the cause byte and the knocked flag.
func NamedElimination(skip int, eliminated, eliminator string, cause uint8, knocked bool) []byte {
	var b Buf
	b.Zero(skip)
	b.Str(eliminated)
	b.Str(eliminator)
	b.U8(cause)
	b.Bool(knocked)
	return b.Bytes()
}

// Player is a structured player record.
type Player struct {
	Type uint8    // 0x03 bot, 0x10 named bot, anything else a real player
	Name string   // named bots
	GUID [16]byte // real players
}

func (p Player) encode(b *Buf) {
	b.U8(p.Type)
	switch p.Type {
	case 0x03:
	case 0x10:
		b.Str(p.Name)
	default:
		b.U8(16)
		b.Raw(p.GUID[:])
	}
}

// StructuredElimination returns a playerElim payload of the layout used from
// release 9: 85 filler bytes, two player records, cause byte, knocked flag.
func StructuredElimination(eliminated, eliminator Player, cause uint8, knocked bool) []byte {
	var b Buf
	b.Zero(85)
	eliminated.encode(&b)
	eliminator.encode(&b)
	b.U8(cause)
	b.Bool(knocked)
	return b.Bytes()
}
