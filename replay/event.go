package replay

import (
	"fmt"
	"math"
)

// Event group and metadata tags with a known payload.
const (
	GroupPlayerElimination = "playerElim"
	MetadataMatchStats     = "AthenaMatchStats"
	MetadataTeamStats      = "AthenaMatchTeamStats"
)

// Event is the envelope of an EVENT chunk.
type Event struct {
	ID          string
	Group       string
	Metadata    string
	StartTimeMs uint32
	EndTimeMs   uint32
	Size        uint32
}

// MatchStats are the end of match statistics of the recording player.
type MatchStats struct {
	Unknown           uint32 `json:"unknown" yaml:"unknown"`
	Accuracy          int    `json:"accuracy" yaml:"accuracy"` // percent
	Assists           uint32 `json:"assists" yaml:"assists"`
	Eliminations      uint32 `json:"eliminations" yaml:"eliminations"`
	WeaponDamage      uint32 `json:"weaponDamage" yaml:"weaponDamage"`
	OtherDamage       uint32 `json:"otherDamage" yaml:"otherDamage"`
	Revives           uint32 `json:"revives" yaml:"revives"`
	DamageTaken       uint32 `json:"damageTaken" yaml:"damageTaken"`
	DamageStructures  uint32 `json:"damageStructures" yaml:"damageStructures"`
	MaterialsGathered uint32 `json:"materialsGathered" yaml:"materialsGathered"`
	MaterialsUsed     uint32 `json:"materialsUsed" yaml:"materialsUsed"`
	TotalTraveled     uint32 `json:"totalTraveled" yaml:"totalTraveled"` // kilometers
}

// TeamStats hold the final placement of the recording player's team.
type TeamStats struct {
	Unknown      uint32 `json:"unknown" yaml:"unknown"`
	Position     uint32 `json:"position" yaml:"position"`
	TotalPlayers uint32 `json:"totalPlayers" yaml:"totalPlayers"`
}

func parseEventEnvelope(c *Cursor) (Event, error) {
	var ev Event
	var err error
	if ev.ID, err = c.FString(); err != nil {
		return ev, fmt.Errorf("event id: %w", err)
	}
	if ev.Group, err = c.FString(); err != nil {
		return ev, fmt.Errorf("event group: %w", err)
	}
	if ev.Metadata, err = c.FString(); err != nil {
		return ev, fmt.Errorf("event metadata: %w", err)
	}
	if ev.StartTimeMs, err = c.Uint32(); err != nil {
		return ev, err
	}
	if ev.EndTimeMs, err = c.Uint32(); err != nil {
		return ev, err
	}
	if ev.Size, err = c.Uint32(); err != nil {
		return ev, err
	}
	return ev, nil
}

// accuracyPercent truncates a 0..1 fraction to a whole percentage.
func accuracyPercent(fraction float32) int {
	return int(float32(fraction * 100))
}

// travelKilometers converts the traveled distance (centimeters) to kilometers,
// rounding half to even.
func travelKilometers(cm uint32) uint32 {
	return uint32(math.RoundToEven(float64(cm) / 100000))
}

func parseMatchStats(c *Cursor) (*MatchStats, error) {
	s := &MatchStats{}
	var err error
	if s.Unknown, err = c.Uint32(); err != nil {
		return nil, err
	}
	accuracy, err := c.Float32()
	if err != nil {
		return nil, err
	}
	s.Accuracy = accuracyPercent(accuracy)
	for _, f := range []*uint32{
		&s.Assists, &s.Eliminations, &s.WeaponDamage, &s.OtherDamage, &s.Revives,
		&s.DamageTaken, &s.DamageStructures, &s.MaterialsGathered, &s.MaterialsUsed,
	} {
		if *f, err = c.Uint32(); err != nil {
			return nil, err
		}
	}
	traveled, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	s.TotalTraveled = travelKilometers(traveled)
	return s, nil
}

func parseTeamStats(c *Cursor) (*TeamStats, error) {
	s := &TeamStats{}
	var err error
	for _, f := range []*uint32{&s.Unknown, &s.Position, &s.TotalPlayers} {
		if *f, err = c.Uint32(); err != nil {
			return nil, err
		}
	}
	return s, nil
}
