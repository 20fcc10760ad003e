package replay

import (
	"fmt"
	"time"
)

// Elimination is one knock or finish reported by a playerElim event.
type Elimination struct {
	Eliminated Player    `json:"-" yaml:"-"`
	Eliminator Player    `json:"-" yaml:"-"`
	Cause      uint8     `json:"cause" yaml:"cause"`
	Weapon     Weapon    `json:"weapon" yaml:"weapon"`
	Time       time.Time `json:"time" yaml:"time"`
	Knocked    bool      `json:"knocked" yaml:"knocked"`
}

func (e Elimination) String() string {
	event := "eliminated"
	if e.Knocked {
		event = "knocked"
	}
	return fmt.Sprintf("%s got %s by %s with %s", playerLabel(e.Eliminated), event, playerLabel(e.Eliminator), e.Weapon)
}

// eliminationLayout describes how the players are laid out in a playerElim
// payload for the replays it matches.
type eliminationLayout struct {
	name    string
	matches func(h *Header) bool
	players func(c *Cursor) (eliminated, eliminator Player, err error)
}

// eliminationLayouts is evaluated top-down; the first match wins.
// New game releases are supported by adding an entry here.
var eliminationLayouts = []eliminationLayout{
	{
		name: "structured",
		matches: func(h *Header) bool {
			return h.EngineNetworkVersion >= 11 && h.Release.Major >= 9
		},
		players: skipThen(85, readPlayer),
	},
	{
		name:    "release-4.0",
		matches: branchIs("++Fortnite+Release-4.0"),
		players: skipThen(12, readNamedPlayer),
	},
	{
		name:    "release-4.2",
		matches: branchIs("++Fortnite+Release-4.2"),
		players: skipThen(40, readNamedPlayer),
	},
	{
		name: "release-4.3+",
		matches: func(h *Header) bool {
			return h.Branch >= "++Fortnite+Release-4.3"
		},
		players: skipThen(45, readNamedPlayer),
	},
	{
		name:    "main",
		matches: branchIs("++Fortnite+Main"),
		players: skipThen(45, readNamedPlayer),
	},
}

func branchIs(branch string) func(h *Header) bool {
	return func(h *Header) bool { return h.Branch == branch }
}

func skipThen(n int, read func(*Cursor) (Player, error)) func(*Cursor) (Player, Player, error) {
	return func(c *Cursor) (Player, Player, error) {
		if err := c.Skip(n); err != nil {
			return nil, nil, err
		}
		eliminated, err := read(c)
		if err != nil {
			return nil, nil, fmt.Errorf("eliminated: %w", err)
		}
		eliminator, err := read(c)
		if err != nil {
			return nil, nil, fmt.Errorf("eliminator: %w", err)
		}
		return eliminated, eliminator, nil
	}
}

func readNamedPlayer(c *Cursor) (Player, error) {
	name, err := c.FString()
	if err != nil {
		return nil, err
	}
	return RealPlayer{DisplayName: name}, nil
}

func findEliminationLayout(h *Header) (eliminationLayout, bool) {
	if h == nil {
		return eliminationLayout{}, false
	}
	for _, l := range eliminationLayouts {
		if l.matches(h) {
			return l, true
		}
	}
	return eliminationLayout{}, false
}

func parseElimination(c *Cursor, h *Header, startMs uint32) (Elimination, error) {
	layout, ok := findEliminationLayout(h)
	if !ok {
		branch := ""
		if h != nil {
			branch = h.Branch
		}
		return Elimination{}, fmt.Errorf("branch %q: %w", branch, ErrUnsupportedReplayVersion)
	}
	eliminated, eliminator, err := layout.players(c)
	if err != nil {
		return Elimination{}, fmt.Errorf("%s layout: %w", layout.name, err)
	}
	cause, err := c.Uint8()
	if err != nil {
		return Elimination{}, err
	}
	knocked, err := c.Uint32()
	if err != nil {
		return Elimination{}, err
	}
	return Elimination{
		Eliminated: eliminated,
		Eliminator: eliminator,
		Cause:      cause,
		Weapon:     WeaponFromCode(cause),
		Time:       time.UnixMilli(int64(startMs)).UTC(),
		Knocked:    knocked != 0,
	}, nil
}
