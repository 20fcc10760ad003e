package replay

// Player identifies one side of an elimination. It is one of Bot, NamedBot
// or RealPlayer.
type Player interface {
	Name() string
	ID() string
	IsPlayer() bool
	player()
}

// Bot is an AI opponent without a display name.
type Bot struct{}

func (Bot) Name() string   { return "Bot" }
func (Bot) ID() string     { return "" }
func (Bot) IsPlayer() bool { return false }
func (Bot) player()        {}

// NamedBot is an AI opponent carrying a display name.
type NamedBot struct {
	DisplayName string
}

func (b NamedBot) Name() string { return b.DisplayName }
func (NamedBot) ID() string     { return "" }
func (NamedBot) IsPlayer() bool { return false }
func (NamedBot) player()        {}

// RealPlayer is a human player. Older replays identify players by display
// name only; newer ones by account id only.
type RealPlayer struct {
	DisplayName string
	AccountID   string
}

func (p RealPlayer) Name() string { return p.DisplayName }
func (p RealPlayer) ID() string   { return p.AccountID }
func (RealPlayer) IsPlayer() bool { return true }
func (RealPlayer) player()        {}

// Player type tags of the structured player record.
const (
	playerTypeBot      = 0x03
	playerTypeNamedBot = 0x10
)

func readPlayer(c *Cursor) (Player, error) {
	kind, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case playerTypeBot:
		return Bot{}, nil
	case playerTypeNamedBot:
		name, err := c.FString()
		if err != nil {
			return nil, err
		}
		return NamedBot{DisplayName: name}, nil
	default:
		// Size byte of the id that follows; always a GUID.
		if err := c.Skip(1); err != nil {
			return nil, err
		}
		g, err := c.GUID()
		if err != nil {
			return nil, err
		}
		return RealPlayer{AccountID: g.String()}, nil
	}
}

// playerLabel prefers the display name and falls back to the id.
func playerLabel(p Player) string {
	if p == nil {
		return ""
	}
	if n := p.Name(); n != "" {
		return n
	}
	return p.ID()
}
