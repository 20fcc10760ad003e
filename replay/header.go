package replay

import (
	"fmt"
	"regexp"
	"strconv"
)

// HeaderMagic opens the payload of the HEADER chunk.
const HeaderMagic = 0x2CF5A13D

// Header network versions above this value carry a GUID.
const headerGUIDVersion = 11

var releasePattern = regexp.MustCompile(`Release-(\d+)\.(\d+)`)

// Release is the game version parsed from the branch string.
// It is zero when the branch does not name a release.
type Release struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
}

func (r Release) String() string { return fmt.Sprintf("%d.%d", r.Major, r.Minor) }

// ParseRelease extracts the version from a branch such as
// "++Fortnite+Release-9.10".
func ParseRelease(branch string) Release {
	m := releasePattern.FindStringSubmatch(branch)
	if m == nil {
		return Release{}
	}
	major, err1 := strconv.Atoi(m[1])
	minor, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return Release{}
	}
	return Release{Major: major, Minor: minor}
}

// LevelTime names a level and the replay time it was entered at.
type LevelTime struct {
	Name   string `json:"name" yaml:"name"`
	TimeMs uint32 `json:"timeMs" yaml:"timeMs"`
}

// Header is the decoded HEADER chunk.
type Header struct {
	NetworkVersion       uint32      `json:"networkVersion" yaml:"networkVersion"`
	NetworkChecksum      uint32      `json:"networkChecksum" yaml:"networkChecksum"`
	EngineNetworkVersion uint32      `json:"engineNetworkVersion" yaml:"engineNetworkVersion"`
	GameNetworkProtocol  uint32      `json:"gameNetworkProtocol" yaml:"gameNetworkProtocol"`
	GUID                 *GUID       `json:"guid,omitempty" yaml:"guid,omitempty"`
	Major                uint16      `json:"major" yaml:"major"`
	Minor                uint16      `json:"minor" yaml:"minor"`
	Patch                uint16      `json:"patch" yaml:"patch"`
	Changelist           uint32      `json:"changelist" yaml:"changelist"`
	Branch               string      `json:"branch" yaml:"branch"`
	Release              Release     `json:"release" yaml:"release"`
	Levels               []LevelTime `json:"levels" yaml:"levels"`
	Flags                uint32      `json:"flags" yaml:"flags"`
	GameSpecificData     []string    `json:"gameSpecificData" yaml:"gameSpecificData"`
}

func parseHeader(c *Cursor) (*Header, error) {
	magic, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	if magic != HeaderMagic {
		return nil, fmt.Errorf("header magic 0x%08X: %w", magic, ErrInvalidContainer)
	}

	h := &Header{}
	for _, f := range []*uint32{&h.NetworkVersion, &h.NetworkChecksum, &h.EngineNetworkVersion, &h.GameNetworkProtocol} {
		if *f, err = c.Uint32(); err != nil {
			return nil, err
		}
	}
	if h.NetworkVersion > headerGUIDVersion {
		g, err := c.GUID()
		if err != nil {
			return nil, err
		}
		h.GUID = &g
	}
	for _, f := range []*uint16{&h.Major, &h.Minor, &h.Patch} {
		if *f, err = c.Uint16(); err != nil {
			return nil, err
		}
	}
	if h.Changelist, err = c.Uint32(); err != nil {
		return nil, err
	}
	if h.Branch, err = c.FString(); err != nil {
		return nil, fmt.Errorf("branch: %w", err)
	}
	h.Release = ParseRelease(h.Branch)

	levels, err := ReadTupleArray(c, readString, readUint32)
	if err != nil {
		return nil, fmt.Errorf("levels: %w", err)
	}
	h.Levels = make([]LevelTime, len(levels))
	for i, l := range levels {
		h.Levels[i] = LevelTime{Name: l.First, TimeMs: l.Second}
	}
	if h.Flags, err = c.Uint32(); err != nil {
		return nil, err
	}
	if h.GameSpecificData, err = ReadArray(c, readString); err != nil {
		return nil, fmt.Errorf("game specific data: %w", err)
	}
	return h, nil
}
