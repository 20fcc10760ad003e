package replay

import (
	"fmt"
	"time"
)

// FileMagic opens every replay file.
const FileMagic = 0x1CA2E27F

// File format versions that changed the meta record layout.
const (
	HistoryInitial               = 0
	HistoryFixedSizeFriendlyName = 1
	HistoryCompression           = 2
	HistoryRecordedTimestamp     = 3
	HistoryStreamChunkTimes      = 4
	HistoryFriendlyNameEncoding  = 5
	HistoryEncryption            = 6
)

// Meta describes the fixed record in front of the chunk stream.
// Timestamp, IsCompressed and the encryption fields are only present in
// newer file versions and keep their zero value otherwise.
type Meta struct {
	FileVersion    uint32    `json:"fileVersion" yaml:"fileVersion"`
	LengthInMs     uint32    `json:"lengthInMs" yaml:"lengthInMs"`
	NetworkVersion uint32    `json:"networkVersion" yaml:"networkVersion"`
	Changelist     uint32    `json:"changelist" yaml:"changelist"`
	FriendlyName   string    `json:"friendlyName" yaml:"friendlyName"`
	IsLive         bool      `json:"isLive" yaml:"isLive"`
	Timestamp      time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`
	IsCompressed   bool      `json:"isCompressed" yaml:"isCompressed"`
	IsEncrypted    bool      `json:"isEncrypted" yaml:"isEncrypted"`
	EncryptionKey  []byte    `json:"-" yaml:"-"`
}

// Duration returns the recorded length of the match.
func (m *Meta) Duration() time.Duration {
	return time.Duration(m.LengthInMs) * time.Millisecond
}

// .NET ticks (100ns) between 0001-01-01 and the Unix epoch.
const ticksToUnixEpoch = 621355968000000000

func ticksToTime(ticks uint64) time.Time {
	if ticks < ticksToUnixEpoch {
		return time.Time{}
	}
	d := ticks - ticksToUnixEpoch
	return time.Unix(int64(d/10_000_000), int64(d%10_000_000)*100).UTC()
}

func parseMeta(c *Cursor) (*Meta, error) {
	magic, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	if magic != FileMagic {
		return nil, fmt.Errorf("magic 0x%08X: %w", magic, ErrInvalidContainer)
	}

	m := &Meta{}
	if m.FileVersion, err = c.Uint32(); err != nil {
		return nil, err
	}
	if m.LengthInMs, err = c.Uint32(); err != nil {
		return nil, err
	}
	if m.NetworkVersion, err = c.Uint32(); err != nil {
		return nil, err
	}
	if m.Changelist, err = c.Uint32(); err != nil {
		return nil, err
	}
	if m.FriendlyName, err = c.FString(); err != nil {
		return nil, fmt.Errorf("friendly name: %w", err)
	}
	if m.IsLive, err = c.Bool(); err != nil {
		return nil, err
	}

	if m.FileVersion >= HistoryRecordedTimestamp {
		ticks, err := c.Uint64()
		if err != nil {
			return nil, err
		}
		m.Timestamp = ticksToTime(ticks)
	}
	if m.FileVersion >= HistoryCompression {
		if m.IsCompressed, err = c.Bool(); err != nil {
			return nil, err
		}
	}
	if m.FileVersion >= HistoryEncryption {
		if m.IsEncrypted, err = c.Bool(); err != nil {
			return nil, err
		}
		n, err := c.Uint32()
		if err != nil {
			return nil, err
		}
		key, err := c.Bytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		m.EncryptionKey = append([]byte(nil), key...)
	}

	if m.IsLive && m.IsEncrypted {
		return nil, fmt.Errorf("live replay flagged as encrypted: %w", ErrInvalidContainer)
	}
	if !m.IsLive && m.IsEncrypted && len(m.EncryptionKey) == 0 {
		return nil, fmt.Errorf("encrypted replay without key: %w", ErrInvalidContainer)
	}
	return m, nil
}
