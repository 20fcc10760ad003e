package replay

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ValidateFile decodes the replay at path and reports whether it is usable.
// Decode failures and replays without a HEADER chunk are errors; anything
// merely unusual is logged as a warning.
func ValidateFile(path string) error {
	return validateFile(path, log.Logger.With().Str("component", "replay").Logger())
}

// ValidateFileQuiet is like ValidateFile but suppresses all log output.
// Useful for CLI tools that want to control output formatting.
func ValidateFileQuiet(path string) error {
	return validateFile(path, zerolog.Nop())
}

// ValidateFileWithLogger is like ValidateFile but logs to l.
func ValidateFileWithLogger(path string, l zerolog.Logger) error {
	return validateFile(path, l)
}

func validateFile(path string, l zerolog.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("replay file not found: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("replay file is empty (0 bytes)")
	}

	r, err := Open(path, WithLogger(l))
	if err != nil {
		return err
	}
	return Validate(r, l.With().Str("path", path).Logger())
}

// Validate checks an already decoded replay.
func Validate(r *Replay, l zerolog.Logger) error {
	if r.Header == nil {
		return fmt.Errorf("missing HEADER chunk: %w", ErrInvalidContainer)
	}

	if r.Meta.IsLive {
		l.Warn().Msg("replay is still live (recording was not completed)")
	}
	if r.Meta.LengthInMs == 0 {
		l.Warn().Msg("replay duration is 0 ms")
	}
	if r.Meta.IsCompressed {
		l.Warn().Msg("replay data chunks are compressed and will not be decoded")
	}
	if r.Header.Release == (Release{}) {
		l.Warn().Str("branch", r.Header.Branch).Msg("branch does not name a release")
	}
	if _, ok := findEliminationLayout(r.Header); !ok {
		l.Warn().Str("branch", r.Header.Branch).Msg("no elimination layout for this replay version")
	}
	if r.Stats == nil {
		l.Warn().Msg("missing match stats")
	}
	if r.TeamStats == nil {
		l.Warn().Msg("missing team stats")
	}

	l.Info().
		Str("branch", r.Header.Branch).
		Uint32("engineNetworkVersion", r.Header.EngineNetworkVersion).
		Dur("duration", r.Meta.Duration()).
		Int("eliminations", len(r.Eliminations)).
		Int("bytes", r.Size).
		Msg("validated replay")
	return nil
}
