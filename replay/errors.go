package replay

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContainer reports a bad magic number or a violated meta invariant.
	ErrInvalidContainer = errors.New("invalid replay container")
	// ErrTruncatedStream reports a stream that ends inside a chunk header or frame.
	ErrTruncatedStream = errors.New("truncated replay stream")
	// ErrMalformedString reports a narrow string without its null terminator.
	ErrMalformedString = errors.New("malformed string")
	// ErrUnsupportedReplayVersion reports an elimination layout that no known
	// replay version matches.
	ErrUnsupportedReplayVersion = errors.New("unsupported replay version")
	// ErrOutOfBounds reports a read past the end of the buffer.
	ErrOutOfBounds = errors.New("read out of bounds")
)

// Decode stages reported by DecodeError.
const (
	StageMeta      = "meta"
	StageChunk     = "chunk"
	StageHeader    = "header"
	StageEvent     = "event"
	StageStats     = "stats"
	StageTeamStats = "teamstats"
)

// DecodeError identifies the stage and byte offset at which decoding failed.
type DecodeError struct {
	Stage  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("replay: %s at offset %d: %v", e.Stage, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func stageError(stage string, offset int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Stage: stage, Offset: offset, Err: err}
}
