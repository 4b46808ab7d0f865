package broadcast

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Pipeline operations.
var (
	// ErrToggleInProgress is returned when a branch is toggled while a previous
	// toggle of the same branch has not returned yet.
	ErrToggleInProgress = errors.New("toggle already in progress")
	// ErrNotRunning is returned by operations that need a running session.
	ErrNotRunning = errors.New("pipeline is not running")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("pipeline is already running")
	// ErrClosed is returned once the session ended.
	ErrClosed = errors.New("pipeline is closed")
	// ErrNoDestination is returned by StartPublishing without a destination.
	ErrNoDestination = errors.New("no publish destination")
	// ErrStreamFatal matches every *StreamError.
	ErrStreamFatal = errors.New("fatal stream error")
)

// StreamError is an unrecoverable error reported by the media engine while the
// session was running. The session is stopped when it occurs.
type StreamError struct {
	Source  string
	Message string
	Debug   string
}

func (e *StreamError) Error() string {
	if e.Debug != "" {
		return fmt.Sprintf("received error from %s: %s (debug: %s)", e.Source, e.Message, e.Debug)
	}
	return fmt.Sprintf("received error from %s: %s", e.Source, e.Message)
}

// Is reports whether target is ErrStreamFatal.
func (e *StreamError) Is(target error) bool { return target == ErrStreamFatal }
