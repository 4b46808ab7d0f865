package media

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrMissingElement = errors.New("missing element")
	ErrLink           = errors.New("link failed")
	ErrStateChange    = errors.New("state change failed")
)

// MissingElementError reports an element factory that is not available on this host.
type MissingElementError struct {
	Factory string
	Cause   error
}

func (e *MissingElementError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("missing element %s: %v", e.Factory, e.Cause)
	}
	return "missing element " + e.Factory
}

func (e *MissingElementError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrMissingElement.
func (e *MissingElementError) Is(target error) bool { return target == ErrMissingElement }

// LinkError reports two elements or pads that could not be connected.
type LinkError struct {
	Src    string
	Sink   string
	Reason string
}

func (e *LinkError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("failed to link %s to %s: %s", e.Src, e.Sink, e.Reason)
	}
	return fmt.Sprintf("failed to link %s to %s", e.Src, e.Sink)
}

// Is reports whether target is ErrLink.
func (e *LinkError) Is(target error) bool { return target == ErrLink }

// StateError reports a failed state transition.
type StateError struct {
	Element string
	State   State
	Cause   error
}

func (e *StateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to set %s to %s: %v", e.Element, e.State, e.Cause)
	}
	return fmt.Sprintf("failed to set %s to %s", e.Element, e.State)
}

func (e *StateError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrStateChange.
func (e *StateError) Is(target error) bool { return target == ErrStateChange }
