// Package led drives an on-air tally light from broadcast events.
package led

// Patterns understood by every Controller.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller abstracts LED hardware control across different SBC boards.
// Implementations handle board-specific LED naming and capabilities.
type Controller interface {
	// Set switches an LED on or off. pattern is one of the Pattern constants
	// or a raw trigger name; an empty pattern leaves the trigger unchanged.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the sorted LED types of the board.
	Available() []string

	// Patterns returns the patterns the controller accepts.
	Patterns() []string
}
