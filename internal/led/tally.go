package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/restream/internal/events"
)

// TallyState is what the tally light currently shows.
type TallyState string

// Tally states.
const (
	TallyOff   TallyState = "off"
	TallyLive  TallyState = "live"
	TallyFault TallyState = "fault"
)

// Tally lights an LED while the terminal is on air: solid once publishing
// started, blinking after the pipeline failed, off otherwise.
type Tally struct {
	controller Controller
	ledType    string
	bus        *events.Bus
	logger     *slog.Logger

	mu          sync.Mutex
	state       TallyState
	unsubscribe []func()
}

// NewTally creates a tally on ledType. An empty ledType picks the first LED
// the controller offers.
func NewTally(controller Controller, bus *events.Bus, ledType string, logger *slog.Logger) *Tally {
	if ledType == "" {
		if available := controller.Available(); len(available) > 0 {
			ledType = available[0]
		}
	}
	return &Tally{
		controller: controller,
		ledType:    ledType,
		bus:        bus,
		logger:     logger,
		state:      TallyOff,
	}
}

// Start turns the light off and begins following broadcast events.
func (t *Tally) Start() {
	t.set(TallyOff)

	t.mu.Lock()
	t.unsubscribe = append(t.unsubscribe,
		t.bus.Subscribe(func(e events.PublishingStartedEvent) {
			t.logger.Debug("Publishing started, tally live", "session_id", e.SessionID)
			t.set(TallyLive)
		}),
		t.bus.Subscribe(func(e events.PipelineFatalEvent) {
			t.logger.Debug("Pipeline failed, tally fault", "session_id", e.SessionID, "source", e.Source)
			t.set(TallyFault)
		}),
	)
	t.mu.Unlock()

	t.logger.Info("Tally light started", "led", t.ledType)
}

// Stop unsubscribes and turns the light off.
func (t *Tally) Stop() {
	t.mu.Lock()
	for _, unsub := range t.unsubscribe {
		unsub()
	}
	t.unsubscribe = nil
	t.mu.Unlock()

	t.set(TallyOff)
	t.logger.Info("Tally light stopped")
}

// State returns what the light shows.
func (t *Tally) State() TallyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Controller returns the underlying LED controller.
func (t *Tally) Controller() Controller {
	return t.controller
}

func (t *Tally) set(state TallyState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	switch state {
	case TallyLive:
		err = t.controller.Set(t.ledType, true, PatternSolid)
	case TallyFault:
		err = t.controller.Set(t.ledType, true, PatternBlink)
	default:
		err = t.controller.Set(t.ledType, false, "")
	}
	if err != nil {
		t.logger.Warn("Failed to set tally light", "led", t.ledType, "state", state, "error", err)
		return
	}
	t.state = state
}
