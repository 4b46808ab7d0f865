package broadcast

import (
	"log/slog"

	"github.com/smazurov/restream/internal/latest"
	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/meter"
	"github.com/smazurov/restream/internal/metrics"
)

// consumer drains the graph's bus. It only writes to the level channels and
// never changes the topology. stop and fatal are the only ways back into the
// session.
type consumer struct {
	bus    media.Bus
	output *latest.Value[meter.Levels]
	mic    *latest.Value[meter.Levels]
	stop   func() error
	fatal  func(*StreamError)
	logger *slog.Logger

	outputEnv meter.Envelope
	micEnv    meter.Envelope
}

// run blocks until EOS, an error message or the bus being closed.
// It reports whether the stream ended with EOS.
func (c *consumer) run() (eos bool) {
	for {
		msg, ok := c.bus.Pop()
		if !ok {
			return false
		}
		switch msg.Type {
		case media.MessageLevel:
			c.handleLevel(msg)
		case media.MessageEOS:
			c.logger.Info("End of stream", "source", msg.Source)
			return true
		case media.MessageError:
			c.handleError(msg)
			return false
		}
	}
}

func (c *consumer) handleLevel(msg media.Message) {
	var (
		env    *meter.Envelope
		target *latest.Value[meter.Levels]
		label  string
	)
	switch msg.Source {
	case outputLevelName:
		env, target, label = &c.outputEnv, c.output, "output"
	case micLevelName:
		env, target, label = &c.micEnv, c.mic, "mic"
	default:
		return
	}

	levels, ok := env.Update(msg.RMS)
	if !ok {
		c.logger.Debug("Dropping malformed level message", "source", msg.Source, "channels", len(msg.RMS))
		return
	}
	target.Store(levels)
	metrics.SetAudioLevel(label, float64(levels.Left), float64(levels.Right))
}

func (c *consumer) handleError(msg media.Message) {
	streamErr := &StreamError{Source: msg.Source, Debug: msg.Debug}
	if msg.Err != nil {
		streamErr.Message = msg.Err.Error()
	}
	if streamErr.Source == "" {
		streamErr.Source = "None"
	}

	c.logger.Error("Fatal stream error", "source", streamErr.Source, "error", streamErr.Message, "debug", streamErr.Debug)
	if err := c.stop(); err != nil {
		c.logger.Warn("Failed to stop pipeline after error", "error", err)
	}
	c.fatal(streamErr)
}
