// Package broadcast builds and reshapes the live capture, mix, encode and
// publish graph of the terminal.
//
// A Pipeline is created with New, started with Run and ended with Close or by a
// fatal engine error, after which Done is closed and Err reports the cause.
// Camera and microphone branches are attached to and detached from the running
// mixers with ToggleCamera and ToggleMic. StartPublishing adds the encoders and
// the RTMP sink on first use.
//
// Preview frames and stereo levels are published to single-slot channels that
// readers poll with Frame, OutputLevels and MicLevels. Reads never block and
// always return the newest value.
package broadcast

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/latest"
	"github.com/smazurov/restream/internal/logging"
	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/meter"
	"github.com/smazurov/restream/internal/metrics"
)

// Pipeline owns the media graph of one broadcast session.
type Pipeline struct {
	id     string
	opts   Options
	engine media.Engine
	graph  media.Graph
	logger *slog.Logger
	events *events.Bus
	reg    registry

	camera *branch
	mic    *branch

	publishMu  sync.Mutex
	publishing atomic.Bool

	// Held shared by toggles and StartPublishing, exclusively by Close.
	opMu sync.RWMutex

	frame        *latest.Value[Frame]
	outputLevels *latest.Value[meter.Levels]
	micLevels    *latest.Value[meter.Levels]

	running  atomic.Bool
	closed   atomic.Bool
	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
	errMu    sync.Mutex
	err      error
}

// Status is a point-in-time summary of the session.
type Status struct {
	SessionID  string `json:"session_id" doc:"Broadcast session identifier"`
	Engine     string `json:"engine" example:"gstreamer" doc:"Media engine"`
	Running    bool   `json:"running" doc:"Whether the session is running"`
	Camera     string `json:"camera" example:"off" doc:"Camera branch state: off, switching, on"`
	Mic        string `json:"mic" example:"on" doc:"Microphone branch state: off, switching, on"`
	Publishing bool   `json:"publishing" doc:"Whether the stream is being published"`
	Error      string `json:"error,omitempty" doc:"Fatal error that ended the session"`
}

// New builds the fixed video and audio branches. The graph is not started
// until Run is called.
func New(opts Options) (*Pipeline, error) {
	if opts.Engine == nil {
		return nil, errors.New("broadcast: no media engine")
	}
	opts.setDefaults()

	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("broadcast")
	}
	logger = logger.With("session_id", id)

	graph, err := opts.Engine.NewGraph("restream-" + id[:8])
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}

	p := &Pipeline{
		id:           id,
		opts:         opts,
		engine:       opts.Engine,
		graph:        graph,
		logger:       logger,
		events:       opts.Events,
		frame:        latest.New(Frame{}),
		outputLevels: latest.New(meter.Levels{}),
		micLevels:    latest.New(meter.Levels{}),
		done:         make(chan struct{}),
	}

	if err := p.buildVideo(); err != nil {
		return nil, err
	}
	if err := p.buildAudio(); err != nil {
		return nil, err
	}

	p.camera = p.newBranch("camera", p.reg.videoMixer, p.cameraElements, cameraPadProps)
	p.mic = p.newBranch("mic", p.reg.audioMixer, p.micElements, nil)

	metrics.SetBranchEnabled("camera", false)
	metrics.SetBranchEnabled("mic", false)
	metrics.SetPublishing(false)

	logger.Info("Pipeline created", "engine", opts.Engine.Name(), "elements", graph.Len())
	return p, nil
}

func (p *Pipeline) newBranch(name string, mixer media.Element, build func() ([]media.Element, error), padProps map[string]any) *branch {
	return &branch{
		name:     name,
		engine:   p.engine,
		graph:    p.graph,
		mixer:    mixer,
		build:    build,
		padProps: padProps,
		logger:   p.logger,
	}
}

// ID returns the session identifier.
func (p *Pipeline) ID() string { return p.id }

// Run starts the graph and the bus consumer. It must be called once.
func (p *Pipeline) Run() error {
	if p.closed.Load() {
		return ErrClosed
	}
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if err := p.graph.SetState(media.StatePlaying); err != nil {
		p.running.Store(false)
		return fmt.Errorf("start pipeline: %w", err)
	}

	c := &consumer{
		bus:    p.graph.Bus(),
		output: p.outputLevels,
		mic:    p.micLevels,
		stop:   func() error { return p.graph.SetState(media.StateNull) },
		fatal:  p.onFatal,
		logger: p.logger,
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if eos := c.run(); eos {
			if err := p.graph.SetState(media.StateNull); err != nil {
				p.logger.Warn("Failed to stop pipeline after EOS", "error", err)
			}
			p.finish(nil)
		}
	}()

	p.logger.Info("Pipeline running")
	return nil
}

func (p *Pipeline) onFatal(err *StreamError) {
	metrics.IncPipelineErrors()
	metrics.SetPublishing(false)
	p.publish(events.PipelineFatalEvent{
		SessionID: p.id,
		Source:    err.Source,
		Error:     err.Message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	p.finish(err)
}

func (p *Pipeline) finish(err error) {
	p.doneOnce.Do(func() {
		p.errMu.Lock()
		p.err = err
		p.errMu.Unlock()
		close(p.done)
	})
}

// Done is closed when the session ended: after Close, EOS or a fatal error.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// Err returns the *StreamError that ended the session, or nil.
func (p *Pipeline) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Close stops the graph and waits for the bus consumer to exit.
// It is safe to call more than once.
func (p *Pipeline) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Wait for in-flight toggles and publish starts.
	p.opMu.Lock()
	defer p.opMu.Unlock()

	// Close the bus before stopping the graph, a stopped graph may no longer
	// deliver the wake-up message.
	p.graph.Bus().Close()
	p.wg.Wait()
	err := p.graph.SetState(media.StateNull)
	p.finish(nil)
	metrics.SetPublishing(false)
	p.logger.Info("Pipeline closed")
	return err
}

// begin admits a graph-changing operation. Close waits for the returned
// release func to be called.
func (p *Pipeline) begin() (func(), error) {
	p.opMu.RLock()
	if p.closed.Load() {
		p.opMu.RUnlock()
		return nil, ErrClosed
	}
	if err := p.checkLive(); err != nil {
		p.opMu.RUnlock()
		return nil, err
	}
	return p.opMu.RUnlock, nil
}

func (p *Pipeline) checkLive() error {
	select {
	case <-p.done:
		if err := p.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrClosed, err)
		}
		return ErrClosed
	default:
	}
	if !p.running.Load() {
		return ErrNotRunning
	}
	return nil
}

// Frame returns the latest preview frame. It is empty until the first frame arrived.
func (p *Pipeline) Frame() Frame { return p.frame.Load() }

// OutputLevels returns the latest program output levels.
func (p *Pipeline) OutputLevels() meter.Levels { return p.outputLevels.Load() }

// MicLevels returns the latest microphone levels.
func (p *Pipeline) MicLevels() meter.Levels { return p.micLevels.Load() }

// CameraEnabled reports whether the camera overlay is on.
func (p *Pipeline) CameraEnabled() bool { return p.camera.State() == BranchOn }

// MicEnabled reports whether the microphone is mixed in.
func (p *Pipeline) MicEnabled() bool { return p.mic.State() == BranchOn }

// Publishing reports whether the publish branch was started.
func (p *Pipeline) Publishing() bool { return p.publishing.Load() }

// ToggleCamera attaches the camera overlay when it is off and removes it when on.
func (p *Pipeline) ToggleCamera() error {
	return p.toggle(p.camera, func(on bool) events.Event {
		return events.CameraToggledEvent{SessionID: p.id, Enabled: on, Timestamp: time.Now().Format(time.RFC3339)}
	})
}

// ToggleMic attaches the microphone when it is off and removes it when on.
func (p *Pipeline) ToggleMic() error {
	return p.toggle(p.mic, func(on bool) events.Event {
		return events.MicToggledEvent{SessionID: p.id, Enabled: on, Timestamp: time.Now().Format(time.RFC3339)}
	})
}

func (p *Pipeline) toggle(b *branch, event func(on bool) events.Event) error {
	release, err := p.begin()
	if err != nil {
		return err
	}
	defer release()

	before := b.State()
	on, err := b.toggle()
	switch {
	case errors.Is(err, ErrToggleInProgress):
		metrics.RecordToggle(b.name, metrics.ResultBusy)
		return err
	case err != nil && (before == BranchOn) == on:
		metrics.RecordToggle(b.name, metrics.ResultRolledBack)
		p.logger.Warn("Toggle failed", "branch", b.name, "error", err)
		return err
	case err != nil:
		metrics.RecordToggle(b.name, metrics.ResultFailed)
		p.logger.Warn("Toggle completed with errors", "branch", b.name, "enabled", on, "error", err)
	default:
		metrics.RecordToggle(b.name, metrics.ResultOK)
		p.logger.Info("Branch toggled", "branch", b.name, "enabled", on)
	}

	metrics.SetBranchEnabled(b.name, on)
	p.publish(event(on))
	return err
}

// Status returns a summary of the session.
func (p *Pipeline) Status() Status {
	s := Status{
		SessionID:  p.id,
		Engine:     p.engine.Name(),
		Running:    p.running.Load() && !p.ended(),
		Camera:     p.camera.State().String(),
		Mic:        p.mic.State().String(),
		Publishing: p.Publishing(),
	}
	if err := p.Err(); err != nil {
		s.Error = err.Error()
	}
	return s
}

func (p *Pipeline) ended() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Pipeline) publish(ev events.Event) {
	if p.events != nil {
		p.events.Publish(ev)
	}
}
