// Package memory is an in-process media engine. It models elements, pads, links,
// states and the message bus closely enough to exercise the broadcast pipeline's
// topology changes, and can optionally synthesize frames and level messages so the
// terminal runs on hosts without GStreamer.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/smazurov/restream/internal/media"
)

type kind int

const (
	kindSource kind = iota
	kindFilter
	kindSink
	kindTee
	kindMixer
	kindMuxer
)

// factories lists the element types this engine can create.
var factories = map[string]kind{
	"videotestsrc":  kindSource,
	"v4l2src":       kindSource,
	"audiotestsrc":  kindSource,
	"alsasrc":       kindSource,
	"capsfilter":    kindFilter,
	"videoconvert":  kindFilter,
	"videoscale":    kindFilter,
	"audioconvert":  kindFilter,
	"audioresample": kindFilter,
	"queue":         kindFilter,
	"level":         kindFilter,
	"x264enc":       kindFilter,
	"h264parse":     kindFilter,
	"voaacenc":      kindFilter,
	"aacparse":      kindFilter,
	"appsink":       kindSink,
	"fakesink":      kindSink,
	"rtmpsink":      kindSink,
	"tee":           kindTee,
	"compositor":    kindMixer,
	"audiomixer":    kindMixer,
	"flvmux":        kindMuxer,
}

// Engine creates in-memory graphs and elements.
// All structural state is guarded by a single engine-wide mutex.
type Engine struct {
	mu          sync.Mutex
	missing     map[string]bool
	linkFailure func(src, sink string) bool
	requestHook func(el *Element, template string)
	simInterval time.Duration
	counters    map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMissing makes the given factories unavailable, as if the plugins were not installed.
func WithMissing(factories ...string) Option {
	return func(e *Engine) {
		for _, f := range factories {
			e.missing[f] = true
		}
	}
}

// WithLinkFailure rejects every link for which fn returns true.
// fn receives the names of the source and sink elements.
func WithLinkFailure(fn func(src, sink string) bool) Option {
	return func(e *Engine) {
		e.linkFailure = fn
	}
}

// WithRequestPadHook calls fn after each successful request pad allocation,
// outside the engine lock.
func WithRequestPadHook(fn func(el *Element, template string)) Option {
	return func(e *Engine) {
		e.requestHook = fn
	}
}

// WithSimulation makes playing graphs post level messages and deliver frames
// to sample sinks every interval.
func WithSimulation(interval time.Duration) Option {
	return func(e *Engine) {
		e.simInterval = interval
	}
}

// New creates a memory engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		missing:  make(map[string]bool),
		counters: make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements media.Engine.
func (e *Engine) Name() string { return "memory" }

// NewGraph implements media.Engine.
func (e *Engine) NewGraph(name string) (media.Graph, error) {
	return newGraph(e, name), nil
}

// NewElement implements media.Engine.
func (e *Engine) NewElement(factory, name string) (media.Element, error) {
	k, ok := factories[factory]
	if !ok || e.isMissing(factory) {
		return nil, &media.MissingElementError{Factory: factory}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("%s%d", factory, e.counters[factory])
		e.counters[factory]++
	}

	el := &Element{
		engine:  e,
		name:    name,
		factory: factory,
		kind:    k,
		props:   make(map[string]any),
	}
	switch k {
	case kindSource, kindMixer, kindMuxer:
		el.addPad("src", dirSrc, false)
	case kindSink, kindTee:
		el.addPad("sink", dirSink, false)
	case kindFilter:
		el.addPad("sink", dirSink, false)
		el.addPad("src", dirSrc, false)
	}
	return el, nil
}

func (e *Engine) isMissing(factory string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.missing[factory]
}
