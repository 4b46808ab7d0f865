package gstreamer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gst/go-gst/gst"
	"github.com/smazurov/restream/internal/media"
)

// Graph wraps a *gst.Pipeline.
type Graph struct {
	pipeline *gst.Pipeline
	bus      *Bus

	mu    sync.Mutex
	count int
}

func unwrap(el media.Element) (*gst.Element, error) {
	g, ok := el.(gstElementer)
	if !ok {
		return nil, fmt.Errorf("%s is not a gstreamer element", el.Name())
	}
	return g.gstElement(), nil
}

// Name implements media.Graph.
func (g *Graph) Name() string { return g.pipeline.GetName() }

// Add implements media.Graph.
func (g *Graph) Add(elements ...media.Element) error {
	for _, el := range elements {
		raw, err := unwrap(el)
		if err != nil {
			return err
		}
		if err := g.pipeline.Add(raw); err != nil {
			return fmt.Errorf("failed to add %s: %w", el.Name(), err)
		}
		g.mu.Lock()
		g.count++
		g.mu.Unlock()
	}
	return nil
}

// Remove implements media.Graph.
func (g *Graph) Remove(elements ...media.Element) error {
	for _, el := range elements {
		raw, err := unwrap(el)
		if err != nil {
			return err
		}
		if err := g.pipeline.Remove(raw); err != nil {
			return fmt.Errorf("failed to remove %s: %w", el.Name(), err)
		}
		g.mu.Lock()
		g.count--
		g.mu.Unlock()
	}
	return nil
}

// Link implements media.Graph.
func (g *Graph) Link(src, sink media.Element) error {
	s, err := unwrap(src)
	if err != nil {
		return err
	}
	k, err := unwrap(sink)
	if err != nil {
		return err
	}
	if err := s.Link(k); err != nil {
		return &media.LinkError{Src: src.Name(), Sink: sink.Name(), Reason: err.Error()}
	}
	return nil
}

// SetState implements media.Graph.
func (g *Graph) SetState(state media.State) error {
	if err := g.pipeline.SetState(toGstState(state)); err != nil {
		return &media.StateError{Element: g.Name(), State: state, Cause: err}
	}
	return nil
}

// Len implements media.Graph.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Bus implements media.Graph.
func (g *Graph) Bus() media.Bus { return g.bus }

// Bus adapts the pipeline bus to media.Bus.
type Bus struct {
	pipeline *gst.Pipeline
	bus      *gst.Bus
	closed   atomic.Bool
}

func newBus(pipeline *gst.Pipeline) *Bus {
	return &Bus{pipeline: pipeline, bus: pipeline.GetPipelineBus()}
}

// Pop implements media.Bus.
func (b *Bus) Pop() (media.Message, bool) {
	if b.closed.Load() {
		return media.Message{}, false
	}
	// nil means the bus is flushing, which happens once the pipeline reached Null.
	msg := b.bus.BlockPopMessage()
	if msg == nil || b.closed.Load() {
		return media.Message{}, false
	}
	return convert(msg), true
}

// Close implements media.Bus. It wakes a blocked Pop with a synthetic EOS.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.bus.Post(gst.NewEOSMessage(b.pipeline))
}

func convert(msg *gst.Message) media.Message {
	out := media.Message{Type: media.MessageOther, Source: msg.Source()}
	switch msg.Type() {
	case gst.MessageEOS:
		out.Type = media.MessageEOS
	case gst.MessageError:
		gerr := msg.ParseError()
		out.Type = media.MessageError
		out.Err = errors.New(gerr.Error())
		out.Debug = gerr.DebugString()
	case gst.MessageElement:
		st := msg.GetStructure()
		if st == nil || st.Name() != "level" {
			return out
		}
		out.Type = media.MessageLevel
		// rms is a GValueArray, which go-glib can only hand out as a raw pointer.
		if rms, err := media.ParseLevelRMS(st.String()); err == nil {
			out.RMS = rms
		}
	}
	return out
}
