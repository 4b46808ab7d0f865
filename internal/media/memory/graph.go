package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/smazurov/restream/internal/media"
)

// Graph is an in-memory media.Graph.
type Graph struct {
	engine   *Engine
	name     string
	elements map[string]*Element
	state    media.State
	bus      *Bus
	sim      *simulator
}

func newGraph(e *Engine, name string) *Graph {
	return &Graph{
		engine:   e,
		name:     name,
		elements: make(map[string]*Element),
		bus:      newBus(),
	}
}

// Name implements media.Graph.
func (g *Graph) Name() string { return g.name }

// Add implements media.Graph.
func (g *Graph) Add(elements ...media.Element) error {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	for _, el := range elements {
		m, ok := el.(*Element)
		if !ok {
			return fmt.Errorf("%s: foreign element %s", g.name, el.Name())
		}
		if m.graph != nil {
			return fmt.Errorf("%s already has a parent", m.name)
		}
		if _, exists := g.elements[m.name]; exists {
			return fmt.Errorf("%s: name %q already in use", g.name, m.name)
		}
		m.graph = g
		g.elements[m.name] = m
	}
	return nil
}

// Remove implements media.Graph. Links of removed elements are dropped.
func (g *Graph) Remove(elements ...media.Element) error {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	for _, el := range elements {
		m, ok := el.(*Element)
		if !ok || m.graph != g {
			return fmt.Errorf("%s is not in %s", el.Name(), g.name)
		}
		for _, p := range m.pads {
			p.unlinkLocked()
		}
		m.graph = nil
		delete(g.elements, m.name)
	}
	return nil
}

// Link implements media.Graph.
func (g *Graph) Link(src, sink media.Element) error {
	s, ok1 := src.(*Element)
	k, ok2 := sink.(*Element)
	if !ok1 || !ok2 {
		return &media.LinkError{Src: src.Name(), Sink: sink.Name(), Reason: "foreign element"}
	}

	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()

	srcPad := s.findPad("src")
	if srcPad == nil || srcPad.peer != nil {
		if s.kind != kindTee {
			return &media.LinkError{Src: s.name, Sink: k.name, Reason: "no free source pad"}
		}
		p, err := s.requestPadLocked("src_%u")
		if err != nil {
			return &media.LinkError{Src: s.name, Sink: k.name, Reason: err.Error()}
		}
		srcPad = p
	}

	sinkPad := k.findPad("sink")
	if sinkPad == nil || sinkPad.peer != nil {
		if k.kind != kindMixer {
			return &media.LinkError{Src: s.name, Sink: k.name, Reason: "no free sink pad"}
		}
		p, err := k.requestPadLocked("sink_%u")
		if err != nil {
			return &media.LinkError{Src: s.name, Sink: k.name, Reason: err.Error()}
		}
		sinkPad = p
	}

	return srcPad.linkLocked(sinkPad)
}

// SetState implements media.Graph. Playing starts the simulator when enabled,
// Null stops it.
func (g *Graph) SetState(state media.State) error {
	g.engine.mu.Lock()
	g.state = state
	for _, el := range g.elements {
		el.state = state
	}
	interval := g.engine.simInterval
	sim := g.sim
	if state == media.StatePlaying && sim == nil && interval > 0 {
		s := newSimulator(g, interval)
		g.sim = s
		g.engine.mu.Unlock()
		s.start()
		return nil
	}
	if state == media.StateNull {
		g.sim = nil
	}
	g.engine.mu.Unlock()

	if state == media.StateNull && sim != nil {
		sim.stop()
	}
	return nil
}

// State returns the graph's current state.
func (g *Graph) State() media.State {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	return g.state
}

// Len implements media.Graph.
func (g *Graph) Len() int {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	return len(g.elements)
}

// Bus implements media.Graph.
func (g *Graph) Bus() media.Bus { return g.bus }

// Post queues a message on the graph's bus.
func (g *Graph) Post(msg media.Message) { g.bus.post(msg) }

// Element looks up an element by name.
func (g *Graph) Element(name string) (*Element, bool) {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	el, ok := g.elements[name]
	return el, ok
}

// Names returns the sorted names of all elements in the graph.
func (g *Graph) Names() []string {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	names := make([]string, 0, len(g.elements))
	for name := range g.elements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dangling returns the sorted names of elements that have an unlinked static pad.
func (g *Graph) Dangling() []string {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	var names []string
	for name, el := range g.elements {
		for _, p := range el.pads {
			if !p.request && p.peer == nil {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Bus is an unbounded, blocking FIFO of messages.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []media.Message
	closed bool
}

func newBus() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *Bus) post(msg media.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.queue = append(b.queue, msg)
	b.cond.Signal()
}

// Pop implements media.Bus.
func (b *Bus) Pop() (media.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.queue) == 0 {
		return media.Message{}, false
	}
	msg := b.queue[0]
	b.queue = b.queue[1:]
	return msg, true
}

// Close implements media.Bus. Messages already queued are still delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}
