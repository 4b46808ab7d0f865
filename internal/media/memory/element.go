package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/restream/internal/media"
)

type direction int

const (
	dirSrc direction = iota
	dirSink
)

// Element is an in-memory media.Element.
type Element struct {
	engine   *Engine
	name     string
	factory  string
	kind     kind
	props    map[string]any
	pads     []*Pad
	graph    *Graph
	state    media.State
	nextPad  int
	onSample media.SampleFunc
}

// Pad is an in-memory media.Pad.
type Pad struct {
	name    string
	owner   *Element
	dir     direction
	request bool
	peer    *Pad
	eos     bool
	props   map[string]any
}

// addPad must be called with the engine lock held.
func (el *Element) addPad(name string, dir direction, request bool) *Pad {
	p := &Pad{name: name, owner: el, dir: dir, request: request}
	el.pads = append(el.pads, p)
	return p
}

// findPad must be called with the engine lock held.
func (el *Element) findPad(name string) *Pad {
	for _, p := range el.pads {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Name implements media.Element.
func (el *Element) Name() string { return el.name }

// Factory implements media.Element.
func (el *Element) Factory() string { return el.factory }

// SetProperty implements media.Element.
func (el *Element) SetProperty(name string, value any) error {
	if err := checkProperty(elementProps, el.factory, name, value); err != nil {
		return err
	}
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	el.props[name] = value
	return nil
}

// Property returns a property previously set on the element.
func (el *Element) Property(name string) (any, bool) {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	v, ok := el.props[name]
	return v, ok
}

// StaticPad implements media.Element.
func (el *Element) StaticPad(name string) (media.Pad, error) {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	p := el.findPad(name)
	if p == nil || p.request {
		return nil, fmt.Errorf("%s has no static pad %q", el.name, name)
	}
	return p, nil
}

// RequestPad implements media.Element. Tees offer "src_%u", mixers "sink_%u"
// and muxers one "video" and one "audio" pad.
func (el *Element) RequestPad(template string) (media.Pad, error) {
	el.engine.mu.Lock()
	p, err := el.requestPadLocked(template)
	hook := el.engine.requestHook
	el.engine.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if hook != nil {
		hook(el, template)
	}
	return p, nil
}

func (el *Element) requestPadLocked(template string) (*Pad, error) {
	var dir direction
	switch {
	case el.kind == kindTee && template == "src_%u":
		dir = dirSrc
	case el.kind == kindMixer && template == "sink_%u":
		dir = dirSink
	case el.kind == kindMuxer && (template == "video" || template == "audio"):
		if el.findPad(template) != nil {
			return nil, fmt.Errorf("%s: pad %q already requested", el.name, template)
		}
		return el.addPad(template, dirSink, true), nil
	default:
		return nil, fmt.Errorf("%s (%s) has no request template %q", el.name, el.factory, template)
	}
	name := strings.Replace(template, "%u", fmt.Sprint(el.nextPad), 1)
	el.nextPad++
	return el.addPad(name, dir, true), nil
}

// ReleaseRequestPad implements media.Element.
func (el *Element) ReleaseRequestPad(pad media.Pad) {
	p, ok := pad.(*Pad)
	if !ok {
		return
	}
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	if p.owner != el || !p.request {
		return
	}
	p.unlinkLocked()
	for i, cur := range el.pads {
		if cur == p {
			el.pads = append(el.pads[:i], el.pads[i+1:]...)
			break
		}
	}
}

// RequestPadCount returns the number of currently allocated request pads.
func (el *Element) RequestPadCount() int {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	n := 0
	for _, p := range el.pads {
		if p.request {
			n++
		}
	}
	return n
}

// SetState implements media.Element.
func (el *Element) SetState(state media.State) error {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	el.state = state
	return nil
}

// State returns the element's current state.
func (el *Element) State() media.State {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	return el.state
}

// SyncStateWithParent implements media.Element.
func (el *Element) SyncStateWithParent() error {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	if el.graph == nil {
		return &media.StateError{Element: el.name, State: el.state, Cause: errors.New("element has no parent")}
	}
	el.state = el.graph.state
	return nil
}

// OnSample implements media.SampleSink.
func (el *Element) OnSample(fn media.SampleFunc) {
	el.engine.mu.Lock()
	defer el.engine.mu.Unlock()
	el.onSample = fn
}

// Emit delivers data to the element's sample callback as if a buffer arrived.
func (el *Element) Emit(data []byte) error {
	el.engine.mu.Lock()
	fn := el.onSample
	el.engine.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("%s has no sample callback", el.name)
	}
	return fn(data)
}

// Name implements media.Pad.
func (p *Pad) Name() string { return p.name }

// Link implements media.Pad.
func (p *Pad) Link(sink media.Pad) error {
	s, ok := sink.(*Pad)
	if !ok {
		return &media.LinkError{Src: p.owner.name, Sink: sink.Name(), Reason: "foreign pad"}
	}
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return p.linkLocked(s)
}

func (p *Pad) linkLocked(s *Pad) error {
	src, sink := p.owner, s.owner
	fail := func(reason string) error {
		return &media.LinkError{Src: src.name + ":" + p.name, Sink: sink.name + ":" + s.name, Reason: reason}
	}
	switch {
	case p.dir != dirSrc || s.dir != dirSink:
		return fail("wrong pad direction")
	case src.graph == nil || src.graph != sink.graph:
		return fail("elements are not in the same graph")
	case p.peer != nil || s.peer != nil:
		return fail("pad already linked")
	case src.engine.linkFailure != nil && src.engine.linkFailure(src.name, sink.name):
		return fail("caps negotiation failed")
	}
	p.peer, s.peer = s, p
	return nil
}

// Unlink implements media.Pad.
func (p *Pad) Unlink(sink media.Pad) error {
	s, ok := sink.(*Pad)
	if !ok {
		return fmt.Errorf("%s: foreign pad", p.name)
	}
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.peer != s {
		return fmt.Errorf("%s:%s is not linked to %s:%s", p.owner.name, p.name, s.owner.name, s.name)
	}
	p.unlinkLocked()
	return nil
}

func (p *Pad) unlinkLocked() {
	if p.peer != nil {
		p.peer.peer = nil
		p.peer = nil
	}
}

// SendEOS implements media.Pad.
func (p *Pad) SendEOS() error {
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	p.eos = true
	return nil
}

// SetProperty implements media.Pad.
func (p *Pad) SetProperty(name string, value any) error {
	if err := checkProperty(padProps, p.owner.factory, name, value); err != nil {
		return err
	}
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.props == nil {
		p.props = make(map[string]any)
	}
	p.props[name] = value
	return nil
}

// Property returns a property previously set on the pad.
func (p *Pad) Property(name string) (any, bool) {
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := p.props[name]
	return v, ok
}

// EOS reports whether an end-of-stream event was sent through the pad.
func (p *Pad) EOS() bool {
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return p.eos
}

// Peer returns the pad this pad is linked to, if any.
func (p *Pad) Peer() *Pad {
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return p.peer
}
