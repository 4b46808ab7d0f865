package media

import "fmt"

// State is the run state of a graph or element.
type State int

// Element states, in the order engines walk through them.
const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Caps is a capability description in engine string form,
// e.g. "video/x-raw,width=1280,height=720".
type Caps string

// Pad is a connection point on an element.
type Pad interface {
	Name() string
	// Link connects this source pad to a sink pad.
	Link(sink Pad) error
	// Unlink disconnects this source pad from a sink pad.
	Unlink(sink Pad) error
	// SendEOS pushes an end-of-stream event through the pad.
	SendEOS() error
	// SetProperty sets a pad property, e.g. a compositor input's position.
	SetProperty(name string, value any) error
}

// Element is a single processing node.
type Element interface {
	Name() string
	Factory() string
	SetProperty(name string, value any) error
	StaticPad(name string) (Pad, error)
	// RequestPad allocates a new pad from a request template such as "sink_%u".
	RequestPad(template string) (Pad, error)
	ReleaseRequestPad(pad Pad)
	SetState(state State) error
	// SyncStateWithParent brings a freshly added element to the state of its graph.
	SyncStateWithParent() error
}

// SampleFunc receives a copy-safe view of one buffer delivered to a SampleSink.
// The slice is only valid for the duration of the call.
type SampleFunc func(data []byte) error

// SampleSink is implemented by terminal elements that hand buffers to the application.
type SampleSink interface {
	Element
	OnSample(fn SampleFunc)
}

// Graph is a mutable pipeline of elements.
type Graph interface {
	Name() string
	Add(elements ...Element) error
	Remove(elements ...Element) error
	// Link connects the default source pad of src to a sink pad of sink,
	// requesting one when sink only offers request pads.
	Link(src, sink Element) error
	SetState(state State) error
	// Len returns the number of elements currently in the graph.
	Len() int
	Bus() Bus
}

// Engine creates graphs and elements.
type Engine interface {
	Name() string
	NewGraph(name string) (Graph, error)
	// NewElement creates an element from a factory. An empty name lets the engine pick one.
	NewElement(factory, name string) (Element, error)
}
