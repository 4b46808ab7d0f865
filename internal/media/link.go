package media

import (
	"errors"
	"fmt"
)

// AddLink adds elements to graph and links them into a chain in the given order.
// All elements are added before the first link is attempted. If adding or linking
// fails, the elements added by this call are removed again.
func AddLink(graph Graph, elements ...Element) error {
	added := make([]Element, 0, len(elements))
	for _, el := range elements {
		if err := graph.Add(el); err != nil {
			_ = RemoveMany(graph, added...)
			return fmt.Errorf("add %s: %w", el.Name(), err)
		}
		added = append(added, el)
	}

	for i := 0; i+1 < len(elements); i++ {
		if err := graph.Link(elements[i], elements[i+1]); err != nil {
			_ = RemoveMany(graph, added...)
			var linkErr *LinkError
			if errors.As(err, &linkErr) {
				return linkErr
			}
			return &LinkError{Src: elements[i].Name(), Sink: elements[i+1].Name(), Reason: err.Error()}
		}
	}
	return nil
}

// RemoveMany stops each element and removes it from graph.
// It keeps going on failure and returns the joined errors.
func RemoveMany(graph Graph, elements ...Element) error {
	var errs []error
	for _, el := range elements {
		if err := el.SetState(StateNull); err != nil {
			errs = append(errs, err)
		}
		if err := graph.Remove(el); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", el.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// SyncAll brings freshly added elements to the state of their graph.
func SyncAll(elements ...Element) error {
	for _, el := range elements {
		if err := el.SyncStateWithParent(); err != nil {
			return err
		}
	}
	return nil
}

// LinkPads links two pads and names both sides in the error.
func LinkPads(src string, srcPad Pad, sink string, sinkPad Pad) error {
	if srcPad == nil || sinkPad == nil {
		return &LinkError{Src: src, Sink: sink, Reason: "missing pad"}
	}
	if err := srcPad.Link(sinkPad); err != nil {
		var linkErr *LinkError
		if errors.As(err, &linkErr) {
			return linkErr
		}
		return &LinkError{Src: src, Sink: sink, Reason: err.Error()}
	}
	return nil
}

// Last returns the final element of a chain, or nil for an empty chain.
func Last(elements []Element) Element {
	if len(elements) == 0 {
		return nil
	}
	return elements[len(elements)-1]
}
