// Package media defines the engine-neutral dataflow graph used by the broadcast
// pipeline: elements, pads, graphs and the asynchronous message bus.
//
// Two engines implement it:
//   - gstreamer: the production backend built on go-gst
//   - memory: an in-process simulation that synthesizes frames and level messages
//
// The helpers in this package (Make, MakeNamed, AddLink, RemoveMany) are the only
// way the broadcast package creates and wires elements, so the same construction
// code runs against either engine.
//
// # Ordering
//
// AddLink adds every element to the graph before linking any of them, because
// engines only link elements that share a parent. On a link failure the elements
// added by that call are removed again, leaving the graph as it was.
package media
