// Package gstreamer implements the media engine on top of GStreamer via go-gst.
package gstreamer

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/smazurov/restream/internal/media"
)

var initOnce sync.Once

// Engine creates GStreamer pipelines and elements.
type Engine struct{}

// New initializes GStreamer once per process and returns an engine.
func New() *Engine {
	initOnce.Do(func() {
		gst.Init(nil)
	})
	return &Engine{}
}

// Name implements media.Engine.
func (e *Engine) Name() string { return "gstreamer" }

// NewGraph implements media.Engine.
func (e *Engine) NewGraph(name string) (media.Graph, error) {
	pipeline, err := gst.NewPipeline(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create gst pipeline: %w", err)
	}
	return &Graph{
		pipeline: pipeline,
		bus:      newBus(pipeline),
	}, nil
}

// NewElement implements media.Engine. Appsinks are returned as media.SampleSink.
func (e *Engine) NewElement(factory, name string) (media.Element, error) {
	var (
		el  *gst.Element
		err error
	)
	if name == "" {
		el, err = gst.NewElement(factory)
	} else {
		el, err = gst.NewElementWithName(factory, name)
	}
	if err != nil || el == nil {
		return nil, &media.MissingElementError{Factory: factory, Cause: err}
	}

	wrapped := &Element{el: el, factory: factory}
	if factory == "appsink" {
		return &AppSink{Element: wrapped, sink: app.SinkFromElement(el)}, nil
	}
	return wrapped, nil
}

func toGstState(s media.State) gst.State {
	switch s {
	case media.StateReady:
		return gst.StateReady
	case media.StatePaused:
		return gst.StatePaused
	case media.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}
