package gstreamer

import (
	"errors"
	"fmt"

	"github.com/go-gst/go-glib/glib"
	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/smazurov/restream/internal/media"
)

type gstElementer interface {
	gstElement() *gst.Element
}

// Element wraps a *gst.Element.
type Element struct {
	el      *gst.Element
	factory string
}

func (e *Element) gstElement() *gst.Element { return e.el }

// Name implements media.Element.
func (e *Element) Name() string { return e.el.GetName() }

// Factory implements media.Element.
func (e *Element) Factory() string { return e.factory }

// SetProperty implements media.Element. media.Caps values are parsed into *gst.Caps.
func (e *Element) SetProperty(name string, value any) error {
	if caps, ok := value.(media.Caps); ok {
		value = gst.NewCapsFromString(string(caps))
	}
	return setProperty(e.el.Object, name, value)
}

// setProperty sets strings on enum and flags properties by nick, since
// go-glib only accepts values whose GType matches the property exactly.
func setProperty(obj *gst.Object, name string, value any) error {
	nick, ok := value.(string)
	if !ok {
		return obj.SetProperty(name, value)
	}
	propType, err := obj.GetPropertyType(name)
	if err != nil {
		return fmt.Errorf("%s has no property %q", obj.GetName(), name)
	}
	if propType == glib.TYPE_STRING {
		return obj.SetProperty(name, nick)
	}
	if !propType.IsA(glib.TYPE_ENUM) && !propType.IsA(glib.TYPE_FLAGS) {
		return fmt.Errorf("invalid value %q for %s property %s", nick, propType.Name(), name)
	}
	obj.SetArg(name, nick)
	return nil
}

// StaticPad implements media.Element.
func (e *Element) StaticPad(name string) (media.Pad, error) {
	pad := e.el.GetStaticPad(name)
	if pad == nil {
		return nil, fmt.Errorf("%s has no static pad %q", e.Name(), name)
	}
	return &Pad{pad: pad}, nil
}

// RequestPad implements media.Element.
func (e *Element) RequestPad(template string) (media.Pad, error) {
	pad := e.el.GetRequestPad(template)
	if pad == nil {
		return nil, fmt.Errorf("%s: request pad %q unavailable", e.Name(), template)
	}
	return &Pad{pad: pad}, nil
}

// ReleaseRequestPad implements media.Element.
func (e *Element) ReleaseRequestPad(pad media.Pad) {
	if p, ok := pad.(*Pad); ok {
		e.el.ReleaseRequestPad(p.pad)
	}
}

// SetState implements media.Element.
func (e *Element) SetState(state media.State) error {
	if err := e.el.SetState(toGstState(state)); err != nil {
		return &media.StateError{Element: e.Name(), State: state, Cause: err}
	}
	return nil
}

// SyncStateWithParent implements media.Element.
func (e *Element) SyncStateWithParent() error {
	if !e.el.SyncStateWithParent() {
		return &media.StateError{Element: e.Name(), State: media.StatePlaying, Cause: errors.New("sync with parent failed")}
	}
	return nil
}

// AppSink is an appsink element that forwards each sample to a callback.
type AppSink struct {
	*Element
	sink *app.Sink
}

// OnSample implements media.SampleSink. The mapped buffer is only valid during fn.
func (a *AppSink) OnSample(fn media.SampleFunc) {
	a.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			sample := sink.PullSample()
			if sample == nil {
				return gst.FlowEOS
			}
			buffer := sample.GetBuffer()
			if buffer == nil {
				return gst.FlowError
			}
			mapInfo := buffer.Map(gst.MapRead)
			defer buffer.Unmap()
			if err := fn(mapInfo.Bytes()); err != nil {
				return gst.FlowError
			}
			return gst.FlowOK
		},
	})
}

// Pad wraps a *gst.Pad.
type Pad struct {
	pad *gst.Pad
}

// Name implements media.Pad.
func (p *Pad) Name() string { return p.pad.GetName() }

// Link implements media.Pad.
func (p *Pad) Link(sink media.Pad) error {
	s, ok := sink.(*Pad)
	if !ok {
		return &media.LinkError{Src: p.Name(), Sink: sink.Name(), Reason: "foreign pad"}
	}
	if ret := p.pad.Link(s.pad); ret != gst.PadLinkOK {
		return &media.LinkError{Src: p.Name(), Sink: s.Name(), Reason: fmt.Sprintf("%v", ret)}
	}
	return nil
}

// Unlink implements media.Pad.
func (p *Pad) Unlink(sink media.Pad) error {
	s, ok := sink.(*Pad)
	if !ok {
		return fmt.Errorf("%s: foreign pad", p.Name())
	}
	if !p.pad.Unlink(s.pad) {
		return fmt.Errorf("failed to unlink %s from %s", p.Name(), s.Name())
	}
	return nil
}

// SetProperty implements media.Pad.
func (p *Pad) SetProperty(name string, value any) error {
	return setProperty(p.pad.Object, name, value)
}

// SendEOS implements media.Pad.
func (p *Pad) SendEOS() error {
	if !p.pad.SendEvent(gst.NewEOSEvent()) {
		return fmt.Errorf("%s: EOS event not handled", p.Name())
	}
	return nil
}
