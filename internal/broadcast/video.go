package broadcast

import (
	"fmt"

	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/metrics"
)

const (
	captureCaps = "video/x-raw,format=YUY2,width=1280,height=720,framerate=30/1"
	previewCaps = "video/x-raw,format=BGRA,width=1280,height=720"
)

// buildVideo adds the fixed video chain: source, compositor, tee and the preview
// sink that republishes every composed frame.
func (p *Pipeline) buildVideo() error {
	src := media.Spec{Factory: "videotestsrc", Properties: map[string]any{"is-live": true}}
	if dev := p.opts.Devices.HDMI; dev != "" {
		src = media.Spec{Factory: "v4l2src", Properties: map[string]any{"device": dev}}
	}

	elements, err := media.Build(p.engine,
		src,
		media.Spec{Factory: "capsfilter", Properties: map[string]any{"caps": media.Caps(captureCaps)}},
		media.Spec{Factory: "videoconvert"},
		media.Spec{Factory: "compositor", Name: videoMixerName},
		media.Spec{Factory: "videoconvert"},
		media.Spec{Factory: "videoscale"},
		media.Spec{Factory: "tee", Name: videoTeeName},
		media.Spec{Factory: "queue"},
		media.Spec{Factory: "videoconvert"},
		media.Spec{Factory: "appsink", Name: previewSinkName, Properties: map[string]any{
			"caps":        media.Caps(previewCaps),
			"max-buffers": uint(1),
			"drop":        true,
		}},
	)
	if err != nil {
		return fmt.Errorf("video branch: %w", err)
	}

	sink, ok := media.Last(elements).(media.SampleSink)
	if !ok {
		return fmt.Errorf("video branch: %s does not deliver samples", previewSinkName)
	}
	sink.OnSample(p.onFrame)

	if err := media.AddLink(p.graph, elements...); err != nil {
		return fmt.Errorf("video branch: %w", err)
	}

	p.reg.videoMixer = elements[3]
	p.reg.videoTee = elements[6]
	return nil
}

// onFrame copies the buffer into a new frame. Frames of unexpected size are dropped.
func (p *Pipeline) onFrame(data []byte) error {
	if len(data) != FrameWidth*FrameHeight*4 {
		p.logger.Debug("Dropping frame with unexpected size", "bytes", len(data))
		return nil
	}
	pixels := make([]byte, len(data))
	copy(pixels, data)
	p.frame.Store(Frame{Width: FrameWidth, Height: FrameHeight, Pixels: pixels})
	metrics.IncFrames()
	return nil
}
