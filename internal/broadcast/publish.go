package broadcast

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/metrics"
)

// StartPublishing creates the encode and publish branch and starts sending to
// destination, a full RTMP URL including the stream key. Once publishing has
// started further calls do nothing, whatever their destination.
func (p *Pipeline) StartPublishing(destination string) error {
	release, err := p.begin()
	if err != nil {
		return err
	}
	defer release()

	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	if p.reg.muxer != nil {
		p.logger.Debug("Publishing already started")
		return nil
	}
	if strings.TrimSpace(destination) == "" {
		return ErrNoDestination
	}

	mux, err := p.buildPublish(destination)
	if err != nil {
		return fmt.Errorf("start publishing: %w", err)
	}

	p.reg.muxer = mux
	p.publishing.Store(true)
	metrics.SetPublishing(true)

	redacted := RedactDestination(destination)
	p.logger.Info("Publishing started", "destination", redacted)
	p.publish(events.PublishingStartedEvent{
		SessionID:   p.id,
		Destination: redacted,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
	return nil
}

// buildPublish adds muxer and network sink and taps both tees into encoders
// feeding the muxer. Nothing is left in the graph on failure.
func (p *Pipeline) buildPublish(destination string) (media.Element, error) {
	out, err := media.Build(p.engine,
		media.Spec{Factory: "flvmux", Name: muxerName, Properties: map[string]any{"streamable": true}},
		media.Spec{Factory: "rtmpsink", Properties: map[string]any{"location": destination}},
	)
	if err != nil {
		return nil, err
	}
	video, err := media.Build(p.engine,
		media.Spec{Factory: "queue"},
		media.Spec{Factory: "videoconvert"},
		media.Spec{Factory: "x264enc", Properties: map[string]any{
			"tune":        "zerolatency",
			"bitrate":     p.opts.VideoBitrate,
			"key-int-max": uint(60),
		}},
		media.Spec{Factory: "h264parse"},
	)
	if err != nil {
		return nil, err
	}
	audio, err := media.Build(p.engine,
		media.Spec{Factory: "queue"},
		media.Spec{Factory: "audioconvert"},
		media.Spec{Factory: "audioresample"},
		media.Spec{Factory: "voaacenc", Properties: map[string]any{"bitrate": p.opts.AudioBitrate}},
		media.Spec{Factory: "aacparse"},
	)
	if err != nil {
		return nil, err
	}

	var rollback undo
	for _, chain := range [][]media.Element{out, video, audio} {
		if err := media.AddLink(p.graph, chain...); err != nil {
			rollback.run()
			return nil, err
		}
		rollback.push(func() { _ = media.RemoveMany(p.graph, chain...) })
	}

	mux := out[0]
	taps := []struct {
		tee      media.Element
		chain    []media.Element
		muxInput string
	}{
		{p.reg.videoTee, video, "video"},
		{p.reg.audioTee, audio, "audio"},
	}
	for _, tap := range taps {
		if err := p.linkTap(tap.tee, tap.chain, mux, tap.muxInput, &rollback); err != nil {
			rollback.run()
			return nil, err
		}
	}

	all := make([]media.Element, 0, len(out)+len(video)+len(audio))
	all = append(append(append(all, out...), video...), audio...)
	if err := media.SyncAll(all...); err != nil {
		rollback.run()
		return nil, err
	}
	if err := p.graph.SetState(media.StatePlaying); err != nil {
		rollback.run()
		return nil, err
	}
	return mux, nil
}

// linkTap links tee → chain → muxer input, registering the undo steps.
func (p *Pipeline) linkTap(tee media.Element, chain []media.Element, mux media.Element, muxInput string, rollback *undo) error {
	teePad, err := tee.RequestPad("src_%u")
	if err != nil {
		return &media.LinkError{Src: tee.Name(), Sink: chain[0].Name(), Reason: err.Error()}
	}
	rollback.push(func() { tee.ReleaseRequestPad(teePad) })

	queuePad, err := chain[0].StaticPad("sink")
	if err != nil {
		return &media.LinkError{Src: tee.Name(), Sink: chain[0].Name(), Reason: err.Error()}
	}
	if err := media.LinkPads(tee.Name(), teePad, chain[0].Name(), queuePad); err != nil {
		return err
	}

	muxPad, err := mux.RequestPad(muxInput)
	if err != nil {
		return &media.LinkError{Src: media.Last(chain).Name(), Sink: mux.Name(), Reason: err.Error()}
	}
	rollback.push(func() { mux.ReleaseRequestPad(muxPad) })

	last := media.Last(chain)
	lastPad, err := last.StaticPad("src")
	if err != nil {
		return &media.LinkError{Src: last.Name(), Sink: mux.Name(), Reason: err.Error()}
	}
	return media.LinkPads(last.Name(), lastPad, mux.Name(), muxPad)
}

// RedactDestination strips the stream key from an RTMP URL so it can be logged.
func RedactDestination(destination string) string {
	u, err := url.Parse(destination)
	if err != nil || u.Host == "" {
		return "<invalid destination>"
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i > 0 {
		path = path[:i]
	}
	u.Path = path
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
