package broadcast

import (
	"fmt"
	"time"

	"github.com/smazurov/restream/internal/media"
)

// levelInterval is how often level elements post a measurement.
const levelInterval = 30 * time.Millisecond

// buildAudio adds the fixed audio chain: source, mixer, tee, the output level
// probe and a clock-synchronized sink so levels follow wall-clock time.
func (p *Pipeline) buildAudio() error {
	src := media.Spec{Factory: "audiotestsrc", Properties: map[string]any{"is-live": true, "wave": "ticks"}}
	if dev := p.opts.Devices.Line; dev != "" {
		src = media.Spec{Factory: "alsasrc", Properties: map[string]any{"device": dev}}
	}

	elements, err := media.Build(p.engine,
		src,
		media.Spec{Factory: "audioconvert"},
		media.Spec{Factory: "audioresample"},
		media.Spec{Factory: "audiomixer", Name: audioMixerName},
		media.Spec{Factory: "tee", Name: audioTeeName},
		media.Spec{Factory: "queue"},
		levelSpec(outputLevelName),
		media.Spec{Factory: "fakesink", Properties: map[string]any{"sync": true}},
	)
	if err != nil {
		return fmt.Errorf("audio branch: %w", err)
	}
	if err := media.AddLink(p.graph, elements...); err != nil {
		return fmt.Errorf("audio branch: %w", err)
	}

	p.reg.audioMixer = elements[3]
	p.reg.audioTee = elements[4]
	return nil
}

func levelSpec(name string) media.Spec {
	return media.Spec{Factory: "level", Name: name, Properties: map[string]any{
		"interval":      uint64(levelInterval.Nanoseconds()),
		"post-messages": true,
	}}
}
