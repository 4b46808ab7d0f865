package broadcast

import "github.com/smazurov/restream/internal/media"

func (p *Pipeline) micElements() ([]media.Element, error) {
	src := media.Spec{Factory: "audiotestsrc", Properties: map[string]any{"is-live": true, "wave": "sine"}}
	if dev := p.opts.Devices.Mic; dev != "" {
		src = media.Spec{Factory: "alsasrc", Properties: map[string]any{"device": dev}}
	}

	caps := "audio/x-raw"
	if p.opts.MicMode == MicModeStereo {
		caps = "audio/x-raw,channels=2"
	}

	return media.Build(p.engine,
		src,
		media.Spec{Factory: "audioconvert"},
		media.Spec{Factory: "audioresample"},
		media.Spec{Factory: "capsfilter", Properties: map[string]any{"caps": media.Caps(caps)}},
		levelSpec(micLevelName),
		media.Spec{Factory: "queue"},
	)
}
