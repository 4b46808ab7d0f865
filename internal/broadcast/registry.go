package broadcast

import "github.com/smazurov/restream/internal/media"

// Well-known element names. Level message sources are matched against
// outputLevelName and micLevelName.
const (
	videoMixerName  = "video_mixer"
	audioMixerName  = "audio_mixer"
	videoTeeName    = "video_tee"
	audioTeeName    = "audio_tee"
	muxerName       = "publish_mux"
	previewSinkName = "preview_sink"
	outputLevelName = "output level"
	micLevelName    = "mic level"
)

// registry holds the elements that are reconfigured after construction.
// The mixers and tees are set once by New. muxer is nil until publishing starts.
type registry struct {
	videoMixer media.Element
	audioMixer media.Element
	videoTee   media.Element
	audioTee   media.Element
	muxer      media.Element
}

// undo collects compensating actions and runs them in reverse order.
type undo []func()

func (u *undo) push(fn func()) { *u = append(*u, fn) }

func (u undo) run() {
	for i := len(u) - 1; i >= 0; i-- {
		u[i]()
	}
}
