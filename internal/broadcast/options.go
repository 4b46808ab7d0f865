package broadcast

import (
	"log/slog"

	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/media"
)

// MicMode selects how the microphone branch treats channels.
type MicMode string

// Microphone modes.
const (
	MicModeNormal MicMode = "normal"
	// MicModeStereo forces a two-channel downmix, for mono microphones on one
	// side of a stereo interface.
	MicModeStereo MicMode = "stereo"
)

// Devices names the capture devices. Empty entries select synthetic test sources.
type Devices struct {
	HDMI   string // main video capture (v4l2)
	Line   string // main audio input (alsa)
	Camera string // picture-in-picture camera (v4l2)
	Mic    string // microphone (alsa)
}

// Defaults for Options.
const (
	DefaultVideoBitrate = 4000   // kbit/s
	DefaultAudioBitrate = 128000 // bit/s
)

// Options configures a Pipeline.
type Options struct {
	Engine       media.Engine
	Devices      Devices
	MicMode      MicMode
	VideoBitrate uint // kbit/s, x264enc
	AudioBitrate int  // bit/s, voaacenc
	Events       *events.Bus  // optional
	Logger       *slog.Logger // optional, defaults to the "broadcast" module logger
}

func (o *Options) setDefaults() {
	if o.VideoBitrate == 0 {
		o.VideoBitrate = DefaultVideoBitrate
	}
	if o.AudioBitrate == 0 {
		o.AudioBitrate = DefaultAudioBitrate
	}
	if o.MicMode == "" {
		o.MicMode = MicModeNormal
	}
}
