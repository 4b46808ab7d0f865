package broadcast

import "github.com/smazurov/restream/internal/media"

const cameraCaps = "video/x-raw,width=320,height=180"

// Picture-in-picture placement of the camera in the bottom right corner of the
// 1280x720 program, with a 20px margin.
var cameraPadProps = map[string]any{
	"xpos":   940,
	"ypos":   520,
	"width":  320,
	"height": 180,
	"zorder": uint(1),
}

func (p *Pipeline) cameraElements() ([]media.Element, error) {
	src := media.Spec{Factory: "videotestsrc", Properties: map[string]any{"is-live": true, "pattern": "ball"}}
	if dev := p.opts.Devices.Camera; dev != "" {
		src = media.Spec{Factory: "v4l2src", Properties: map[string]any{"device": dev}}
	}
	return media.Build(p.engine,
		src,
		media.Spec{Factory: "videoscale"},
		media.Spec{Factory: "capsfilter", Properties: map[string]any{"caps": media.Caps(cameraCaps)}},
		media.Spec{Factory: "videoconvert"},
	)
}
