package broadcast

import "image"

// Preview frame geometry delivered by the video sink.
const (
	FrameWidth  = 1280
	FrameHeight = 720
)

// Frame is one composed preview frame in BGRA byte order.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Empty reports whether no frame has been delivered yet.
func (f Frame) Empty() bool {
	return len(f.Pixels) == 0
}

// Image converts the frame to RGBA.
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := min(len(f.Pixels), len(img.Pix))
	for i := 0; i+3 < n; i += 4 {
		img.Pix[i+0] = f.Pixels[i+2]
		img.Pix[i+1] = f.Pixels[i+1]
		img.Pix[i+2] = f.Pixels[i+0]
		img.Pix[i+3] = f.Pixels[i+3]
	}
	return img
}
