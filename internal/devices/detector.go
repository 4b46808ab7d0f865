// Package devices lists the capture devices the terminal can be pointed at.
package devices

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Kind tells video and audio capture devices apart.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Device is a capture device as it would be written to the settings file.
type Device struct {
	Kind Kind   `json:"kind" enum:"video,audio" doc:"Device kind"`
	Path string `json:"path" example:"/dev/video0" doc:"Value for hdmi_device, camera_device, line_device or mic_device"`
	Name string `json:"name" example:"USB Video" doc:"Name reported by the driver"`
	ID   string `json:"id,omitempty" example:"usb-046d_C920-video-index0" doc:"Stable identifier when the kernel provides one"`
}

// ErrUnsupported is returned by the detector on platforms without V4L2 and ALSA.
var ErrUnsupported = errors.New("device enumeration not supported on this platform")

// Detector provides platform-specific device detection.
type Detector interface {
	// VideoDevices returns V4L2 capture nodes.
	VideoDevices() ([]Device, error)
	// AudioDevices returns ALSA PCM devices that can capture.
	AudioDevices() ([]Device, error)
}

// NewDetector creates a platform-specific device detector.
func NewDetector() Detector {
	return newDetector()
}

// List returns video devices followed by audio devices, each sorted by path.
// Devices of one kind are still returned when the other kind fails; whatever
// a failing detector returned alongside its error is dropped.
func List(d Detector) ([]Device, error) {
	video, videoErr := d.VideoDevices()
	audio, audioErr := d.AudioDevices()

	var errs []error
	if videoErr != nil {
		video = nil
		errs = append(errs, fmt.Errorf("video devices: %w", videoErr))
	}
	if audioErr != nil {
		audio = nil
		errs = append(errs, fmt.Errorf("audio devices: %w", audioErr))
	}

	byPath := func(a, b Device) int { return cmp.Compare(a.Path, b.Path) }
	slices.SortFunc(video, byPath)
	slices.SortFunc(audio, byPath)

	out := make([]Device, 0, len(video)+len(audio))
	return append(append(out, video...), audio...), errors.Join(errs...)
}

// ResolveDevicePath turns a stable V4L2 identifier into a usable device path.
// Values that already are paths, and ALSA names, are returned unchanged.
func ResolveDevicePath(device string) (string, error) {
	return resolveDevicePath("/dev", device)
}

func resolveDevicePath(devRoot, device string) (string, error) {
	if device == "" || strings.HasPrefix(device, "/") || strings.Contains(device, ":") {
		return device, nil
	}
	for _, dir := range []string{"v4l/by-id", "v4l/by-path"} {
		path := filepath.Join(devRoot, dir, device)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no stable symlink found for device ID: %s", device)
}
