//go:build !linux

package devices

type stubDetector struct{}

func newDetector() Detector {
	return stubDetector{}
}

func (stubDetector) VideoDevices() ([]Device, error) { return nil, ErrUnsupported }

func (stubDetector) AudioDevices() ([]Device, error) { return nil, ErrUnsupported }
