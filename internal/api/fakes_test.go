package api

import (
	"context"
	"errors"
	"sync"

	"github.com/smazurov/restream/internal/broadcast"
	"github.com/smazurov/restream/internal/devices"
	"github.com/smazurov/restream/internal/ingest"
	"github.com/smazurov/restream/internal/meter"
)

type fakePipeline struct {
	mu           sync.Mutex
	status       broadcast.Status
	toggleErr    error
	publishErr   error
	destinations []string
	frame        broadcast.Frame
	output       meter.Levels
	mic          meter.Levels
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{status: broadcast.Status{
		SessionID: "3f2b9c1e-0000-4000-8000-000000000001",
		Engine:    "memory",
		Running:   true,
		Camera:    "off",
		Mic:       "off",
	}}
}

func (f *fakePipeline) Status() broadcast.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func flip(state string) string {
	if state == "on" {
		return "off"
	}
	return "on"
}

func (f *fakePipeline) ToggleCamera() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.status.Camera = flip(f.status.Camera)
	return nil
}

func (f *fakePipeline) ToggleMic() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.status.Mic = flip(f.status.Mic)
	return nil
}

func (f *fakePipeline) StartPublishing(destination string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destinations = append(f.destinations, destination)
	if f.publishErr != nil {
		return f.publishErr
	}
	if destination == "" {
		return broadcast.ErrNoDestination
	}
	f.status.Publishing = true
	return nil
}

func (f *fakePipeline) Frame() broadcast.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

func (f *fakePipeline) OutputLevels() meter.Levels {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.output
}

func (f *fakePipeline) MicLevels() meter.Levels {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mic
}

func (f *fakePipeline) setLevels(output, mic meter.Levels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output, f.mic = output, mic
}

type fakeIngests struct {
	catalog ingest.Catalog
	err     error
}

func (f *fakeIngests) Fetch(context.Context) (ingest.Catalog, error) {
	return f.catalog, f.err
}

type fakeLEDs struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeLEDs) Set(ledType string, enabled bool, pattern string) error {
	if ledType == "missing" {
		return errors.New("unknown LED type")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state := "off"
	if enabled {
		state = "on"
	}
	f.calls = append(f.calls, ledType+":"+state+":"+pattern)
	return nil
}

func (f *fakeLEDs) Available() []string { return []string{"user", "system"} }
func (f *fakeLEDs) Patterns() []string  { return []string{"solid", "blink", "heartbeat"} }

type fakeSystemd struct {
	status    string
	err       error
	restarted chan string
}

func (f *fakeSystemd) ServiceStatus(_ context.Context, unit string) (string, error) {
	return f.status, f.err
}

func (f *fakeSystemd) RestartService(_ context.Context, unit string) error {
	f.restarted <- unit
	return nil
}

type fakeDevices struct {
	video    []devices.Device
	audio    []devices.Device
	audioErr error
}

func (f *fakeDevices) VideoDevices() ([]devices.Device, error) { return f.video, nil }

func (f *fakeDevices) AudioDevices() ([]devices.Device, error) { return f.audio, f.audioErr }
