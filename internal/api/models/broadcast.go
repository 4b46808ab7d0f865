package models

import (
	"github.com/smazurov/restream/internal/broadcast"
	"github.com/smazurov/restream/internal/meter"
	"github.com/smazurov/restream/internal/metrics"
)

// StatusData describes the running broadcast session.
type StatusData struct {
	broadcast.Status
	Destination string           `json:"destination,omitempty" example:"rtmp://live.twitch.tv/app" doc:"Configured RTMP endpoint without stream key"`
	Tally       string           `json:"tally,omitempty" example:"live" doc:"On-air light state"`
	Counters    metrics.Snapshot `json:"counters" doc:"Session counters"`
}

type StatusResponse struct {
	Body StatusData
}

// ToggleData is the result of toggling a branch.
type ToggleData struct {
	Branch  string `json:"branch" example:"camera" doc:"Toggled branch"`
	Enabled bool   `json:"enabled" example:"true" doc:"Whether the branch is on after the toggle"`
	State   string `json:"state" example:"on" doc:"Branch state: off, switching, on"`
}

type ToggleResponse struct {
	Body ToggleData
}

// PublishRequestData optionally overrides the configured destination.
type PublishRequestData struct {
	Destination string `json:"destination,omitempty" example:"rtmp://live.twitch.tv/app/live_123" doc:"Full RTMP URL including stream key. Defaults to the configured settings."`
}

type PublishRequest struct {
	Body *PublishRequestData `required:"false"`
}

// PublishData reports the publishing state.
type PublishData struct {
	Publishing  bool   `json:"publishing" example:"true" doc:"Whether the stream is being published"`
	Destination string `json:"destination" example:"rtmp://live.twitch.tv/app" doc:"Requested RTMP endpoint without stream key"`
}

type PublishResponse struct {
	Body PublishData
}

// LevelsData holds the latest linear stereo levels in the range 0 to 1.
type LevelsData struct {
	Output meter.Levels `json:"output" doc:"Program output levels"`
	Mic    meter.Levels `json:"mic" doc:"Microphone levels"`
}

type LevelsResponse struct {
	Body LevelsData
}

// FrameRequest selects the JPEG quality of a preview frame.
type FrameRequest struct {
	Quality int `query:"quality" minimum:"1" maximum:"100" default:"80" doc:"JPEG quality"`
}

// FrameResponse is a JPEG encoded preview frame.
type FrameResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}
