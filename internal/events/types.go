package events

import (
	"time"

	"github.com/smazurov/restream/internal/logging"
)

// Event type constants for kelindar/event.
const (
	TypeCameraToggled uint32 = iota + 1
	TypeMicToggled
	TypePublishingStarted
	TypePipelineFatal
	TypeLogEntry
	TypeBroadcastStats
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CameraToggledEvent is published after the camera branch was attached or detached.
type CameraToggledEvent struct {
	SessionID string `json:"session_id" doc:"Broadcast session identifier"`
	Enabled   bool   `json:"enabled" example:"true" doc:"Whether the camera overlay is now on"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CameraToggledEvent.
func (e CameraToggledEvent) Type() uint32 { return TypeCameraToggled }

// MicToggledEvent is published after the microphone branch was attached or detached.
type MicToggledEvent struct {
	SessionID string `json:"session_id" doc:"Broadcast session identifier"`
	Enabled   bool   `json:"enabled" example:"true" doc:"Whether the microphone is now mixed in"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for MicToggledEvent.
func (e MicToggledEvent) Type() uint32 { return TypeMicToggled }

// PublishingStartedEvent is published once per session when the encode and
// publish branch went live. Destination never contains the stream key.
type PublishingStartedEvent struct {
	SessionID   string `json:"session_id" doc:"Broadcast session identifier"`
	Destination string `json:"destination" example:"rtmp://live.twitch.tv/app" doc:"RTMP endpoint without stream key"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PublishingStartedEvent.
func (e PublishingStartedEvent) Type() uint32 { return TypePublishingStarted }

// PipelineFatalEvent is published when the media engine reported an
// unrecoverable error and the session was stopped.
// Used for LED control and shutdown handling.
type PipelineFatalEvent struct {
	SessionID string `json:"session_id" doc:"Broadcast session identifier"`
	Source    string `json:"source" example:"rtmpsink0" doc:"Element that posted the error"`
	Error     string `json:"error" example:"Could not connect to RTMP stream" doc:"Error message"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PipelineFatalEvent.
func (e PipelineFatalEvent) Type() uint32 { return TypePipelineFatal }

// BroadcastStatsEvent carries periodic pipeline counters for dashboards.
type BroadcastStatsEvent struct {
	FPS            string `json:"fps" example:"29.97" doc:"Preview frames per second since the previous sample"`
	Frames         uint64 `json:"frames" doc:"Preview frames delivered"`
	PipelineErrors uint64 `json:"pipeline_errors" doc:"Fatal engine errors"`
	Timestamp      string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Sample timestamp"`
}

// Type returns the event type identifier for BroadcastStatsEvent.
func (e BroadcastStatsEvent) Type() uint32 { return TypeBroadcastStats }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// NewLogEntryEvent converts a log history entry.
func NewLogEntryEvent(entry logging.LogEntry) LogEntryEvent {
	return LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}
