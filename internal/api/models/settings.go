package models

import (
	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/ingest"
)

// SettingsData is the settings body. The stream key itself is never returned.
type SettingsData struct {
	config.Settings
	StreamKeySet bool `json:"stream_key_set" doc:"Whether a stream key is configured"`
}

type SettingsResponse struct {
	Body SettingsData
}

// SettingsUpdateData changes the given settings and keeps the others.
type SettingsUpdateData struct {
	RTMPURL       *string `json:"rtmp_url,omitempty" doc:"RTMP server URL, may contain {stream_key}"`
	StreamKey     *string `json:"stream_key,omitempty" doc:"Stream key"`
	HDMIDevice    *string `json:"hdmi_device,omitempty" doc:"Program video capture device"`
	LineDevice    *string `json:"line_device,omitempty" doc:"Program audio capture device"`
	CameraDevice  *string `json:"camera_device,omitempty" doc:"Camera overlay capture device"`
	MicDevice     *string `json:"mic_device,omitempty" doc:"Microphone capture device"`
	MicMode       *string `json:"mic_mode,omitempty" enum:"normal,stereo" doc:"Microphone channel mode"`
	IngestService *string `json:"ingest_service,omitempty" enum:"twitch,custom" doc:"Streaming service"`
}

type SettingsUpdateRequest struct {
	Body SettingsUpdateData
}

// IngestListRequest filters the ingest list.
type IngestListRequest struct {
	Filter        string `query:"filter" doc:"Case-insensitive substring of the ingest name"`
	AvailableOnly bool   `query:"available" doc:"Only list ingests that accept streams"`
}

// IngestListData is the ingest catalog of the configured service.
type IngestListData struct {
	Service string          `json:"service" example:"twitch" doc:"Streaming service"`
	Ingests []ingest.Ingest `json:"ingests" doc:"Ingest endpoints"`
	Count   int             `json:"count" example:"40" doc:"Number of ingests"`
}

type IngestListResponse struct {
	Body IngestListData
}

// IngestSelectRequest picks an ingest by name as the RTMP URL.
type IngestSelectRequest struct {
	Body struct {
		Name string `json:"name" example:"US West: Los Angeles, CA" doc:"Ingest name"`
	}
}
