package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SettingsFile is the name of the settings file inside the user config directory.
const SettingsFile = "broadcast-terminal.toml"

// StreamKeyPlaceholder is replaced by the stream key in ingest URL templates.
const StreamKeyPlaceholder = "{stream_key}"

// ErrNoConfigDir is returned when neither XDG_CONFIG_HOME nor HOME is usable.
var ErrNoConfigDir = errors.New("no user config directory")

// Settings are the operator-editable broadcast settings.
type Settings struct {
	RTMPURL       string `toml:"rtmp_url" json:"rtmp_url" doc:"RTMP server URL, may contain {stream_key}"`
	StreamKey     string `toml:"stream_key" json:"-"`
	HDMIDevice    string `toml:"hdmi_device,omitempty" json:"hdmi_device,omitempty" doc:"Program video capture device"`
	LineDevice    string `toml:"line_device,omitempty" json:"line_device,omitempty" doc:"Program audio capture device"`
	CameraDevice  string `toml:"camera_device,omitempty" json:"camera_device,omitempty" doc:"Camera overlay capture device"`
	MicDevice     string `toml:"mic_device,omitempty" json:"mic_device,omitempty" doc:"Microphone capture device"`
	MicMode       string `toml:"mic_mode,omitempty" json:"mic_mode,omitempty" enum:"normal,stereo" doc:"Microphone channel mode"`
	IngestService string `toml:"ingest_service,omitempty" json:"ingest_service,omitempty" example:"twitch" doc:"Streaming service the RTMP URL was picked from"`
}

// DefaultSettings reads settings from the environment.
func DefaultSettings() Settings {
	return Settings{
		RTMPURL:       os.Getenv("RTMP_URL"),
		StreamKey:     os.Getenv("STREAM_KEY"),
		HDMIDevice:    os.Getenv("HDMI_DEVICE"),
		LineDevice:    os.Getenv("LINE_DEVICE"),
		CameraDevice:  os.Getenv("CAMERA_DEVICE"),
		MicDevice:     os.Getenv("MIC_DEVICE"),
		MicMode:       os.Getenv("MIC_MODE"),
		IngestService: os.Getenv("INGEST_SERVICE"),
	}
}

// SettingsPath returns $XDG_CONFIG_HOME/broadcast-terminal.toml, falling back
// to $HOME/.config. A relative XDG_CONFIG_HOME is ignored.
func SettingsPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(dir) {
		return filepath.Join(dir, SettingsFile), nil
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", SettingsFile), nil
	}
	return "", ErrNoConfigDir
}

// LoadSettings reads settings from path. Values missing from the file keep
// their environment defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes the settings to path, replacing the file atomically.
func (s Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Destination returns the full publish URL. The stream key replaces the
// {stream_key} placeholder when the URL has one and is appended as the last
// path segment otherwise. It is empty when no RTMP URL is set.
func (s Settings) Destination() string {
	url := strings.TrimSpace(s.RTMPURL)
	if url == "" {
		return ""
	}
	if strings.Contains(url, StreamKeyPlaceholder) {
		return strings.ReplaceAll(url, StreamKeyPlaceholder, s.StreamKey)
	}
	if s.StreamKey == "" {
		return url
	}
	return strings.TrimSuffix(url, "/") + "/" + s.StreamKey
}
