package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_Update(t *testing.T) {
	clearSettingsEnv(t)
	path := filepath.Join(t.TempDir(), SettingsFile)

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if got := store.Get(); got != (Settings{}) {
		t.Errorf("Expected empty settings, got %+v", got)
	}

	updated, err := store.Update(func(s *Settings) {
		s.RTMPURL = "rtmp://live.example.com/app"
		s.StreamKey = "live_1"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Destination() != "rtmp://live.example.com/app/live_1" {
		t.Errorf("Expected updated destination, got %q", updated.Destination())
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded != updated {
		t.Errorf("Expected saved %+v, got %+v", updated, loaded)
	}
}

func TestStore_UpdateFailureKeepsSettings(t *testing.T) {
	clearSettingsEnv(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	store := &Store{path: filepath.Join(blocker, SettingsFile), settings: Settings{RTMPURL: "rtmp://a/app"}}

	got, err := store.Update(func(s *Settings) { s.RTMPURL = "rtmp://b/app" })
	if err == nil {
		t.Fatal("Expected save error")
	}
	if got.RTMPURL != "rtmp://a/app" || store.Get().RTMPURL != "rtmp://a/app" {
		t.Errorf("Expected settings unchanged, got %q and %q", got.RTMPURL, store.Get().RTMPURL)
	}
}

func TestStore_Set(t *testing.T) {
	store := &Store{path: "unused"}
	store.Set(Settings{MicMode: "stereo"})
	if store.Get().MicMode != "stereo" {
		t.Errorf("Expected stereo, got %q", store.Get().MicMode)
	}
}

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"RTMP_URL", "STREAM_KEY", "HDMI_DEVICE", "LINE_DEVICE", "CAMERA_DEVICE", "MIC_DEVICE", "MIC_MODE", "INGEST_SERVICE"} {
		t.Setenv(name, "")
	}
}
