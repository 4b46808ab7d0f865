package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startWatcher writes initial settings and starts a settings watcher on them.
func startWatcher(t *testing.T, debounce time.Duration, opts ...WatcherOption[Settings]) (*Watcher[Settings], string) {
	t.Helper()
	t.Setenv("RTMP_URL", "")
	t.Setenv("STREAM_KEY", "")

	path := filepath.Join(t.TempDir(), SettingsFile)
	if err := (Settings{RTMPURL: "rtmp://initial/app"}).Save(path); err != nil {
		t.Fatal(err)
	}

	opts = append(opts, WithDebounce[Settings](debounce))
	w := NewWatcher(path, LoadSettings, newTestLogger(), opts...)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	})
	return w, path
}

func TestWatcher_ReloadsOnSave(t *testing.T) {
	w, path := startWatcher(t, 50*time.Millisecond)

	received := make(chan Settings, 4)
	w.OnReload(func(s Settings) { received <- s })

	for _, key := range []string{"first", "second"} {
		if err := (Settings{RTMPURL: "rtmp://new/app", StreamKey: key}).Save(path); err != nil {
			t.Fatal(err)
		}
		select {
		case s := <-received:
			if s.Destination() != "rtmp://new/app/"+key {
				t.Errorf("Expected destination with key %s, got %s", key, s.Destination())
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for reload after saving %s", key)
		}
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	w, path := startWatcher(t, 20*time.Millisecond)

	var count atomic.Int32
	w.OnReload(func(Settings) { count.Add(1) })

	other := filepath.Join(filepath.Dir(path), "notes.txt")
	if err := os.WriteFile(other, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("Expected no reload for unrelated file, got %d", got)
	}
}

func TestWatcher_MultipleHandlersAndUnsubscribe(t *testing.T) {
	w, path := startWatcher(t, 30*time.Millisecond)

	var first, second atomic.Int32
	w.OnReload(func(Settings) { first.Add(1) })
	unsub := w.OnReload(func(Settings) { second.Add(1) })

	if err := os.WriteFile(path, []byte(`rtmp_url = "rtmp://a/b"`), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	unsub()

	if err := os.WriteFile(path, []byte(`rtmp_url = "rtmp://a/c"`), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := first.Load(); got != 2 {
		t.Errorf("handler 1: expected 2 calls, got %d", got)
	}
	if got := second.Load(); got != 1 {
		t.Errorf("handler 2: expected 1 call, got %d", got)
	}
}

func TestWatcher_ErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	w, path := startWatcher(t, 30*time.Millisecond, WithErrorHandler[Settings](func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))

	reloaded := make(chan Settings, 1)
	w.OnReload(func(s Settings) { reloaded <- s })

	if err := os.WriteFile(path, []byte("invalid toml [[["), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-reloaded:
		t.Fatal("Handler must not run when loading fails")
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for error handler")
	}
}

func TestWatcher_Debounce(t *testing.T) {
	w, path := startWatcher(t, 200*time.Millisecond)

	var count atomic.Int32
	var last atomic.Value
	w.OnReload(func(s Settings) {
		count.Add(1)
		last.Store(s.StreamKey)
	})

	for _, key := range []string{"a", "b", "c", "d"} {
		if err := (Settings{RTMPURL: "rtmp://x/app", StreamKey: key}).Save(path); err != nil {
			t.Fatal(err)
		}
		time.Sleep(40 * time.Millisecond)
	}
	time.Sleep(600 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("Expected 1 debounced reload, got %d", got)
	}
	if got, _ := last.Load().(string); got != "d" {
		t.Errorf("Expected last key d, got %q", got)
	}
}

func TestWatcher_ConcurrentSubscribers(t *testing.T) {
	w, path := startWatcher(t, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := w.OnReload(func(Settings) {})
			time.Sleep(time.Millisecond)
			unsub()
		}()
	}
	for i := range 5 {
		if err := (Settings{RTMPURL: "rtmp://x/app", StreamKey: string(rune('a' + i))}).Save(path); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()
}

func TestWatcher_StopEndsNotifications(t *testing.T) {
	t.Setenv("RTMP_URL", "")
	path := filepath.Join(t.TempDir(), SettingsFile)
	if err := (Settings{}).Save(path); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, LoadSettings, newTestLogger(), WithDebounce[Settings](20*time.Millisecond))
	var count atomic.Int32
	w.OnReload(func(Settings) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := (Settings{StreamKey: "late"}).Save(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("Expected no reload after Stop, got %d", got)
	}
}
