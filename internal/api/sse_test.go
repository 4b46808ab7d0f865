package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/logging"
	"github.com/smazurov/restream/internal/meter"
)

// sseLines connects to path and returns a channel of "event:" and "data:" lines.
func sseLines(t *testing.T, env *testEnv, path string) <-chan string {
	t.Helper()
	ts := httptest.NewServer(env.server.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	credentials := base64.StdEncoding.EncodeToString([]byte(testUser + ":" + testPass))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+path+"?auth="+credentials, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") || strings.HasPrefix(line, "event:") {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return lines
}

// expectLine waits for a line containing substr, skipping others.
func expectLine(t *testing.T, lines <-chan string, substr string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("Stream closed waiting for %q", substr)
			}
			if strings.Contains(line, substr) {
				return line
			}
		case <-timeout:
			t.Fatalf("Timeout waiting for %q", substr)
		}
	}
}

func TestSSE_Events(t *testing.T) {
	env := newTestEnv(t)
	lines := sseLines(t, env, "/api/events")

	expectLine(t, lines, env.pipeline.status.SessionID)

	env.bus.Publish(events.CameraToggledEvent{SessionID: "s1", Enabled: true, Timestamp: time.Now().Format(time.RFC3339)})
	expectLine(t, lines, "event: camera-toggled")
	if line := expectLine(t, lines, "data:"); !strings.Contains(line, `"enabled":true`) {
		t.Errorf("Expected enabled camera event, got %s", line)
	}

	env.bus.Publish(events.PipelineFatalEvent{SessionID: "s1", Source: "rtmpsink0", Error: "Could not connect"})
	expectLine(t, lines, "event: pipeline-fatal")
	expectLine(t, lines, "rtmpsink0")
}

func TestSSE_EventsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestSSE_Levels(t *testing.T) {
	env := newTestEnv(t)
	lines := sseLines(t, env, "/api/levels/stream")

	expectLine(t, lines, `"output":{"left":0,"right":0}`)

	env.pipeline.setLevels(meter.Levels{Left: 0.5, Right: 0.25}, meter.Levels{})
	expectLine(t, lines, `"output":{"left":0.5,"right":0.25}`)
}

func TestSSE_Logs(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text", HistorySize: 50})
	env := newTestEnv(t)
	logging.OnEntry(func(entry logging.LogEntry) {
		env.bus.Publish(events.NewLogEntryEvent(entry))
	})
	t.Cleanup(func() { logging.OnEntry(nil) })

	logger := logging.GetLogger("ssetest")
	logger.Info("replayed from history")

	lines := sseLines(t, env, "/api/logs/stream")
	expectLine(t, lines, "replayed from history")

	logger.Info("streamed live")
	expectLine(t, lines, "streamed live")
}
