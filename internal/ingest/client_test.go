package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avast/retry-go/v5"
)

const ingestsJSON = `{"_total":2,"ingests":[
	{"_id":1,"availability":1.0,"default":false,"id":1,"name":"US West: Los Angeles, CA","priority":1,"url_template":"rtmp://lax.contribute.live-video.net/app/{stream_key}"},
	{"_id":2,"availability":1.0,"default":true,"id":2,"name":"US East: New York, NY","priority":2,"url_template":"rtmp://jfk.contribute.live-video.net/app/{stream_key}"}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(ServiceTwitch, WithURL(srv.URL), WithHTTPClient(srv.Client()), WithRetry(3, time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, &calls
}

func TestClient_Fetch(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Expected JSON accept header, got %q", r.Header.Get("Accept"))
		}
		if !strings.HasPrefix(r.UserAgent(), "restream/") {
			t.Errorf("Expected restream user agent, got %q", r.UserAgent())
		}
		fmt.Fprint(w, ingestsJSON)
	})

	catalog, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("Expected 2 ingests, got %d", len(catalog))
	}
	if catalog[1].Name != "US East: New York, NY" || !catalog[1].Default {
		t.Errorf("Unexpected second ingest: %+v", catalog[1])
	}
	if got := catalog[0].URL("live_1"); got != "rtmp://lax.contribute.live-video.net/app/live_1" {
		t.Errorf("Expected templated URL, got %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 request, got %d", calls.Load())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, ingestsJSON)
	})

	catalog, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(catalog) != 2 {
		t.Errorf("Expected 2 ingests, got %d", len(catalog))
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", calls.Load())
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCalls int32
		wantCode  int
	}{
		{
			name:      "server error exhausts attempts",
			handler:   func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantCalls: 3,
			wantCode:  http.StatusInternalServerError,
		},
		{
			name:      "client error is not retried",
			handler:   func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantCalls: 1,
			wantCode:  http.StatusNotFound,
		},
		{
			name:      "malformed body is not retried",
			handler:   func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "{not json") },
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, tt.handler)
			_, err := c.Fetch(context.Background())
			if err == nil {
				t.Fatal("Expected error")
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("Expected %d requests, got %d", tt.wantCalls, calls.Load())
			}
			var statusErr *StatusError
			if tt.wantCode != 0 && (!errors.As(err, &statusErr) || statusErr.StatusCode != tt.wantCode) {
				t.Errorf("Expected status %d, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestClient_Cancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestNewClient_UnsupportedService(t *testing.T) {
	_, err := NewClient(ServiceCustom)
	if !errors.Is(err, ErrUnsupportedService) {
		t.Errorf("Expected ErrUnsupportedService, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network error", errors.New("connection refused"), true},
		{"server error", &StatusError{StatusCode: http.StatusBadGateway}, true},
		{"rate limited", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"client error", &StatusError{StatusCode: http.StatusNotFound}, false},
		{"unrecoverable", retry.Unrecoverable(errors.New("decode ingests: bad json")), false},
		{"wrapped unrecoverable", fmt.Errorf("fetch: %w", retry.Unrecoverable(errors.New("bad"))), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("Expected retryable=%v, got %v", tt.want, got)
			}
		})
	}
}
