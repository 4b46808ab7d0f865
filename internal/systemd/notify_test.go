package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

type recorder struct {
	mu     sync.Mutex
	states []string
	err    error
}

func (r *recorder) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	r.states = append(r.states, state)
	return true, nil
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func newTestNotifier(r *recorder) *Notifier {
	return &Notifier{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify: r.notify,
	}
}

func TestNotifier_States(t *testing.T) {
	r := &recorder{}
	n := newTestNotifier(r)

	n.Ready()
	n.Status("publishing")
	n.Stopping()

	want := []string{daemon.SdNotifyReady, "STATUS=publishing", daemon.SdNotifyStopping}
	if len(r.states) != len(want) {
		t.Fatalf("Expected %v, got %v", want, r.states)
	}
	for i := range want {
		if r.states[i] != want[i] {
			t.Errorf("state %d = %q, want %q", i, r.states[i], want[i])
		}
	}
}

func TestNotifier_ErrorsAreSwallowed(t *testing.T) {
	n := newTestNotifier(&recorder{err: errors.New("no socket")})
	n.Ready()
}

func TestNotifier_Watchdog(t *testing.T) {
	r := &recorder{}
	n := newTestNotifier(r)

	var mu sync.Mutex
	healthy := true
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.runWatchdog(ctx, 5*time.Millisecond, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return healthy
		})
	}()

	deadline := time.Now().Add(time.Second)
	for r.count(daemon.SdNotifyWatchdog) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for watchdog pings")
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	healthy = false
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	before := r.count(daemon.SdNotifyWatchdog)
	time.Sleep(30 * time.Millisecond)
	if after := r.count(daemon.SdNotifyWatchdog); after != before {
		t.Errorf("Expected no pings while unhealthy, got %d more", after-before)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog did not stop on cancel")
	}
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	n := newTestNotifier(&recorder{})

	done := make(chan struct{})
	go func() {
		n.Watchdog(context.Background(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog should return without WATCHDOG_USEC")
	}
}
