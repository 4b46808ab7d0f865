// Package systemd integrates the terminal with its service manager: readiness
// and watchdog notifications over sd_notify, and unit control over D-Bus.
package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager controls systemd units over a D-Bus connection.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the user service manager, or to the system manager
// when system is true.
func NewManager(ctx context.Context, system bool) (*Manager, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if system {
		conn, err = dbus.NewSystemConnectionContext(ctx)
	} else {
		conn, err = dbus.NewUserConnectionContext(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &Manager{conn: conn}, nil
}

// ServiceStatus returns the ActiveState of unit, e.g. "active" or "failed".
func (m *Manager) ServiceStatus(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return prop.Value.String(), nil
	}
	return state, nil
}

// RestartService restarts unit and waits for the job to finish.
func (m *Manager) RestartService(ctx context.Context, unit string) error {
	done := make(chan string, 1)
	if _, err := m.conn.RestartUnitContext(ctx, unit, "replace", done); err != nil {
		return err
	}
	select {
	case result := <-done:
		if result != "done" {
			return &JobError{Unit: unit, Result: result}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// JobError reports a unit job that did not complete.
type JobError struct {
	Unit   string
	Result string
}

func (e *JobError) Error() string {
	return "systemd job for " + e.Unit + " finished with " + e.Result
}
