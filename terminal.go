package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/restream/internal/api"
	"github.com/smazurov/restream/internal/broadcast"
	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/devices"
	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/ingest"
	"github.com/smazurov/restream/internal/led"
	"github.com/smazurov/restream/internal/logging"
	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/media/gstreamer"
	"github.com/smazurov/restream/internal/media/memory"
	"github.com/smazurov/restream/internal/metrics/exporters"
	"github.com/smazurov/restream/internal/systemd"
)

// terminal wires one broadcast session to its API and system integrations.
type terminal struct {
	opts     *Options
	logger   *slog.Logger
	eventBus *events.Bus
	store    *config.Store
	watcher  *config.Watcher[config.Settings]
	pipeline *broadcast.Pipeline
	server   *api.Server
	tally    *led.Tally
	stats    *exporters.SSEExporter
	notifier *systemd.Notifier
	manager  *systemd.Manager

	ctx          context.Context
	cancel       context.CancelFunc
	unsubscribe  func()
	shutdownOnce sync.Once
}

func newEngine(name, simInterval string) (media.Engine, error) {
	switch name {
	case "gstreamer", "":
		return gstreamer.New(), nil
	case "memory":
		interval, err := time.ParseDuration(simInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid sim interval %q: %w", simInterval, err)
		}
		return memory.New(memory.WithSimulation(interval)), nil
	default:
		return nil, fmt.Errorf("unknown media engine %q", name)
	}
}

func newTerminal(opts *Options) (*terminal, error) {
	t := &terminal{
		opts:     opts,
		logger:   logging.GetLogger("main"),
		eventBus: events.New(),
		notifier: systemd.NewNotifier(logging.GetLogger("systemd")),
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	logging.OnEntry(func(entry logging.LogEntry) {
		t.eventBus.Publish(events.NewLogEntryEvent(entry))
	})

	settingsPath := opts.SettingsFile
	if settingsPath == "" {
		var pathErr error
		if settingsPath, pathErr = config.SettingsPath(); pathErr != nil {
			settingsPath = config.SettingsFile
			t.logger.Warn("Using settings file in working directory", "error", pathErr)
		}
	}
	store, err := config.OpenStore(settingsPath)
	if err != nil {
		t.cancel()
		return nil, fmt.Errorf("load settings %s: %w", settingsPath, err)
	}
	t.store = store
	settings := store.Get()
	t.logger.Info("Settings loaded", "path", settingsPath, "destination", broadcast.RedactDestination(settings.Destination()))

	engine, err := newEngine(opts.MediaEngine, opts.MediaSimInterval)
	if err != nil {
		t.cancel()
		return nil, err
	}

	t.pipeline, err = broadcast.New(broadcast.Options{
		Engine: engine,
		Devices: broadcast.Devices{
			HDMI:   t.resolveDevice("hdmi", settings.HDMIDevice),
			Line:   settings.LineDevice,
			Camera: t.resolveDevice("camera", settings.CameraDevice),
			Mic:    settings.MicDevice,
		},
		MicMode:      broadcast.MicMode(settings.MicMode),
		VideoBitrate: uint(max(opts.MediaVideoBitrate, 0)),
		AudioBitrate: opts.MediaAudioBitrate,
		Events:       t.eventBus,
	})
	if err != nil {
		t.cancel()
		return nil, fmt.Errorf("build %s pipeline: %w", engine.Name(), err)
	}

	t.watcher = config.NewWatcher(settingsPath, config.LoadSettings, logging.GetLogger("config"))
	t.watcher.OnReload(func(s config.Settings) {
		store.Set(s)
		t.logger.Info("Settings reloaded", "destination", broadcast.RedactDestination(s.Destination()))
	})

	var ledController led.Controller
	if opts.FeaturesLEDControl {
		ledLogger := logging.GetLogger("led")
		ledController = led.New(ledLogger)
		t.tally = led.NewTally(ledController, t.eventBus, opts.FeaturesLEDType, ledLogger)
	}

	t.unsubscribe = t.eventBus.Subscribe(func(e events.PublishingStartedEvent) {
		t.notifier.Status("Publishing to " + e.Destination)
	})
	t.stats = exporters.NewSSEExporter(t.eventBus)

	apiOpts := &api.Options{
		AuthUsername:  opts.AuthUsername,
		AuthPassword:  opts.AuthPassword,
		CORSOrigin:    opts.CORSOrigin,
		Pipeline:      t.pipeline,
		Settings:      store,
		EventBus:      t.eventBus,
		ServiceName:   opts.FeaturesSystemdUnit,
		LEDController: ledController,
		Tally:         t.tally,
		Devices:       devices.NewDetector(),
		Ingests: func(service ingest.Service) (api.IngestSource, error) {
			client, clientErr := ingest.NewClient(service)
			if clientErr != nil {
				return nil, clientErr
			}
			return client, nil
		},
		PrometheusHandler: promhttp.Handler(),
	}
	if opts.FeaturesSystemdControl {
		if t.manager, err = systemd.NewManager(t.ctx, opts.FeaturesSystemdSystem); err != nil {
			t.logger.Warn("systemd control unavailable", "error", err)
		} else {
			apiOpts.SystemdManager = t.manager
		}
	}
	t.server = api.NewServer(apiOpts)

	return t, nil
}

// resolveDevice maps stable device ids from the settings to device paths.
func (t *terminal) resolveDevice(name, device string) string {
	path, err := devices.ResolveDevicePath(device)
	if err != nil {
		t.logger.Warn("Using device as configured", "device", name, "value", device, "error", err)
		return device
	}
	return path
}

// run starts the session and serves the API until shutdown. It returns the
// error that ended the broadcast session, if any.
func (t *terminal) run() error {
	if err := t.pipeline.Run(); err != nil {
		t.shutdown()
		return fmt.Errorf("start broadcast pipeline: %w", err)
	}
	if err := t.watcher.Start(t.ctx); err != nil {
		t.logger.Warn("Settings hot reload disabled", "error", err)
	}
	if t.tally != nil {
		t.tally.Start()
	}
	t.stats.Start(t.ctx)

	if t.opts.BroadcastAutoPublish {
		if dest := t.store.Get().Destination(); dest != "" {
			if err := t.pipeline.StartPublishing(dest); err != nil {
				t.logger.Error("Failed to start publishing", "error", err)
			}
		} else {
			t.logger.Warn("Auto publish enabled but no destination configured")
		}
	}

	// A fatal pipeline error ends the session; stop serving so the service
	// manager can restart the terminal.
	go func() {
		select {
		case <-t.pipeline.Done():
		case <-t.ctx.Done():
			return
		}
		if err := t.pipeline.Err(); err != nil {
			t.logger.Error("Broadcast session ended", "error", err)
			t.notifier.Status("Failed: " + err.Error())
		} else {
			t.logger.Info("Broadcast session ended")
		}
		if err := t.server.Stop(); err != nil {
			t.logger.Warn("Error stopping HTTP server", "error", err)
		}
	}()
	go t.notifier.Watchdog(t.ctx, func() bool { return t.pipeline.Status().Running })

	t.notifier.Ready()
	t.notifier.Status("Broadcast running, session " + t.pipeline.ID())

	t.logger.Info("Starting HTTP server", "port", t.opts.Port, "engine", t.opts.MediaEngine)
	serveErr := t.server.Start(t.opts.Port)
	t.shutdown()
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("serve API: %w", serveErr)
	}
	return t.pipeline.Err()
}

// shutdown stops everything started by run. It is safe to call more than once.
func (t *terminal) shutdown() {
	t.shutdownOnce.Do(func() {
		t.notifier.Stopping()
		t.cancel()
		if err := t.server.Stop(); err != nil {
			t.logger.Error("Error stopping HTTP server", "error", err)
		}
		if err := t.watcher.Stop(); err != nil {
			t.logger.Warn("Error stopping settings watcher", "error", err)
		}
		if t.tally != nil {
			t.tally.Stop()
		}
		t.stats.Stop()
		t.unsubscribe()
		if err := t.pipeline.Close(); err != nil {
			t.logger.Warn("Error closing pipeline", "error", err)
		}
		if t.manager != nil {
			t.manager.Close()
		}
	})
}
