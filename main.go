package main

import (
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/restream/cmd"
	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"restream.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Media settings
	MediaEngine       string `help:"Media engine (gstreamer, memory)" default:"gstreamer" toml:"media.engine" env:"MEDIA_ENGINE"`
	MediaSimInterval  string `help:"Level and frame interval of the memory engine" default:"50ms" toml:"media.sim_interval" env:"MEDIA_SIM_INTERVAL"`
	MediaVideoBitrate int    `help:"Video bitrate in kbit/s" default:"4000" toml:"media.video_bitrate" env:"MEDIA_VIDEO_BITRATE"`
	MediaAudioBitrate int    `help:"Audio bitrate in bit/s" default:"128000" toml:"media.audio_bitrate" env:"MEDIA_AUDIO_BITRATE"`

	// Broadcast settings
	SettingsFile         string `help:"Broadcast settings file (default $XDG_CONFIG_HOME/broadcast-terminal.toml)" toml:"broadcast.settings_file" env:"SETTINGS_FILE"`
	BroadcastAutoPublish bool   `help:"Start publishing on startup when a destination is configured" default:"false" toml:"broadcast.auto_publish" env:"BROADCAST_AUTO_PUBLISH"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl     bool   `help:"Drive an on-air tally LED" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
	FeaturesLEDType        string `help:"LED used as tally light (default: first LED of the board)" toml:"features.led_type" env:"FEATURES_LED_TYPE"`
	FeaturesSystemdControl bool   `help:"Expose status and restart of the service unit" default:"false" toml:"features.systemd_control_enabled" env:"FEATURES_SYSTEMD_CONTROL"`
	FeaturesSystemdUnit    string `help:"Service unit of the terminal" default:"restream.service" toml:"features.systemd_unit" env:"FEATURES_SYSTEMD_UNIT"`
	FeaturesSystemdSystem  bool   `help:"Use the system instead of the user service manager" default:"false" toml:"features.systemd_system" env:"FEATURES_SYSTEMD_SYSTEM"`

	// Logging settings
	LoggingLevel       string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat      string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingHistorySize int    `help:"Log entries kept for the API" default:"500" toml:"logging.history_size" env:"LOGGING_HISTORY_SIZE"`
	LoggingBroadcast   string `help:"Broadcast pipeline logging level" default:"info" toml:"logging.broadcast" env:"LOGGING_BROADCAST"`
	LoggingMedia       string `help:"Media engine logging level" default:"info" toml:"logging.media" env:"LOGGING_MEDIA"`
	LoggingAPI         string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP        string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingIngest      string `help:"Ingest client logging level" default:"info" toml:"logging.ingest" env:"LOGGING_INGEST"`
	LoggingConfig      string `help:"Settings watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingLED         string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root().Flags()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:       opts.LoggingLevel,
			Format:      opts.LoggingFormat,
			HistorySize: opts.LoggingHistorySize,
			Modules: map[string]string{
				"broadcast": opts.LoggingBroadcast,
				"media":     opts.LoggingMedia,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
				"ingest":    opts.LoggingIngest,
				"config":    opts.LoggingConfig,
				"led":       opts.LoggingLED,
			},
		})
		logger := logging.GetLogger("main")

		// Subcommands run this callback too, so the terminal is only built on start.
		var running atomic.Pointer[terminal]

		hooks.OnStart(func() {
			t, err := newTerminal(opts)
			if err != nil {
				logger.Error("Failed to start terminal", "error", err)
				os.Exit(1)
			}
			running.Store(t)
			if err := t.run(); err != nil {
				logger.Error("Terminal stopped", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if t := running.Load(); t != nil {
				t.shutdown()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateSettingsCmd())
	cli.Root().AddCommand(cmd.CreateIngestsCmd())
	cli.Root().AddCommand(cmd.CreateDevicesCmd())

	cli.Run()
}
