// Package logging provides structured logging with per-module levels.
//
// Every module gets its own *slog.Logger from GetLogger. Records go to stdout
// (text or JSON), to the systemd journal when it is available, and to an
// in-memory history that the HTTP API serves and streams.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"broadcast": "debug",
//			"api":       "warn",
//		},
//	})
//
// and request loggers where needed:
//
//	logger := logging.GetLogger("broadcast").With("session_id", id)
//	logger.Info("Pipeline running")
//
// Module levels can be changed at runtime with SetLevel.
//
// Journal records carry the identifier "restream" and upper-cased attribute
// fields:
//
//	journalctl -t restream -f
//	journalctl -t restream MODULE=broadcast
//	journalctl -t restream -p err
//
// TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	broadcast = "debug"
//	ingest = "warn"
package logging
