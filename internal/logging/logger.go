package logging

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

const defaultHistorySize = 500

var (
	mu           sync.RWMutex
	cfg          Config
	initialized  bool
	loggers      = make(map[string]*slog.Logger)
	levels       = make(map[string]*slog.LevelVar)
	defaultLevel = &slog.LevelVar{}
	history      *RingBuffer
	onEntry      EntryCallback
)

// Config represents logging configuration.
type Config struct {
	Level       string            `toml:"level"`
	Format      string            `toml:"format"`
	Modules     map[string]string `toml:"modules"`
	HistorySize int               `toml:"history_size"`
}

// levelFor returns the configured level of module.
func (c Config) levelFor(module string) slog.Level {
	level, ok := parseLevel(c.Level)
	if !ok {
		level = slog.LevelInfo
	}
	if s, exists := c.Modules[module]; exists {
		if l, ok := parseLevel(s); ok {
			level = l
		}
	}
	return level
}

// Initialize configures output format and levels. Loggers handed out before
// Initialize keep their text handler but follow the configured levels.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	cfg = config
	initialized = true

	size := config.HistorySize
	if size <= 0 {
		size = defaultHistorySize
	}
	history = NewRingBuffer(size)

	defaultLevel.Set(config.levelFor(""))

	for module, lv := range levels {
		lv.Set(config.levelFor(module))
	}

	slog.SetDefault(slog.New(newHandler(config.Format, defaultLevel)))
}

// GetLogger returns the logger of module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	logger, ok := loggers[module]
	mu.RUnlock()
	if ok {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if logger, ok := loggers[module]; ok {
		return logger
	}

	lv := &slog.LevelVar{}
	format := "text"
	if initialized {
		lv.Set(cfg.levelFor(module))
		format = cfg.Format
	}

	logger = slog.New(newHandler(format, lv)).With("module", module)
	loggers[module] = logger
	levels[module] = lv
	return logger
}

// SetLevel changes the level of an existing module at runtime.
func SetLevel(module, level string) error {
	l, ok := parseLevel(level)
	if !ok {
		return fmt.Errorf("invalid log level %q", level)
	}
	mu.RLock()
	defer mu.RUnlock()
	lv, exists := levels[module]
	if !exists {
		return fmt.Errorf("unknown log module %q", module)
	}
	lv.Set(l)
	return nil
}

// ModuleLevels returns the current level of every module that requested a logger.
func ModuleLevels() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(levels))
	for module, lv := range levels {
		out[module] = levelName(lv.Level())
	}
	return out
}

// Modules returns the sorted names of all known modules.
func Modules() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(levels))
	for module := range levels {
		names = append(names, module)
	}
	sort.Strings(names)
	return names
}

// History returns the in-memory log history, nil before Initialize.
func History() *RingBuffer {
	mu.RLock()
	defer mu.RUnlock()
	return history
}

// OnEntry registers fn to be called for every entry written to the history.
func OnEntry(fn EntryCallback) {
	mu.Lock()
	defer mu.Unlock()
	onEntry = fn
}

func sinks() (*RingBuffer, EntryCallback) {
	mu.RLock()
	defer mu.RUnlock()
	return history, onEntry
}

// newHandler fans out to stdout, the journal when present, and the history.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if stdoutAttached() {
		handlers = append(handlers, stdout)
	}
	if JournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewHistoryHandler(level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// stdoutAttached reports whether stdout goes to a terminal, pipe, socket or file.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
