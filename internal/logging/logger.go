package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is the subset of *slog.Logger the gateway packages log through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects the global level, output format and per-module levels.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type moduleLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var (
	mu          sync.RWMutex
	current     Config
	initialized bool
	modules     = make(map[string]*moduleLogger)
	globalLevel = &slog.LevelVar{}
)

// Initialize applies cfg. Loggers handed out earlier keep their identity;
// their levels and handlers are updated in place.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	current = cfg
	initialized = true
	globalLevel.Set(levelOr(cfg.Level, slog.LevelInfo))

	for name, m := range modules {
		m.level.Set(moduleLevel(name))
		*m.logger = *slog.New(newHandler(cfg.Format, m.level)).With("module", name)
	}

	slog.SetDefault(slog.New(newHandler(cfg.Format, globalLevel)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	m, ok := modules[module]
	mu.RUnlock()
	if ok {
		return m.logger
	}

	mu.Lock()
	defer mu.Unlock()
	if m, ok := modules[module]; ok {
		return m.logger
	}

	level := &slog.LevelVar{}
	format := "text"
	if initialized {
		level.Set(moduleLevel(module))
		format = current.Format
	}
	m = &moduleLogger{
		logger: slog.New(newHandler(format, level)).With("module", module),
		level:  level,
	}
	modules[module] = m
	return m.logger
}

// SetModuleLevel changes a module's level at runtime. It reports false for
// an unknown level name.
func SetModuleLevel(module, level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}
	GetLogger(module)

	mu.Lock()
	defer mu.Unlock()
	if current.Modules == nil {
		current.Modules = make(map[string]string)
	}
	current.Modules[module] = level
	modules[module].level.Set(*parsed)
	return true
}

// moduleLevel must be called with mu held.
func moduleLevel(module string) slog.Level {
	level := levelOr(current.Level, slog.LevelInfo)
	if s, ok := current.Modules[module]; ok {
		level = levelOr(s, level)
	}
	return level
}

func levelOr(s string, fallback slog.Level) slog.Level {
	if l := parseLevel(s); l != nil {
		return *l
	}
	return fallback
}

// newHandler writes to stdout and the systemd journal, whichever exist.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	switch len(handlers) {
	case 0:
		return stdout
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable is false when stdout is /dev/null or closed.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 || mode.IsRegular()
}

func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
