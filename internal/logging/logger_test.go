package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

func reset() {
	mu.Lock()
	defer mu.Unlock()
	modules = make(map[string]*moduleLogger)
	current = Config{}
	initialized = false
}

func TestModuleLevelOverride(t *testing.T) {
	reset()
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"gateway":   "debug",
			"streaming": "warn",
			"api":       "bogus",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"gateway", true, true, true},
		{"streaming", false, false, true},
		{"api", false, true, true},
		{"router", false, true, true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			h := GetLogger(tt.module).Handler()
			if got := h.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := h.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := h.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	reset()

	before := GetLogger("gateway")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"gateway": "debug"}})

	after := GetLogger("gateway")
	if before != after {
		t.Error("GetLogger should return the same logger across Initialize")
	}
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("early logger should pick up the configured module level")
	}
}

func TestSetModuleLevel(t *testing.T) {
	reset()
	Initialize(Config{Level: "info"})
	logger := GetLogger("router")

	if !SetModuleLevel("router", "debug") {
		t.Fatal("SetModuleLevel rejected debug")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug not enabled after SetModuleLevel")
	}
	if SetModuleLevel("router", "loud") {
		t.Error("SetModuleLevel accepted an unknown level")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("invalid level should leave the module unchanged")
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(multi).With("module", "gateway")

	logger.Debug("route applied", "output", 3)
	logger.Info("controller connected")

	if strings.Count(debugBuf.String(), "route applied") != 1 {
		t.Errorf("debug handler output: %s", debugBuf.String())
	}
	if strings.Contains(infoBuf.String(), "route applied") {
		t.Errorf("info handler received a debug record: %s", infoBuf.String())
	}
	for _, out := range []string{debugBuf.String(), infoBuf.String()} {
		if !strings.Contains(out, "controller connected") || !strings.Contains(out, "module=gateway") {
			t.Errorf("missing info record or module attr: %s", out)
		}
	}
}

func TestJournalFields(t *testing.T) {
	h := NewJournalHandler(slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("module", "gateway")}).
		WithGroup("peer")

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("journal handler enabled below its level")
	}

	jh := h.(*JournalHandler)
	r := slog.NewRecord(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelWarn, "controller gone", 0)
	r.AddAttrs(slog.String("addr", "10.0.0.5:50123"), slog.Int("queued", 2))

	fields := journalFields(r, jh.attrs, jh.groups)
	want := map[string]string{
		"MESSAGE":           "controller gone",
		"SYSLOG_IDENTIFIER": "videohubd",
		"PEER_MODULE":       "gateway",
		"PEER_ADDR":         "10.0.0.5:50123",
		"PEER_QUEUED":       "2",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, fields[k], v)
		}
	}
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  journal.Priority
	}{
		{slog.LevelDebug, journal.PriDebug},
		{slog.LevelInfo, journal.PriInfo},
		{slog.LevelWarn, journal.PriWarning},
		{slog.LevelError, journal.PriErr},
		{slog.LevelError + 4, journal.PriErr},
	}
	for _, tt := range tests {
		if got := priorityFor(tt.level); got != tt.want {
			t.Errorf("priorityFor(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandlerKeepsGoingOnError(t *testing.T) {
	var buf bytes.Buffer
	text := slog.NewTextHandler(&buf, nil)
	multi := NewMultiHandler(failingHandler{text}, nil, text)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "broadcast queued", 0)
	if err := multi.Handle(context.Background(), r); err == nil {
		t.Error("Handle should report the failing sink")
	}
	if !strings.Contains(buf.String(), "broadcast queued") {
		t.Errorf("healthy sink skipped: %q", buf.String())
	}
}
