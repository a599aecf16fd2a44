package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetLogging() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig = Config{Level: "info", Format: "text"}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetLogging()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"led": "debug",
			"api": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"led", true, true, true},
		{"api", false, false, true},
		{"nats", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetLogging()

	before := GetLogger("led")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Format: "text", Modules: map[string]string{"led": "debug"}})

	if GetLogger("led") != before {
		t.Error("Logger should be cached across Initialize")
	}
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should follow the new module level")
	}
}

func TestSetLevelAtRuntime(t *testing.T) {
	resetLogging()
	Initialize(Config{Level: "warn", Format: "text"})

	logger := GetLogger("config")
	if logger.Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn")
	}

	if !SetLevel("config", "debug") {
		t.Fatal("SetLevel() rejected a valid level")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("SetLevel() did not take effect")
	}
	if SetLevel("config", "loud") {
		t.Error("SetLevel() accepted an invalid level")
	}

	// A later logger for the same module sees the override.
	if !GetLogger("config").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("override lost")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "led")
	logger.Debug("debug only message")
	logger.Info("info message", "led", "status")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
	if count := strings.Count(output, "info message"); count != 2 {
		t.Errorf("Expected 2 info messages, got %d. Output: %s", count, output)
	}
	if !strings.Contains(output, "module=led") {
		t.Errorf("WithAttrs not propagated. Output: %s", output)
	}
}

func TestJournalFields(t *testing.T) {
	h := NewJournalHandler(slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("module", "led")}).(*JournalHandler)

	r := slog.NewRecord(testTime, slog.LevelInfo, "LED changed", 0)
	r.AddAttrs(
		slog.String("led", "status"),
		slog.Int("index", 3),
		slog.Bool("initialized", true),
		slog.Group("pattern", slog.String("name", "SOS")),
		slog.String("http.path", "/api/leds"),
	)

	fields := h.fields(r)
	want := map[string]string{
		"SYSLOG_IDENTIFIER": Identifier,
		"MODULE":            "led",
		"LED":               "status",
		"INDEX":             "3",
		"INITIALIZED":       "true",
		"PATTERN_NAME":      "SOS",
		"HTTP_PATH":         "/api/leds",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, fields[k], v)
		}
	}

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("journal handler should respect its level")
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
		{" info ", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

var testTime = time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC)
