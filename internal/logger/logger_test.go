package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

type logRecord struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	// Use JSON handler for easier parsing in tests
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	mu.Lock()
	originalLogger := Logger
	Logger = slog.New(handler)
	mu.Unlock()
	defer func() {
		mu.Lock()
		Logger = originalLogger
		mu.Unlock()
	}()

	tests := []struct {
		name  string
		fn    func(msg string, args ...any)
		level string
		msg   string
	}{
		{name: "Info", fn: Info, level: "INFO", msg: "info message"},
		{name: "Warn", fn: Warn, level: "WARN", msg: "warn message"},
		{name: "Error", fn: Error, level: "ERROR", msg: "error message"},
		{name: "Debug", fn: Debug, level: "DEBUG", msg: "debug message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(tt.msg, "key", "value")

			var rec logRecord
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if rec.Level != tt.level {
				t.Errorf("level = %q, want %q", rec.Level, tt.level)
			}
			if rec.Msg != tt.msg {
				t.Errorf("msg = %q, want %q", rec.Msg, tt.msg)
			}
		})
	}
}

func TestRedirect(t *testing.T) {
	mu.Lock()
	originalLogger := Logger
	mu.Unlock()
	defer func() {
		mu.Lock()
		Logger = originalLogger
		mu.Unlock()
	}()

	var buf bytes.Buffer
	Redirect(&buf)
	Info("redirected")

	if !strings.Contains(buf.String(), "redirected") {
		t.Errorf("expected redirected output, got %q", buf.String())
	}
}
