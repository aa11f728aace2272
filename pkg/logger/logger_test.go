package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vrpdfd/pkg/config"
)

func TestInitWithConfig_Levels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, level := range levels {
		closer := InitWithConfig(Config{Level: level, Format: "json", Output: "stderr"})
		if Log == nil {
			t.Errorf("InitWithConfig(%s) should set Log", level)
		}
		_ = closer.Close()
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"trace", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Level: "info", Format: "json"})

	log.Debug("hidden")
	log.Info("max flow solved", "value", 4.5, "nodes", 6)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["msg"] != "max flow solved" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["value"] != 4.5 {
		t.Errorf("unexpected value: %v", entry["value"])
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Level: "debug", Format: "text"})
	log.Debug("tsp solved", "method", "held_karp")

	if !strings.Contains(buf.String(), "method=held_karp") {
		t.Errorf("expected text attrs, got %q", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	c := FromConfig(config.LogConfig{Level: "warn", Format: "text", Output: "file", FilePath: "x.log", MaxSize: 5})
	if c.Level != "warn" || c.Output != "file" || c.FilePath != "x.log" || c.MaxSize != 5 {
		t.Errorf("unexpected conversion: %+v", c)
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	closer := InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	})
	Log.Info("test message")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "test message") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestInitWithConfig_FileOutputInvalidDir(t *testing.T) {
	// Файл внутри обычного файла создать нельзя - откат на stderr
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	closer := InitWithConfig(Config{
		Level:    "info",
		Output:   "file",
		FilePath: filepath.Join(blocker, "dir", "test.log"),
	})
	defer closer.Close()

	if Log == nil {
		t.Error("Log should not be nil even with invalid path")
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer
	Log = New(&buf, Config{Level: "warn"})

	Warn("warn message", "key", "value")
	Error("error message", "code", "INVALID_GRAPH")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"WARN"`) || !strings.Contains(lines[1], `"code":"INVALID_GRAPH"`) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	Log = New(&buf, Config{Level: "info"})

	WithRunID("run-123").Info("a")
	WithService("solver").Info("b")

	out := buf.String()
	for _, want := range []string{`"run_id":"run-123"`, `"service":"solver"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}
