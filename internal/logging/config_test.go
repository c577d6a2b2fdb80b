package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := ParseLevel(raw)
		if !ok {
			t.Fatalf("expected %q to parse", raw)
		}
		if got != want {
			t.Fatalf("unexpected level for %q: got=%v want=%v", raw, got, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
	if _, ok := ParseLevel(""); ok {
		t.Fatalf("expected empty level to be rejected")
	}
}

func TestNewWritesConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig(ProfileTest)
	cfg.Out = &buf
	cfg.NoColor = true
	cfg.App = "boat.alpha"

	logger := New(cfg)
	logger.Info().Str("state", "start").Msg("agent.Agent.Step")

	out := buf.String()
	if !strings.Contains(out, "agent.Agent.Step") {
		t.Fatalf("missing message in output: %q", out)
	}
	if !strings.Contains(out, "boat.alpha") {
		t.Fatalf("missing app field in output: %q", out)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig(ProfileRuntime)
	cfg.Out = &buf
	cfg.NoColor = true
	cfg.Level = zerolog.WarnLevel

	logger := New(cfg)
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestNewWritesRollingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boat.log")

	var buf bytes.Buffer
	cfg := DefaultConfig(ProfileTest)
	cfg.Out = &buf
	cfg.NoColor = true
	cfg.File = path

	logger := New(cfg)
	logger.Warn().Msg("frame rejected")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "frame rejected") {
		t.Fatalf("missing message in file: %q", string(data))
	}
}
