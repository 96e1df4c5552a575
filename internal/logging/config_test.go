package logging

import (
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
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) = %v, %v; want %v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogFormat, "json")

	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != "error" || cfg.Timestamp || !cfg.NoColor || cfg.Format != "json" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	t.Setenv(EnvLogLevel, "loud")
	cfg = DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != "info" {
		t.Fatalf("invalid env level should be ignored, got %q", cfg.Level)
	}
}

func TestSetupWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	cfg := DefaultConfig(ProfileTest)
	cfg.NoColor = true
	cfg.File = path

	logger := Setup("gameserver", cfg)
	logger.Info().Str("player", "alice").Msg("player connected")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"message":"player connected"`) || !strings.Contains(line, `"app":"gameserver"`) {
		t.Fatalf("unexpected log file contents: %s", line)
	}
}
