package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigOverlaysDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
addr = "0.0.0.0:9000"
tick_rate = 60
write_timeout = "250ms"

[log]
level = "debug"
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Server.TickRate != 60 {
		t.Fatalf("unexpected overlay: %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 250*time.Millisecond {
		t.Fatalf("expected write_timeout 250ms, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Server.Path != "/play" || cfg.Server.MaxConnections != 256 {
		t.Fatalf("expected unset keys to keep defaults, got %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Timestamp {
		t.Fatalf("unexpected log overlay: %+v", cfg.Log)
	}
}

func TestLoadServerConfigRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"tick rate":   `tick_rate = 0`,
		"duration":    `write_timeout = "soon"`,
		"path":        `path = "play"`,
		"unknown key": `players = 4`,
		"syntax":      `addr = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadServerConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error for %q", body)
			}
		})
	}
}

func TestLoadClientConfigOverlaysDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
url = "wss://play.example/play"
name = "alice"

[reconnect]
initial_delay = "1s"
max_attempts = 3
jitter = false
`)
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c := cfg.Client
	if c.URL != "wss://play.example/play" || c.Name != "alice" {
		t.Fatalf("unexpected overlay: %+v", c)
	}
	if c.Backoff.InitialDelay != time.Second || c.Backoff.Jitter || c.MaxAttempts != 3 {
		t.Fatalf("unexpected reconnect overlay: %+v attempts=%d", c.Backoff, c.MaxAttempts)
	}
	if c.Backoff.Multiplier != 2.0 || c.BufferSize != protocol.DefaultSendBufferSize {
		t.Fatalf("expected unset keys to keep defaults, got %+v", c)
	}
}

func TestLoadClientConfigRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"scheme":     `url = "http://localhost:8000/play"`,
		"name":       `name = "` + strings.Repeat("x", protocol.MaxNameLength+1) + `"`,
		"empty name": `name = " "`,
		"multiplier": "[reconnect]\nmultiplier = 0.5",
		"attempts":   "[reconnect]\nmax_attempts = -1",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadClientConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error for %q", body)
			}
		})
	}
}

func TestTemplatesValidate(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	for _, kind := range []string{"server", "client"} {
		path := filepath.Join(dir, kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		if err := Validate(path, kind); err != nil {
			t.Fatalf("%s template invalid: %v", kind, err)
		}
		if err := WriteTemplate(path, kind, false); err == nil {
			t.Fatalf("expected existing %s config to be preserved", kind)
		}
		if err := WriteTemplate(path, kind, true); err != nil {
			t.Fatalf("overwrite %s template: %v", kind, err)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
