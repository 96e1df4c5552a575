package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/skirmish/internal/client"
	"github.com/danmuck/skirmish/internal/logging"
	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/server"
)

// ServerSettings is a loaded gameserver config.toml.
type ServerSettings struct {
	Server server.Config
	Log    logging.Config
}

// ClientSettings is a loaded gameclient config.toml.
type ClientSettings struct {
	Client client.Config
	Log    logging.Config
}

// gameserver config.toml key mapping to server runtime settings.
type serverFile struct {
	ID              string         `toml:"id"`
	Addr            string         `toml:"addr"`
	Path            string         `toml:"path"`
	CorsOrigins     []string       `toml:"cors_origins"`
	TickRate        int            `toml:"tick_rate"`
	MaxConnections  int            `toml:"max_connections"`
	MaxMessageBytes int64          `toml:"max_message_bytes"`
	SendQueueSize   int            `toml:"send_queue_size"`
	WriteTimeout    string         `toml:"write_timeout"`
	ShutdownTimeout string         `toml:"shutdown_timeout"`
	Log             logging.Config `toml:"log"`
}

// gameclient config.toml key mapping to client runtime settings.
type clientFile struct {
	URL              string         `toml:"url"`
	Name             string         `toml:"name"`
	BufferSize       int            `toml:"buffer_size"`
	HandshakeTimeout string         `toml:"handshake_timeout"`
	WriteTimeout     string         `toml:"write_timeout"`
	Reconnect        reconnectFile  `toml:"reconnect"`
	Log              logging.Config `toml:"log"`
}

type reconnectFile struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       bool    `toml:"jitter"`
	MaxAttempts  int     `toml:"max_attempts"`
}

func DefaultServerSettings() ServerSettings {
	return ServerSettings{
		Server: server.DefaultConfig(),
		Log:    logging.DefaultConfig(logging.ProfileRuntime),
	}
}

func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		Client: client.DefaultConfig(),
		Log:    logging.DefaultConfig(logging.ProfileRuntime),
	}
}

// LoadServerConfig overlays the keys present in path onto the defaults.
func LoadServerConfig(path string) (ServerSettings, error) {
	cfg := DefaultServerSettings()

	var raw serverFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerSettings{}, fmt.Errorf("load server config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ServerSettings{}, fmt.Errorf("load server config: unknown key %q", undecoded[0].String())
	}

	s := &cfg.Server
	if meta.IsDefined("id") {
		s.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("addr") {
		s.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("path") {
		s.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined("cors_origins") {
		s.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("tick_rate") {
		s.TickRate = raw.TickRate
	}
	if meta.IsDefined("max_connections") {
		s.MaxConnections = raw.MaxConnections
	}
	if meta.IsDefined("max_message_bytes") {
		s.MaxMessageBytes = raw.MaxMessageBytes
	}
	if meta.IsDefined("send_queue_size") {
		s.SendQueueSize = raw.SendQueueSize
	}
	if err := overlayDuration(meta, raw.WriteTimeout, &s.WriteTimeout, "write_timeout"); err != nil {
		return ServerSettings{}, fmt.Errorf("load server config: %w", err)
	}
	if err := overlayDuration(meta, raw.ShutdownTimeout, &s.ShutdownTimeout, "shutdown_timeout"); err != nil {
		return ServerSettings{}, fmt.Errorf("load server config: %w", err)
	}
	overlayLog(meta, raw.Log, &cfg.Log)

	if err := ValidateServerConfig(cfg.Server); err != nil {
		return ServerSettings{}, fmt.Errorf("load server config: %w", err)
	}
	return cfg, nil
}

// LoadClientConfig overlays the keys present in path onto the defaults.
func LoadClientConfig(path string) (ClientSettings, error) {
	cfg := DefaultClientSettings()

	var raw clientFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ClientSettings{}, fmt.Errorf("load client config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ClientSettings{}, fmt.Errorf("load client config: unknown key %q", undecoded[0].String())
	}

	c := &cfg.Client
	if meta.IsDefined("url") {
		c.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("name") {
		c.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("buffer_size") {
		c.BufferSize = raw.BufferSize
	}
	if err := overlayDuration(meta, raw.HandshakeTimeout, &c.HandshakeTimeout, "handshake_timeout"); err != nil {
		return ClientSettings{}, fmt.Errorf("load client config: %w", err)
	}
	if err := overlayDuration(meta, raw.WriteTimeout, &c.WriteTimeout, "write_timeout"); err != nil {
		return ClientSettings{}, fmt.Errorf("load client config: %w", err)
	}
	if err := overlayDuration(meta, raw.Reconnect.InitialDelay, &c.Backoff.InitialDelay, "reconnect", "initial_delay"); err != nil {
		return ClientSettings{}, fmt.Errorf("load client config: %w", err)
	}
	if err := overlayDuration(meta, raw.Reconnect.MaxDelay, &c.Backoff.MaxDelay, "reconnect", "max_delay"); err != nil {
		return ClientSettings{}, fmt.Errorf("load client config: %w", err)
	}
	if meta.IsDefined("reconnect", "multiplier") {
		c.Backoff.Multiplier = raw.Reconnect.Multiplier
	}
	if meta.IsDefined("reconnect", "jitter") {
		c.Backoff.Jitter = raw.Reconnect.Jitter
	}
	if meta.IsDefined("reconnect", "max_attempts") {
		c.MaxAttempts = raw.Reconnect.MaxAttempts
	}
	overlayLog(meta, raw.Log, &cfg.Log)

	if err := ValidateClientConfig(cfg.Client); err != nil {
		return ClientSettings{}, fmt.Errorf("load client config: %w", err)
	}
	return cfg, nil
}

func ValidateServerConfig(cfg server.Config) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("path must start with /: %q", cfg.Path)
	}
	if cfg.TickRate < 1 || cfg.TickRate > 255 {
		return fmt.Errorf("tick_rate must be between 1 and 255, got %d", cfg.TickRate)
	}
	if cfg.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.MaxMessageBytes < 1 {
		return fmt.Errorf("max_message_bytes must be positive, got %d", cfg.MaxMessageBytes)
	}
	if cfg.SendQueueSize < 1 {
		return fmt.Errorf("send_queue_size must be positive, got %d", cfg.SendQueueSize)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	return nil
}

func ValidateClientConfig(cfg client.Config) error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("url scheme must be ws or wss, got %q", u.Scheme)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(cfg.Name) > protocol.MaxNameLength {
		return fmt.Errorf("name exceeds %d bytes", protocol.MaxNameLength)
	}
	if cfg.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be positive, got %d", cfg.BufferSize)
	}
	if cfg.Backoff.Multiplier != 0 && cfg.Backoff.Multiplier < 1 {
		return fmt.Errorf("reconnect.multiplier must be >= 1, got %v", cfg.Backoff.Multiplier)
	}
	if cfg.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must not be negative")
	}
	return nil
}

func overlayDuration(meta toml.MetaData, raw string, dst *time.Duration, key ...string) error {
	if !meta.IsDefined(key...) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", strings.Join(key, "."), err)
	}
	*dst = d
	return nil
}

func overlayLog(meta toml.MetaData, raw logging.Config, dst *logging.Config) {
	if meta.IsDefined("log", "level") {
		dst.Level = strings.TrimSpace(raw.Level)
	}
	if meta.IsDefined("log", "format") {
		dst.Format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("log", "timestamp") {
		dst.Timestamp = raw.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		dst.NoColor = raw.NoColor
	}
	if meta.IsDefined("log", "file") {
		dst.File = strings.TrimSpace(raw.File)
	}
	if meta.IsDefined("log", "max_size_mb") {
		dst.MaxSizeMB = raw.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		dst.MaxBackups = raw.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		dst.MaxAgeDays = raw.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		dst.Compress = raw.Compress
	}
}
