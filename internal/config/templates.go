package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Validate loads path as kind and reports the first problem.
func Validate(path, kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		_, err := LoadServerConfig(path)
		return err
	case "client":
		_, err := LoadClientConfig(path)
		return err
	default:
		return fmt.Errorf("unknown config kind: %s", kind)
	}
}

const serverTemplate = `id = "gameserver"
addr = "127.0.0.1:8000"
path = "/play"
cors_origins = ["http://localhost:5173"]
tick_rate = 30
max_connections = 256
max_message_bytes = 4096
send_queue_size = 64
write_timeout = "5s"
shutdown_timeout = "5s"

[log]
level = "info"
format = "console"
timestamp = true
file = ""
`

const clientTemplate = `url = "ws://127.0.0.1:8000/play"
name = "player"
buffer_size = 1024
handshake_timeout = "5s"
write_timeout = "5s"

[reconnect]
initial_delay = "250ms"
multiplier = 2.0
max_delay = "5s"
jitter = true
max_attempts = 0

[log]
level = "info"
format = "console"
timestamp = true
`
