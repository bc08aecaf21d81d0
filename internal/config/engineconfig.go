// Package config loads the engine's ambient tuning file: the structured
// YAML knobs a deployment sets once (listen addresses, cycle pacing,
// polling mode, logging) as opposed to the game's own key=value Settings
// file (internal/settings). Grounded on
// udisondev-la2go/internal/config/config.go's LoadLoginServer pattern:
// build a struct of defaults, overlay a YAML file if present, return
// defaults unchanged if it isn't.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ListenerConfig is one address/family the network engine should bind.
type ListenerConfig struct {
	Name string `yaml:"name"`
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
	IPv6 bool   `yaml:"ipv6"`
}

// EngineConfig holds the ambient tuning values for a jmudserver process.
type EngineConfig struct {
	// Network
	Listeners           []ListenerConfig `yaml:"listeners"`
	MaxConnections       int             `yaml:"max_connections"` // not read by jmudserver: the cap is always derived from rlimit/FD_SETSIZE
	MaxSocketsPerThread  int             `yaml:"max_sockets_per_thread"`
	PollingMode          string          `yaml:"polling_mode"` // "epoll" or "select"
	StrictBind           bool            `yaml:"strict_bind"`

	// Game cycle
	CycleLengthMillis int `yaml:"cycle_length_millis"`
	CycleCount        int `yaml:"cycle_count"` // 0 = run indefinitely

	// World
	WorldDir         string `yaml:"world_dir"`
	StartingRoomVNum int    `yaml:"starting_room_vnum"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"` // "" = stdout
}

// CycleLength returns CycleLengthMillis as a time.Duration.
func (c EngineConfig) CycleLength() time.Duration {
	return time.Duration(c.CycleLengthMillis) * time.Millisecond
}

// DefaultEngineConfig returns the config a fresh deployment starts from:
// dual-stack listeners on the conventional jMUD port (IPv4 127.0.0.1 and
// IPv6 ::1), epoll polling, and the teacher's 250ms/indefinite cycle
// pacing.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Listeners: []ListenerConfig{
			{Name: "ipv4", Bind: "127.0.0.1", Port: 4000, IPv6: false},
			{Name: "ipv6", Bind: "::1", Port: 4000, IPv6: true},
		},
		MaxConnections:      0,
		MaxSocketsPerThread: 512,
		PollingMode:         "epoll",
		StrictBind:          true,

		CycleLengthMillis: 250,
		CycleCount:        0,

		WorldDir:         "./data/world",
		StartingRoomVNum: 12,

		LogLevel: "info",
		LogFile:  "",
	}
}

// Load reads an engine config YAML file at path, overlaying it on
// DefaultEngineConfig. A missing file is not an error: it returns the
// defaults unchanged, matching LoadLoginServer's treatment of an absent
// config file as "use defaults".
func Load(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}
