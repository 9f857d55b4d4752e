package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"holdspeed/internal/control"
	"holdspeed/internal/settings"
)

// Config is the top-level YAML configuration for the holdspeed daemon.
//
// The config file is the primary configuration surface; flags are small
// overrides on top of it. Defaults and validation are centralized here so the
// rest of the code can assume a well-formed config.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Player   PlayerConfig   `yaml:"player"`
	Gesture  GestureFile    `yaml:"gesture"`
	Settings SettingsConfig `yaml:"settings"`
	IPC      IPCConfig      `yaml:"ipc"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig lists the evdev devices that carry the speed keys.
// An empty device list disables key input; IPC and HTTP still work.
type InputConfig struct {
	Devices []string `yaml:"devices,omitempty"`
	UpKey   int      `yaml:"up_key"`
	DownKey int      `yaml:"down_key"`
}

type PlayerConfig struct {
	WsURL           string `yaml:"ws_url"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	ConnectAttempts int    `yaml:"connect_attempts"`
}

// GestureFile is the YAML form of GestureConfig.
type GestureFile struct {
	UpdateHz         int `yaml:"update_hz"`
	HoldTimeoutMS    int `yaml:"hold_timeout_ms"`
	RepeatIntervalMS int `yaml:"repeat_interval_ms"`
}

type SettingsConfig struct {
	Backend string `yaml:"backend"` // bolt, badger or memory
	Path    string `yaml:"path"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the HTTP API
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			UpKey:   KEY_FASTFORWARD,
			DownKey: KEY_REWIND,
		},
		Player: PlayerConfig{
			WsURL:           "ws://127.0.0.1:8765",
			TimeoutMS:       defaultReadTimeoutMS,
			ConnectAttempts: defaultConnectAttempts,
		},
		Gesture: GestureFile{
			UpdateHz:         defaultUpdateHz,
			HoldTimeoutMS:    defaultHoldTimeoutMS,
			RepeatIntervalMS: defaultRepeatIntervalMS,
		},
		Settings: SettingsConfig{
			Backend: settings.BackendBolt,
			Path:    "~/.local/state/holdspeed/settings.db",
		},
		IPC: IPCConfig{
			SocketPath: control.DefaultSocketPath,
		},
		HTTP: HTTPConfig{
			Listen: defaultHTTPListen,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
// Unknown fields are rejected to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds flag values to apply on top of a loaded config.
// A nil pointer means the flag was not set.
type FlagOverrides struct {
	InputDevice *string

	PlayerWsURL     *string
	PlayerTimeoutMS *int

	HoldTimeoutMS    *int
	RepeatIntervalMS *int

	SettingsBackend *string
	SettingsPath    *string

	IPCSocketPath *string
	HTTPListen    *string

	LogLevel *string
}

// Apply merges the overrides into cfg. Non-nil values are applied even when
// they are zero values.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.InputDevice != nil {
		if *o.InputDevice == "" {
			cfg.Input.Devices = nil
		} else {
			cfg.Input.Devices = []string{*o.InputDevice}
		}
	}
	if o.PlayerWsURL != nil {
		cfg.Player.WsURL = *o.PlayerWsURL
	}
	if o.PlayerTimeoutMS != nil {
		cfg.Player.TimeoutMS = *o.PlayerTimeoutMS
	}
	if o.HoldTimeoutMS != nil {
		cfg.Gesture.HoldTimeoutMS = *o.HoldTimeoutMS
	}
	if o.RepeatIntervalMS != nil {
		cfg.Gesture.RepeatIntervalMS = *o.RepeatIntervalMS
	}
	if o.SettingsBackend != nil {
		cfg.Settings.Backend = *o.SettingsBackend
	}
	if o.SettingsPath != nil {
		cfg.Settings.Path = *o.SettingsPath
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.HTTPListen != nil {
		cfg.HTTP.Listen = *o.HTTPListen
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if c.Input.UpKey <= 0 || c.Input.UpKey > 0xffff || c.Input.DownKey <= 0 || c.Input.DownKey > 0xffff {
		return errors.New("input.up_key and input.down_key must be valid key codes")
	}
	if c.Input.UpKey == c.Input.DownKey {
		return errors.New("input.up_key and input.down_key must differ")
	}

	if c.Player.WsURL == "" {
		return errors.New("player.ws_url must not be empty")
	}
	if c.Player.TimeoutMS <= 0 {
		return errors.New("player.timeout_ms must be > 0")
	}
	if c.Player.ConnectAttempts <= 0 {
		return errors.New("player.connect_attempts must be > 0")
	}

	if c.Gesture.UpdateHz <= 0 || c.Gesture.UpdateHz > 1000 {
		return errors.New("gesture.update_hz must be between 1 and 1000")
	}
	if c.Gesture.HoldTimeoutMS < 0 {
		return errors.New("gesture.hold_timeout_ms must be >= 0")
	}
	if c.Gesture.RepeatIntervalMS < 0 {
		return errors.New("gesture.repeat_interval_ms must be >= 0")
	}

	switch c.Settings.Backend {
	case settings.BackendBolt, settings.BackendBadger:
		if c.Settings.Path == "" {
			return fmt.Errorf("settings.path must not be empty for backend %q", c.Settings.Backend)
		}
	case settings.BackendMemory:
	default:
		return fmt.Errorf("settings.backend must be %q, %q or %q",
			settings.BackendBolt, settings.BackendBadger, settings.BackendMemory)
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToGestureConfig converts the file config into the reducer's GestureConfig.
func (c *Config) ToGestureConfig() GestureConfig {
	return GestureConfig{
		HoldTimeout:    time.Duration(c.Gesture.HoldTimeoutMS) * time.Millisecond,
		RepeatInterval: time.Duration(c.Gesture.RepeatIntervalMS) * time.Millisecond,
	}
}

// Keys returns the configured key codes.
func (c *Config) Keys() keyMap {
	return keyMap{Up: uint16(c.Input.UpKey), Down: uint16(c.Input.DownKey)}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
