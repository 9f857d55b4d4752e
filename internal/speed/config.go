package speed

import "math"

// Settings keys read by LoadConfig.
const (
	KeyEnabled           = "dynamic_speed_enabled"
	KeySpeedUpMultiplier = "speed_up_multiplier"
	KeySlowDownDivider   = "slow_down_divider"
)

// Defaults and bounds for the user-adjustable factors.
const (
	DefaultEnabled           = true
	DefaultSpeedUpMultiplier = 2.0
	DefaultSlowDownDivider   = 2.0

	MinFactor = 1.1
	MaxFactor = 4.0
)

// Settings is the read side of the external settings store.
//
// Implementations return def whenever the value is missing or cannot be read.
// The controller never writes settings.
type Settings interface {
	Bool(key string, def bool) bool
	Float(key string, def float64) float64
}

// Config holds the user-adjustable parameters of the controller.
type Config struct {
	Enabled           bool    `json:"enabled" yaml:"enabled"`
	SpeedUpMultiplier float64 `json:"speed_up_multiplier" yaml:"speed_up_multiplier"`
	SlowDownDivider   float64 `json:"slow_down_divider" yaml:"slow_down_divider"`
}

// DefaultConfig returns the configuration used when no settings are available.
func DefaultConfig() Config {
	return Config{
		Enabled:           DefaultEnabled,
		SpeedUpMultiplier: DefaultSpeedUpMultiplier,
		SlowDownDivider:   DefaultSlowDownDivider,
	}
}

// Normalized coerces out-of-range factors into [MinFactor, MaxFactor].
// Non-finite factors are replaced by their defaults.
func (c Config) Normalized() Config {
	c.SpeedUpMultiplier = clampFactor(c.SpeedUpMultiplier, DefaultSpeedUpMultiplier)
	c.SlowDownDivider = clampFactor(c.SlowDownDivider, DefaultSlowDownDivider)
	return c
}

func clampFactor(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	if v < MinFactor {
		return MinFactor
	}
	if v > MaxFactor {
		return MaxFactor
	}
	return v
}

// LoadConfig reads the controller configuration from s and normalizes it.
// A nil s yields DefaultConfig.
func LoadConfig(s Settings) Config {
	if s == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:           s.Bool(KeyEnabled, DefaultEnabled),
		SpeedUpMultiplier: s.Float(KeySpeedUpMultiplier, DefaultSpeedUpMultiplier),
		SlowDownDivider:   s.Float(KeySlowDownDivider, DefaultSlowDownDivider),
	}.Normalized()
}

// StaticSettings serves a fixed Config through the Settings interface.
type StaticSettings Config

func (s StaticSettings) Bool(key string, def bool) bool {
	if key == KeyEnabled {
		return s.Enabled
	}
	return def
}

func (s StaticSettings) Float(key string, def float64) float64 {
	switch key {
	case KeySpeedUpMultiplier:
		return s.SpeedUpMultiplier
	case KeySlowDownDivider:
		return s.SlowDownDivider
	}
	return def
}
