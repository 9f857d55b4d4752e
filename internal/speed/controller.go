package speed

import "sync"

// Controller owns the playback speed of one player session.
//
// All methods are safe for concurrent use. Configuration is read from the
// Settings source on every operation so changes take effect on the next
// gesture.
type Controller struct {
	mu       sync.Mutex
	current  float64
	settings Settings
}

// Snapshot is a consistent view of a controller's speed and configuration.
type Snapshot struct {
	Speed  float64 `json:"speed"`
	Config Config  `json:"config"`
}

// NewController returns a controller at AutoSpeed. A nil settings source
// means DefaultConfig is used for every operation.
func NewController(settings Settings) *Controller {
	return &Controller{
		current:  AutoSpeed,
		settings: settings,
	}
}

// Increase multiplies the current speed by the configured multiplier and
// snaps the result to the catalog. It returns the new current speed, or the
// unchanged speed when the feature is disabled.
func (c *Controller) Increase() float64 {
	return c.Adjust(true)
}

// Decrease divides the current speed by the configured divider and snaps the
// result to the catalog. It returns the new current speed, or the unchanged
// speed when the feature is disabled.
func (c *Controller) Decrease() float64 {
	return c.Adjust(false)
}

// Adjust steps the speed up when increase is true and down otherwise.
func (c *Controller) Adjust(increase bool) float64 {
	cfg := LoadConfig(c.settings)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !cfg.Enabled {
		return c.current
	}

	raw := c.current / cfg.SlowDownDivider
	if increase {
		raw = c.current * cfg.SpeedUpMultiplier
	}
	c.current = Nearest(Clamp(raw))
	return c.current
}

// Reset returns the speed to AutoSpeed. Repeated calls are harmless. When the
// feature is disabled the current speed is returned unchanged.
func (c *Controller) Reset() float64 {
	cfg := LoadConfig(c.settings)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !cfg.Enabled {
		return c.current
	}
	c.current = AutoSpeed
	return c.current
}

// Sync aligns the controller with a speed reported by the player. The value
// is clamped and snapped like any computed speed. Sync applies whether or not
// the feature is enabled since it records what the player is doing rather
// than reacting to a gesture.
func (c *Controller) Sync(observed float64) float64 {
	s := Nearest(Clamp(observed))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = s
	return c.current
}

// Current returns the current speed.
func (c *Controller) Current() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Config returns the configuration the next operation would use.
func (c *Controller) Config() Config {
	return LoadConfig(c.settings)
}

// Snapshot returns the current speed together with the active configuration.
func (c *Controller) Snapshot() Snapshot {
	cfg := LoadConfig(c.settings)
	return Snapshot{Speed: c.Current(), Config: cfg}
}
