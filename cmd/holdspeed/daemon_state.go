package main

import (
	"time"

	"holdspeed/internal/speed"
)

// DaemonState is the daemon-owned state container.
//
// It is only touched by the daemon goroutine. Other goroutines get copies
// through RequestStateSnapshot.
type DaemonState struct {
	// Player is what the player last reported (or confirmed) about its rate.
	Player PlayerState

	// Gesture is the press-and-hold tracking state.
	Gesture GestureState

	// Speed is the controller speed last published to clients.
	Speed float64

	// Config is the effective configuration last published to clients.
	Config      speed.Config
	ConfigKnown bool
}

// PlayerState is the daemon's cached view of the player.
type PlayerState struct {
	Rate      float64
	RateKnown bool
	RateAt    time.Time

	// Stale is set when applying a rate failed and cleared by the next observation.
	Stale bool
}

// StateSnapshot is a copy of the externally relevant state.
type StateSnapshot struct {
	Speed         float64      `json:"speed"`
	PlayerRate    float64      `json:"player_rate"`
	PlayerKnown   bool         `json:"player_rate_known"`
	PlayerRateAt  time.Time    `json:"player_rate_at"`
	HeldDirection int          `json:"held_direction"`
	Config        speed.Config `json:"config"`
}

// NewDaemonState returns state for a controller at AutoSpeed with the player rate unknown.
func NewDaemonState() *DaemonState {
	return &DaemonState{Speed: speed.AutoSpeed}
}

// SetObservedRate updates the cached player rate.
func (s *DaemonState) SetObservedRate(rate float64, now time.Time) {
	s.Player.Rate = rate
	s.Player.RateKnown = true
	s.Player.RateAt = now
	s.Player.Stale = false
}

// InvalidateRate forgets the cached player rate so the next speed is re-sent.
func (s *DaemonState) InvalidateRate() {
	s.Player.RateKnown = false
	s.Player.Stale = true
}

func (s *DaemonState) snapshot() StateSnapshot {
	return StateSnapshot{
		Speed:         s.Speed,
		PlayerRate:    s.Player.Rate,
		PlayerKnown:   s.Player.RateKnown,
		PlayerRateAt:  s.Player.RateAt,
		HeldDirection: s.Gesture.HeldDirection,
		Config:        s.Config,
	}
}
