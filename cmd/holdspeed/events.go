package main

import (
	"time"

	"holdspeed/internal/control"
)

// Event is the input to the reducer.
// It can be a gesture/settings action, a Tick, or a response/error from an effect.
type Event interface {
	eventMarker()
}

// Tick is emitted by the daemon loop at a fixed cadence.
type Tick struct {
	Now time.Time
}

func (Tick) eventMarker() {}

// ActionEvent wraps a control.Action from a gesture source.
// At is assigned by the daemon loop when zero.
type ActionEvent struct {
	Action control.Action
	At     time.Time
}

func (ActionEvent) eventMarker() {}

// PlayerRateObserved is emitted after a successful GetPlaybackRate or SetPlaybackRate.
type PlayerRateObserved struct {
	Rate float64
	At   time.Time
}

func (PlayerRateObserved) eventMarker() {}

// PlayerCommandFailed is emitted when a player command fails.
type PlayerCommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (PlayerCommandFailed) eventMarker() {}

// SettingsApplied is emitted after settings were written (or on startup)
// so the reducer can publish the effective configuration.
type SettingsApplied struct {
	At time.Time
}

func (SettingsApplied) eventMarker() {}

// RequestStateSnapshot asks the daemon loop for a coherent snapshot.
// The reply is delivered by the effects layer.
type RequestStateSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}
