package main

import (
	"time"

	"holdspeed/internal/speed"
)

// StateBroadcast is a state change published to websocket clients.
// Broadcasts are produced by the reducer and fanned out by RunBroadcaster.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastSpeedChanged reports a new controller speed.
type BroadcastSpeedChanged struct {
	Speed float64
	At    time.Time
}

func (BroadcastSpeedChanged) broadcastMarker() {}

// BroadcastHoldChanged reports a gesture starting, reversing, or ending (Direction 0).
type BroadcastHoldChanged struct {
	Direction int
	At        time.Time
}

func (BroadcastHoldChanged) broadcastMarker() {}

// BroadcastSettingsChanged reports a new effective configuration.
type BroadcastSettingsChanged struct {
	Config speed.Config
	At     time.Time
}

func (BroadcastSettingsChanged) broadcastMarker() {}
