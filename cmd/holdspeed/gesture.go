package main

import "time"

// GestureConfig contains the tunable press-and-hold parameters.
type GestureConfig struct {
	// HoldTimeout auto-releases a hold if no held event arrives in this
	// duration. 0 disables the timeout.
	HoldTimeout time.Duration

	// RepeatInterval steps again while a hold continues. 0 means one step per press.
	RepeatInterval time.Duration
}

// GestureState tracks the current press-and-hold gesture.
type GestureState struct {
	// HeldDirection: -1 for down, 0 for none, 1 for up
	HeldDirection int

	HoldBeganAt time.Time
	LastHeldAt  time.Time
	LastStepAt  time.Time
}

// Held reports whether a gesture is in progress.
func (g GestureState) Held() bool {
	return g.HeldDirection != 0
}

// Hold records a held event. It reports whether a new gesture began, either
// from idle or by reversing direction.
func (g GestureState) Hold(direction int, now time.Time) (GestureState, bool) {
	began := g.HeldDirection == 0 || direction != g.HeldDirection
	if began {
		g.HeldDirection = direction
		g.HoldBeganAt = now
		g.LastStepAt = now
	}
	g.LastHeldAt = now
	return g, began
}

// Release ends the gesture so the next hold starts fresh.
func (g GestureState) Release() GestureState {
	return GestureState{}
}

type gestureOutcome int

const (
	gestureNone gestureOutcome = iota
	gestureRepeat
	gestureTimedOut
)

// StepGesture advances a held gesture to now. It reports a timeout when no
// held event has been seen for cfg.HoldTimeout, or a repeat when
// cfg.RepeatInterval has elapsed since the last step.
func StepGesture(g GestureState, now time.Time, cfg GestureConfig) (GestureState, gestureOutcome) {
	if !g.Held() {
		return g, gestureNone
	}

	// Protects against missing release events or sources that only emit repeats sporadically.
	if cfg.HoldTimeout > 0 && !g.LastHeldAt.IsZero() && now.Sub(g.LastHeldAt) > cfg.HoldTimeout {
		return g.Release(), gestureTimedOut
	}

	if cfg.RepeatInterval > 0 && now.Sub(g.LastStepAt) >= cfg.RepeatInterval {
		g.LastStepAt = now
		return g, gestureRepeat
	}

	return g, gestureNone
}
