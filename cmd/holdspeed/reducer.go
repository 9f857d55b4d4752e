package main

import (
	"time"

	"holdspeed/internal/control"
	"holdspeed/internal/speed"
)

// This file implements the reducer-style architecture building blocks:
//
//   - Events: inputs to the reducer (gestures, time ticks, player observations, command failures)
//   - Commands: side effects requested by the reducer (player rate, settings writes)
//   - Broadcasts: state changes for websocket clients
//   - Reduce(): computes next state + commands + broadcasts, without performing I/O
//
// The speed controller is the one piece of state Reduce changes outside
// DaemonState. It is owned by the daemon goroutine; everything else reads the
// speed from snapshots.

// ReduceResult is the output of Reduce().
type ReduceResult struct {
	State      *DaemonState
	Commands   []Command
	Broadcasts []StateBroadcast
}

type reduction struct {
	s     *DaemonState
	ctrl  *speed.Controller
	cmds  []Command
	bcast []StateBroadcast
}

// Reduce applies one event.
//
// Rules:
// - Must not perform I/O
// - Must not block
//
// The daemon loop must execute Commands, translate responses into Events and
// feed those Events back into Reduce().
func Reduce(s *DaemonState, e Event, ctrl *speed.Controller, cfg GestureConfig) ReduceResult {
	if s == nil {
		s = NewDaemonState()
	}
	if ctrl == nil {
		ctrl = speed.NewController(nil)
	}
	r := &reduction{s: s, ctrl: ctrl}

	switch ev := e.(type) {
	case Tick:
		next, outcome := StepGesture(s.Gesture, ev.Now, cfg)
		s.Gesture = next
		switch outcome {
		case gestureRepeat:
			r.setSpeed(ctrl.Adjust(s.Gesture.HeldDirection > 0), ev.Now)
		case gestureTimedOut:
			r.holdChanged(0, ev.Now)
			r.setSpeed(ctrl.Reset(), ev.Now)
		}

	case ActionEvent:
		r.reduceAction(ev.Action, ev.At)

	case PlayerRateObserved:
		s.SetObservedRate(ev.Rate, ev.At)
		// The controller follows the player only while no gesture is in progress.
		if !s.Gesture.Held() {
			_ = r.publishSpeed(ctrl.Sync(ev.Rate), ev.At)
		}

	case PlayerCommandFailed:
		// Controller state is left as is. A failed apply leaves the player's rate
		// in doubt, so the next speed is sent even if unchanged.
		if _, ok := ev.Command.(CmdApplyRate); ok {
			s.InvalidateRate()
		}

	case SettingsApplied:
		eff := ctrl.Config()
		if !s.ConfigKnown || eff != s.Config {
			s.Config = eff
			s.ConfigKnown = true
			r.bcast = append(r.bcast, BroadcastSettingsChanged{Config: eff, At: ev.At})
		}

	case RequestStateSnapshot:
		r.cmds = append(r.cmds, CmdPublishStateSnapshot{Reply: ev.Reply, Snapshot: s.snapshot()})

	default:
		// Unknown event type: no-op.
	}

	return ReduceResult{
		State:      s,
		Commands:   r.cmds,
		Broadcasts: r.bcast,
	}
}

func (r *reduction) reduceAction(a control.Action, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	s := r.s

	switch a := a.(type) {
	case control.SpeedHeld:
		if a.Direction != control.Up && a.Direction != control.Down {
			return
		}
		next, began := s.Gesture.Hold(a.Direction, at)
		s.Gesture = next
		if began {
			r.holdChanged(a.Direction, at)
			r.setSpeed(r.ctrl.Adjust(a.Direction > 0), at)
		}

	case control.SpeedRelease:
		if s.Gesture.Held() {
			s.Gesture = s.Gesture.Release()
			r.holdChanged(0, at)
		}
		r.setSpeed(r.ctrl.Reset(), at)

	case control.SpeedStep:
		if a.Direction != control.Up && a.Direction != control.Down {
			return
		}
		r.setSpeed(r.ctrl.Adjust(a.Direction > 0), at)

	case control.SpeedReset:
		r.setSpeed(r.ctrl.Reset(), at)

	case control.SettingsUpdate:
		if a.Empty() {
			return
		}
		r.cmds = append(r.cmds, CmdWriteSettings{Update: a})

	default:
		// no-op
	}
}

// setSpeed publishes a controller result and asks the player to apply it.
// An unchanged speed (disabled feature, bound reached) is only re-sent when
// the player is known to be elsewhere or a previous apply failed.
func (r *reduction) setSpeed(v float64, at time.Time) {
	changed := r.publishSpeed(v, at)
	p := r.s.Player
	if p.RateKnown && p.Rate == v {
		return
	}
	if changed || p.RateKnown || p.Stale {
		r.cmds = append(r.cmds, CmdApplyRate{Rate: v})
	}
}

func (r *reduction) publishSpeed(v float64, at time.Time) bool {
	if v == r.s.Speed {
		return false
	}
	r.s.Speed = v
	r.bcast = append(r.bcast, BroadcastSpeedChanged{Speed: v, At: at})
	return true
}

func (r *reduction) holdChanged(direction int, at time.Time) {
	r.bcast = append(r.bcast, BroadcastHoldChanged{Direction: direction, At: at})
}
