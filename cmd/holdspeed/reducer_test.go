package main

import (
	"testing"
	"time"

	"holdspeed/internal/control"
	"holdspeed/internal/speed"
)

func applyRates(t *testing.T, cmds []Command) []float64 {
	t.Helper()
	var rates []float64
	for _, c := range cmds {
		if a, ok := c.(CmdApplyRate); ok {
			rates = append(rates, a.Rate)
		}
	}
	return rates
}

func speedBroadcasts(bs []StateBroadcast) []float64 {
	var out []float64
	for _, b := range bs {
		if sc, ok := b.(BroadcastSpeedChanged); ok {
			out = append(out, sc.Speed)
		}
	}
	return out
}

func held(dir int, at time.Time) ActionEvent {
	return ActionEvent{Action: control.SpeedHeld{Direction: dir}, At: at}
}

func TestReduce_HoldStepsOnceAndReleaseResets(t *testing.T) {
	ctrl := speed.NewController(nil)
	cfg := GestureConfig{}
	t0 := time.Unix(1000, 0).UTC()

	s := NewDaemonState()
	s.SetObservedRate(1.0, t0)

	rr := Reduce(s, held(control.Up, t0), ctrl, cfg)
	if got := applyRates(t, rr.Commands); len(got) != 1 || got[0] != 2.0 {
		t.Fatalf("expected CmdApplyRate(2) on hold, got %v", rr.Commands)
	}
	if len(rr.Broadcasts) != 2 {
		t.Fatalf("expected hold + speed broadcasts, got %d", len(rr.Broadcasts))
	}
	hc, ok := rr.Broadcasts[0].(BroadcastHoldChanged)
	if !ok || hc.Direction != control.Up || !hc.At.Equal(t0) {
		t.Fatalf("expected BroadcastHoldChanged(up) first, got %#v", rr.Broadcasts[0])
	}
	if rr.State.Speed != 2.0 || rr.State.Gesture.HeldDirection != control.Up {
		t.Fatalf("unexpected state after hold: speed=%v held=%d", rr.State.Speed, rr.State.Gesture.HeldDirection)
	}

	// Player confirms; no sync while held.
	rr = Reduce(rr.State, PlayerRateObserved{Rate: 2.0, At: t0}, ctrl, cfg)
	if len(rr.Commands) != 0 || len(rr.Broadcasts) != 0 {
		t.Fatalf("expected no output on confirmation, got %v / %v", rr.Commands, rr.Broadcasts)
	}

	// Autorepeat of the same key does not step again.
	rr = Reduce(rr.State, held(control.Up, t0.Add(100*time.Millisecond)), ctrl, cfg)
	if len(rr.Commands) != 0 || len(rr.Broadcasts) != 0 {
		t.Fatalf("expected repeat held event to be silent, got %v / %v", rr.Commands, rr.Broadcasts)
	}
	if ctrl.Current() != 2.0 {
		t.Fatalf("expected controller at 2.0, got %v", ctrl.Current())
	}

	rr = Reduce(rr.State, ActionEvent{Action: control.SpeedRelease{}, At: t0.Add(time.Second)}, ctrl, cfg)
	if got := applyRates(t, rr.Commands); len(got) != 1 || got[0] != speed.AutoSpeed {
		t.Fatalf("expected CmdApplyRate(1) on release, got %v", rr.Commands)
	}
	if rr.State.Gesture.Held() {
		t.Fatalf("expected gesture released")
	}
	hc, ok = rr.Broadcasts[0].(BroadcastHoldChanged)
	if !ok || hc.Direction != 0 {
		t.Fatalf("expected BroadcastHoldChanged(0), got %#v", rr.Broadcasts[0])
	}
}

func TestReduce_ReversalStepsOtherWay(t *testing.T) {
	ctrl := speed.NewController(nil)
	t0 := time.Unix(1000, 0).UTC()

	rr := Reduce(NewDaemonState(), held(control.Up, t0), ctrl, GestureConfig{})
	rr = Reduce(rr.State, held(control.Up, t0.Add(50*time.Millisecond)), ctrl, GestureConfig{})
	rr = Reduce(rr.State, held(control.Down, t0.Add(100*time.Millisecond)), ctrl, GestureConfig{})

	if got := speedBroadcasts(rr.Broadcasts); len(got) != 1 || got[0] != 1.0 {
		t.Fatalf("expected reversal to step down to 1.0, got %v", got)
	}
	if rr.State.Gesture.HeldDirection != control.Down {
		t.Fatalf("expected held direction down, got %d", rr.State.Gesture.HeldDirection)
	}
	if !rr.State.Gesture.HoldBeganAt.Equal(t0.Add(100 * time.Millisecond)) {
		t.Fatalf("expected hold to restart at reversal, began at %v", rr.State.Gesture.HoldBeganAt)
	}
}

func TestReduce_HoldTimeoutActsAsRelease(t *testing.T) {
	ctrl := speed.NewController(nil)
	cfg := GestureConfig{HoldTimeout: 600 * time.Millisecond}
	t0 := time.Unix(1000, 0).UTC()

	rr := Reduce(NewDaemonState(), held(control.Down, t0), ctrl, cfg)
	rr = Reduce(rr.State, PlayerRateObserved{Rate: 0.5, At: t0}, ctrl, cfg)

	rr = Reduce(rr.State, Tick{Now: t0.Add(500 * time.Millisecond)}, ctrl, cfg)
	if len(rr.Commands) != 0 || !rr.State.Gesture.Held() {
		t.Fatalf("expected hold to survive before timeout")
	}

	rr = Reduce(rr.State, Tick{Now: t0.Add(700 * time.Millisecond)}, ctrl, cfg)
	if rr.State.Gesture.Held() {
		t.Fatalf("expected hold to time out")
	}
	if got := applyRates(t, rr.Commands); len(got) != 1 || got[0] != speed.AutoSpeed {
		t.Fatalf("expected reset to 1.0 after timeout, got %v", rr.Commands)
	}
}

func TestReduce_RepeatIntervalKeepsStepping(t *testing.T) {
	ctrl := speed.NewController(nil)
	cfg := GestureConfig{RepeatInterval: 200 * time.Millisecond}
	t0 := time.Unix(1000, 0).UTC()

	rr := Reduce(NewDaemonState(), held(control.Up, t0), ctrl, cfg)
	var got []float64
	got = append(got, speedBroadcasts(rr.Broadcasts)...)

	for _, ms := range []int{100, 200, 300, 400, 600} {
		rr = Reduce(rr.State, Tick{Now: t0.Add(time.Duration(ms) * time.Millisecond)}, ctrl, cfg)
		got = append(got, speedBroadcasts(rr.Broadcasts)...)
	}

	want := []float64{2.0, 4.0, 8.0}
	if len(got) != len(want) {
		t.Fatalf("speeds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("speeds = %v, want %v", got, want)
		}
	}
	// Stuck at MaxSpeed with an unknown player rate: nothing to send.
	if len(rr.Commands) != 0 {
		t.Fatalf("expected no command at the upper bound, got %v", rr.Commands)
	}
}

func TestReduce_DisabledHoldOnlyBroadcastsGesture(t *testing.T) {
	ctrl := speed.NewController(speed.StaticSettings{Enabled: false, SpeedUpMultiplier: 2, SlowDownDivider: 2})
	t0 := time.Unix(1000, 0).UTC()

	s := NewDaemonState()
	s.SetObservedRate(1.0, t0)

	rr := Reduce(s, held(control.Up, t0), ctrl, GestureConfig{})
	if len(rr.Commands) != 0 {
		t.Fatalf("expected no commands while disabled, got %v", rr.Commands)
	}
	if len(rr.Broadcasts) != 1 {
		t.Fatalf("expected only the hold broadcast, got %v", rr.Broadcasts)
	}
	if _, ok := rr.Broadcasts[0].(BroadcastHoldChanged); !ok {
		t.Fatalf("expected BroadcastHoldChanged, got %T", rr.Broadcasts[0])
	}

	rr = Reduce(rr.State, ActionEvent{Action: control.SpeedRelease{}, At: t0}, ctrl, GestureConfig{})
	if len(rr.Commands) != 0 {
		t.Fatalf("expected no commands on disabled release, got %v", rr.Commands)
	}
}

func TestReduce_StaleRateResendsUnchangedSpeed(t *testing.T) {
	ctrl := speed.NewController(nil)
	ctrl.Sync(8.0)
	t0 := time.Unix(1000, 0).UTC()

	s := NewDaemonState()
	s.Speed = 8.0
	s.SetObservedRate(8.0, t0)

	step := ActionEvent{Action: control.SpeedStep{Direction: control.Up}, At: t0}

	rr := Reduce(s, step, ctrl, GestureConfig{})
	if len(rr.Commands) != 0 {
		t.Fatalf("expected no command when player already at the bound, got %v", rr.Commands)
	}

	rr = Reduce(rr.State, PlayerCommandFailed{Command: CmdApplyRate{Rate: 8.0}, Err: errNoPlayer{}, At: t0}, ctrl, GestureConfig{})
	if rr.State.Player.RateKnown || !rr.State.Player.Stale {
		t.Fatalf("expected failed apply to mark player rate stale, got %+v", rr.State.Player)
	}

	rr = Reduce(rr.State, step, ctrl, GestureConfig{})
	if got := applyRates(t, rr.Commands); len(got) != 1 || got[0] != 8.0 {
		t.Fatalf("expected resend of 8.0 after failure, got %v", rr.Commands)
	}
	if len(rr.Broadcasts) != 0 {
		t.Fatalf("expected no speed broadcast for unchanged speed, got %v", rr.Broadcasts)
	}

	rr = Reduce(rr.State, PlayerRateObserved{Rate: 8.0, At: t0}, ctrl, GestureConfig{})
	if rr.State.Player.Stale {
		t.Fatalf("expected observation to clear stale flag")
	}
}

func TestReduce_GetRateFailureDoesNotInvalidate(t *testing.T) {
	s := NewDaemonState()
	s.SetObservedRate(1.5, time.Unix(1000, 0))

	rr := Reduce(s, PlayerCommandFailed{Command: CmdGetRate{}, Err: errNoPlayer{}}, speed.NewController(nil), GestureConfig{})
	if !rr.State.Player.RateKnown || rr.State.Player.Stale {
		t.Fatalf("expected rate to stay known after a failed query, got %+v", rr.State.Player)
	}
}

func TestReduce_PlayerRateObservedSyncsWhenIdle(t *testing.T) {
	ctrl := speed.NewController(nil)
	t0 := time.Unix(1000, 0).UTC()

	rr := Reduce(NewDaemonState(), PlayerRateObserved{Rate: 1.6, At: t0}, ctrl, GestureConfig{})
	if ctrl.Current() != 1.5 {
		t.Fatalf("expected controller synced to 1.5, got %v", ctrl.Current())
	}
	if got := speedBroadcasts(rr.Broadcasts); len(got) != 1 || got[0] != 1.5 {
		t.Fatalf("expected speed broadcast 1.5, got %v", got)
	}
	if len(rr.Commands) != 0 {
		t.Fatalf("sync must not command the player, got %v", rr.Commands)
	}
	if rr.State.Player.Rate != 1.6 {
		t.Fatalf("expected raw observed rate kept, got %v", rr.State.Player.Rate)
	}

	// The next step starts from the synced speed.
	rr = Reduce(rr.State, ActionEvent{Action: control.SpeedStep{Direction: control.Up}, At: t0}, ctrl, GestureConfig{})
	if got := applyRates(t, rr.Commands); len(got) != 1 || got[0] != 3.0 {
		t.Fatalf("expected step from 1.5 to 3.0, got %v", rr.Commands)
	}
}

func TestReduce_ResetFromAutoIsQuiet(t *testing.T) {
	ctrl := speed.NewController(nil)
	s := NewDaemonState()
	s.SetObservedRate(1.0, time.Unix(1000, 0))

	rr := Reduce(s, ActionEvent{Action: control.SpeedReset{}}, ctrl, GestureConfig{})
	if len(rr.Commands) != 0 || len(rr.Broadcasts) != 0 {
		t.Fatalf("expected reset at 1.0 to be a no-op, got %v / %v", rr.Commands, rr.Broadcasts)
	}
}

func TestReduce_SettingsUpdateEmitsWrite(t *testing.T) {
	enabled := false
	rr := Reduce(NewDaemonState(), ActionEvent{Action: control.SettingsUpdate{Enabled: &enabled}}, speed.NewController(nil), GestureConfig{})
	if len(rr.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(rr.Commands))
	}
	w, ok := rr.Commands[0].(CmdWriteSettings)
	if !ok || w.Update.Enabled == nil || *w.Update.Enabled {
		t.Fatalf("expected CmdWriteSettings(enabled=false), got %#v", rr.Commands[0])
	}

	rr = Reduce(rr.State, ActionEvent{Action: control.SettingsUpdate{}}, speed.NewController(nil), GestureConfig{})
	if len(rr.Commands) != 0 {
		t.Fatalf("expected empty update to be ignored, got %v", rr.Commands)
	}
}

func TestReduce_SettingsAppliedBroadcastsOnlyOnChange(t *testing.T) {
	cfg := speed.StaticSettings{Enabled: true, SpeedUpMultiplier: 3, SlowDownDivider: 2}
	ctrl := speed.NewController(cfg)
	t0 := time.Unix(1000, 0).UTC()

	rr := Reduce(NewDaemonState(), SettingsApplied{At: t0}, ctrl, GestureConfig{})
	if len(rr.Broadcasts) != 1 {
		t.Fatalf("expected first SettingsApplied to broadcast, got %d", len(rr.Broadcasts))
	}
	sc, ok := rr.Broadcasts[0].(BroadcastSettingsChanged)
	if !ok || sc.Config.SpeedUpMultiplier != 3 || !sc.Config.Enabled {
		t.Fatalf("unexpected settings broadcast %#v", rr.Broadcasts[0])
	}

	rr = Reduce(rr.State, SettingsApplied{At: t0.Add(time.Second)}, ctrl, GestureConfig{})
	if len(rr.Broadcasts) != 0 {
		t.Fatalf("expected no broadcast when config unchanged, got %v", rr.Broadcasts)
	}

	// Out-of-range values are reported as the clamped effective config.
	ctrl2 := speed.NewController(speed.StaticSettings{Enabled: true, SpeedUpMultiplier: 10, SlowDownDivider: 1})
	rr = Reduce(rr.State, SettingsApplied{At: t0.Add(2 * time.Second)}, ctrl2, GestureConfig{})
	sc, ok = rr.Broadcasts[0].(BroadcastSettingsChanged)
	if !ok || sc.Config.SpeedUpMultiplier != speed.MaxFactor || sc.Config.SlowDownDivider != speed.MinFactor {
		t.Fatalf("expected clamped config, got %#v", rr.Broadcasts)
	}
}

func TestReduce_RequestStateSnapshot(t *testing.T) {
	ctrl := speed.NewController(nil)
	t0 := time.Unix(1000, 0).UTC()

	rr := Reduce(NewDaemonState(), held(control.Down, t0), ctrl, GestureConfig{})
	rr = Reduce(rr.State, PlayerRateObserved{Rate: 0.5, At: t0}, ctrl, GestureConfig{})

	reply := make(chan StateSnapshot, 1)
	rr = Reduce(rr.State, RequestStateSnapshot{Reply: reply}, ctrl, GestureConfig{})
	if len(rr.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(rr.Commands))
	}
	pub, ok := rr.Commands[0].(CmdPublishStateSnapshot)
	if !ok {
		t.Fatalf("expected CmdPublishStateSnapshot, got %T", rr.Commands[0])
	}
	snap := pub.Snapshot
	if snap.Speed != 0.5 || snap.PlayerRate != 0.5 || !snap.PlayerKnown || snap.HeldDirection != control.Down {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestReduce_InvalidDirectionIgnored(t *testing.T) {
	ctrl := speed.NewController(nil)
	rr := Reduce(NewDaemonState(), ActionEvent{Action: control.SpeedHeld{Direction: 3}}, ctrl, GestureConfig{})
	if len(rr.Commands) != 0 || len(rr.Broadcasts) != 0 || rr.State.Gesture.Held() {
		t.Fatalf("expected invalid direction to be ignored")
	}
	if ctrl.Current() != speed.AutoSpeed {
		t.Fatalf("expected controller untouched, got %v", ctrl.Current())
	}
}
