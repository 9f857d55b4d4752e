package main

import (
	"fmt"

	"holdspeed/internal/control"
)

// Command represents an external side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdApplyRate sets the player's playback rate.
type CmdApplyRate struct {
	Rate float64
}

func (CmdApplyRate) commandMarker() {}
func (c CmdApplyRate) String() string {
	return fmt.Sprintf("CmdApplyRate(rate=%g)", c.Rate)
}

// CmdGetRate queries the player's current playback rate.
type CmdGetRate struct{}

func (CmdGetRate) commandMarker() {}
func (CmdGetRate) String() string { return "CmdGetRate()" }

// CmdWriteSettings persists a settings update.
type CmdWriteSettings struct {
	Update control.SettingsUpdate
}

func (CmdWriteSettings) commandMarker() {}
func (c CmdWriteSettings) String() string {
	return fmt.Sprintf("CmdWriteSettings(enabled=%s, multiplier=%s, divider=%s)",
		fmtOpt(c.Update.Enabled), fmtOpt(c.Update.SpeedUpMultiplier), fmtOpt(c.Update.SlowDownDivider))
}

// CmdPublishStateSnapshot delivers a snapshot to a requester.
type CmdPublishStateSnapshot struct {
	Reply    chan<- StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (CmdPublishStateSnapshot) String() string { return "CmdPublishStateSnapshot()" }

func fmtOpt[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
