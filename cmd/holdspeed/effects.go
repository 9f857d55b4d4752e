package main

import (
	"context"
	"log/slog"
	"time"

	"holdspeed/internal/speed"
)

// SettingsWriter persists settings values.
type SettingsWriter interface {
	SetBool(ctx context.Context, key string, v bool) error
	SetFloat(ctx context.Context, key string, v float64) error
}

const settingsWriteTimeout = 2 * time.Second

// runEffect executes a single reducer-emitted Command and emits observation
// Events via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the daemon loop.
func runEffect(
	player PlayerClient,
	store SettingsWriter,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		return
	}

	now := time.Now()

	switch c := cmd.(type) {
	case CmdApplyRate:
		if player == nil {
			onEvent(PlayerCommandFailed{Command: cmd, Err: errNoPlayer{}, At: now})
			return
		}
		rate, err := player.SetPlaybackRate(c.Rate)
		if err != nil {
			logger.Error("player SetPlaybackRate failed", "error", err, "rate", c.Rate)
			onEvent(PlayerCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(PlayerRateObserved{Rate: rate, At: now})

	case CmdGetRate:
		if player == nil {
			onEvent(PlayerCommandFailed{Command: cmd, Err: errNoPlayer{}, At: now})
			return
		}
		rate, err := player.GetPlaybackRate()
		if err != nil {
			logger.Error("player GetPlaybackRate failed", "error", err)
			onEvent(PlayerCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(PlayerRateObserved{Rate: rate, At: now})

	case CmdWriteSettings:
		if store == nil {
			logger.Warn("settings update ignored; no settings store")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), settingsWriteTimeout)
		defer cancel()

		u := c.Update
		var failed bool
		if u.Enabled != nil {
			if err := store.SetBool(ctx, speed.KeyEnabled, *u.Enabled); err != nil {
				logger.Error("settings write failed", "key", speed.KeyEnabled, "error", err)
				failed = true
			}
		}
		if u.SpeedUpMultiplier != nil {
			if err := store.SetFloat(ctx, speed.KeySpeedUpMultiplier, *u.SpeedUpMultiplier); err != nil {
				logger.Error("settings write failed", "key", speed.KeySpeedUpMultiplier, "error", err)
				failed = true
			}
		}
		if u.SlowDownDivider != nil {
			if err := store.SetFloat(ctx, speed.KeySlowDownDivider, *u.SlowDownDivider); err != nil {
				logger.Error("settings write failed", "key", speed.KeySlowDownDivider, "error", err)
				failed = true
			}
		}
		if !failed {
			logger.Info("settings updated", "update", c.String())
		}
		// Partial writes still change the effective configuration.
		onEvent(SettingsApplied{At: now})

	case CmdPublishStateSnapshot:
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(PlayerCommandFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// errNoPlayer indicates a player command was issued without a player client.
type errNoPlayer struct{}

func (errNoPlayer) Error() string { return "no player client" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
