package main

import (
	"context"
	"log/slog"
	"time"

	"holdspeed/internal/speed"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands + broadcasts.
//   - The daemon loop is the only place that executes side effects.
//   - Effect results are turned into Events and fed back into the reducer.
//   - Explicit event and command queues (no nested/re-entrant execution).
//
// ============================================================================

// DaemonDeps are the collaborators the daemon loop drives.
type DaemonDeps struct {
	Player     PlayerClient
	Settings   SettingsWriter
	Controller *speed.Controller

	// Broadcasts receives reducer-emitted state changes. May be nil.
	Broadcasts chan<- StateBroadcast
}

// runDaemon is the main daemon loop that:
//   - Receives Events from multiple sources
//   - Emits Tick events on a fixed cadence
//   - Reduces events into (state, commands, broadcasts)
//   - Executes commands and feeds observations back into the reducer
//
// On start it queries the player rate and publishes the effective settings.
// It exits when ctx is canceled or the events channel is closed.
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	deps DaemonDeps,
	cfg GestureConfig,
	state *DaemonState,
	updateHz int,
	logger *slog.Logger,
) {
	if state == nil {
		state = NewDaemonState()
	}
	if updateHz <= 0 {
		updateHz = defaultUpdateHz
	}

	ticker := time.NewTicker(time.Second / time.Duration(updateHz))
	defer ticker.Stop()

	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}

	publish := func(bs []StateBroadcast) {
		if deps.Broadcasts == nil {
			return
		}
		for _, b := range bs {
			select {
			case deps.Broadcasts <- b:
			default:
				logger.Warn("broadcast queue full, dropping state update")
			}
		}
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, deps.Controller, cfg)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
			publish(rr.Broadcasts)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			logger.Debug("executing command", "command", cmd.String())
			runEffect(deps.Player, deps.Settings, cmd, logger, enqueueEvent)

			// Reduce observations promptly so follow-up commands see coherent state.
			flushEvents()
		}
	}

	// Initial sync.
	now := time.Now()
	enqueueEvent(SettingsApplied{At: now})
	flushEvents()
	cmdQueue = append(cmdQueue, CmdGetRate{})
	flushCommands()

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			if ae, isAction := ev.(ActionEvent); isAction && ae.At.IsZero() {
				ae.At = time.Now()
				ev = ae
			}
			enqueueEvent(ev)
			flushEvents()
			flushCommands()

		case now := <-ticker.C:
			enqueueEvent(Tick{Now: now})
			flushEvents()
			flushCommands()
		}
	}
}
