package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/google/uuid"

	"holdspeed/internal/control"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// Line-delimited JSON actions (see control.MarshalAction), one control.Response
// per line. Used by holdspeedctl and scripts.
// ============================================================================

// runIPCServer starts the unix socket server and runs until ctx is canceled.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Closing the listener unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, events, logger.With("conn_id", uuid.NewString()))
	}
}

// handleIPCConnection handles a single IPC connection
func handleIPCConnection(conn net.Conn, events chan<- Event, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection opened")

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	reply := func(resp control.Response) {
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
		}
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		logger.Debug("IPC received", "line", string(line))

		action, err := control.UnmarshalAction(line)
		if err != nil {
			reply(control.Response{Status: "error", Error: fmt.Sprintf("parse action: %v", err)})
			continue
		}

		if !offerEvent(events, ActionEvent{Action: action}) {
			reply(control.Response{Status: "error", Error: "event queue full"})
			continue
		}
		reply(control.Response{Status: "ok"})
	}

	logger.Debug("IPC connection closed")
}

// offerEvent enqueues ev without blocking.
func offerEvent(events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
		return false
	}
}
