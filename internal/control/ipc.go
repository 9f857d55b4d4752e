package control

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"
)

// Protocol: line-delimited JSON over a unix socket.
//   - Client sends: {"type": "speed_held", "data": {"direction": 1}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}

// Response is sent back to IPC clients, one per request line.
type Response struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // set when Status == "error"
}

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/holdspeed.sock"

const ipcTimeout = 2 * time.Second

// Send delivers one action to the daemon and waits for its response.
func Send(socketPath string, a Action) error {
	conn, err := net.DialTimeout("unix", socketPath, ipcTimeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcTimeout))

	data, err := MarshalAction(a)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(data))); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("ipc error: %s", resp.Error)
	}
	return nil
}
