// Command ws_listen prints holdspeed state events from the daemon's /ws/state
// websocket. Useful for watching gestures and speed changes live.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:3002/ws/state", "holdspeed state websocket URL")
		raw   = flag.Bool("raw", false, "Print messages as received instead of formatting them")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	var writeMu sync.Mutex

	// The daemon pings every 20s; answer its pings and send our own.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed: %v", err)
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			switch messageType {
			case websocket.TextMessage:
				if *raw {
					fmt.Println(string(message))
				} else {
					fmt.Println(formatMessage(message))
				}
			case websocket.BinaryMessage:
				fmt.Printf("[BINARY] %d bytes\n", len(message))
			}
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

type stateEnvelope struct {
	Type string          `json:"type"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

type settingsData struct {
	Enabled           bool    `json:"enabled"`
	SpeedUpMultiplier float64 `json:"speed_up_multiplier"`
	SlowDownDivider   float64 `json:"slow_down_divider"`
}

func (s settingsData) String() string {
	return fmt.Sprintf("enabled=%t multiplier=%g divider=%g", s.Enabled, s.SpeedUpMultiplier, s.SlowDownDivider)
}

func directionName(d int) string {
	switch {
	case d > 0:
		return "up"
	case d < 0:
		return "down"
	default:
		return "released"
	}
}

// formatMessage renders one state event as a single line.
// Unknown or malformed messages are printed as-is.
func formatMessage(message []byte) string {
	var env stateEnvelope
	if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
		return "[TEXT] " + string(message)
	}
	ts := env.Ts.Local().Format("15:04:05.000")

	switch env.Type {
	case "state_init":
		var d struct {
			Speed         float64      `json:"speed"`
			PlayerRate    float64      `json:"player_rate"`
			PlayerKnown   bool         `json:"player_rate_known"`
			HeldDirection int          `json:"held_direction"`
			Config        settingsData `json:"config"`
		}
		if json.Unmarshal(env.Data, &d) == nil {
			player := "unknown"
			if d.PlayerKnown {
				player = fmt.Sprintf("%gx", d.PlayerRate)
			}
			return fmt.Sprintf("%s [INIT] speed=%gx player=%s hold=%s %s",
				ts, d.Speed, player, directionName(d.HeldDirection), d.Config)
		}

	case "speed_changed":
		var d struct {
			Speed float64 `json:"speed"`
		}
		if json.Unmarshal(env.Data, &d) == nil {
			return fmt.Sprintf("%s [SPEED] %gx", ts, d.Speed)
		}

	case "hold_changed":
		var d struct {
			Direction int `json:"direction"`
		}
		if json.Unmarshal(env.Data, &d) == nil {
			return fmt.Sprintf("%s [HOLD] %s", ts, directionName(d.Direction))
		}

	case "settings_changed":
		var d struct {
			Config settingsData `json:"config"`
		}
		if json.Unmarshal(env.Data, &d) == nil {
			return fmt.Sprintf("%s [SETTINGS] %s", ts, d.Config)
		}
	}

	return fmt.Sprintf("%s [%s] %s", ts, env.Type, string(env.Data))
}
