package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// fakePlayer is a minimal player control websocket.
type fakePlayer struct {
	mu     sync.Mutex
	rate   float64
	reject bool
}

func (p *fakePlayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		p.mu.Lock()
		var reply any
		var set map[string]float64
		switch {
		case string(msg) == `"GetPlaybackRate"`:
			reply = map[string]any{"GetPlaybackRate": map[string]any{"result": "Ok", "value": p.rate}}
		case json.Unmarshal(msg, &set) == nil:
			if p.reject {
				reply = map[string]any{"SetPlaybackRate": map[string]any{"result": "Error"}}
			} else {
				p.rate = set["SetPlaybackRate"]
				reply = map[string]any{"SetPlaybackRate": map[string]any{"result": "Ok"}}
			}
		default:
			reply = map[string]any{"Invalid": map[string]any{"result": "Error"}}
		}
		p.mu.Unlock()

		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func newTestPlayerClient(t *testing.T, fp *fakePlayer) *PlayerWSClient {
	t.Helper()
	ts := httptest.NewServer(fp)
	t.Cleanup(ts.Close)

	client, err := NewPlayerWSClient("ws"+strings.TrimPrefix(ts.URL, "http"), testLogger(), 500, 1)
	if err != nil {
		t.Fatalf("NewPlayerWSClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPlayerWSClient_SetAndGetRate(t *testing.T) {
	fp := &fakePlayer{rate: 1.0}
	client := newTestPlayerClient(t, fp)

	got, err := client.GetPlaybackRate()
	if err != nil || got != 1.0 {
		t.Fatalf("GetPlaybackRate = %v, %v", got, err)
	}

	applied, err := client.SetPlaybackRate(2.5)
	if err != nil || applied != 2.5 {
		t.Fatalf("SetPlaybackRate = %v, %v", applied, err)
	}

	got, err = client.GetPlaybackRate()
	if err != nil || got != 2.5 {
		t.Fatalf("GetPlaybackRate after set = %v, %v", got, err)
	}
}

func TestPlayerWSClient_RejectedRate(t *testing.T) {
	fp := &fakePlayer{rate: 1.0, reject: true}
	client := newTestPlayerClient(t, fp)

	if _, err := client.SetPlaybackRate(4); err == nil {
		t.Fatalf("expected error when the player rejects the rate")
	}
}

func TestPlayerWSClient_ConnectFails(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ts.Close()

	if _, err := NewPlayerWSClient(url, testLogger(), 100, 1); err == nil {
		t.Fatalf("expected connection error")
	}
}
