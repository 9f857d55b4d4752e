package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// PlayerClient is the player-control sink the daemon applies speeds to.
// This allows for mocking in tests.
type PlayerClient interface {
	SetPlaybackRate(rate float64) (float64, error) // returns the applied rate
	GetPlaybackRate() (float64, error)
	Close() error
}

// PlayerWSClient talks to the player's control websocket.
//
// Requests are JSON text frames: {"SetPlaybackRate": 1.5} or "GetPlaybackRate".
// Replies echo the command name: {"GetPlaybackRate": {"result": "Ok", "value": 1.5}}.
type PlayerWSClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
	attempts    int
}

// NewPlayerWSClient creates a client and establishes the initial connection.
func NewPlayerWSClient(wsURL string, logger *slog.Logger, readTimeoutMS int, attempts int) (*PlayerWSClient, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if attempts <= 0 {
		attempts = 1
	}

	client := &PlayerWSClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: time.Duration(readTimeoutMS) * time.Millisecond,
		attempts:    attempts,
	}

	if err := client.connectWithRetry(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *PlayerWSClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}

	conn, _, err := d.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	return nil
}

func (c *PlayerWSClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		err := c.connect()
		if err == nil {
			c.logger.Info("connected to player", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Warn("player connection failed; retrying...", "error", err, "attempt", attempt+1)
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", c.attempts, lastErr)
}

func (c *PlayerWSClient) ensureConnected() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Warn("player connection lost; reconnecting...")
	return c.connectWithRetry()
}

// sendAndRead sends a message and waits for a response
func (c *PlayerWSClient) sendAndRead(v any) ([]byte, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("no websocket connection")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn = nil // Mark connection as broken
		return nil, err
	}

	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	defer func() {
		if c.conn != nil {
			c.conn.SetReadDeadline(time.Time{})
		}
	}()

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.conn = nil // Mark connection as broken
		return nil, err
	}

	return message, nil
}

// Close closes the WebSocket connection
func (c *PlayerWSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

type playerReply struct {
	Result string   `json:"result"`
	Value  *float64 `json:"value,omitempty"`
}

// SetPlaybackRate asks the player to play at rate.
func (c *PlayerWSClient) SetPlaybackRate(rate float64) (float64, error) {
	response, err := c.sendAndRead(map[string]any{"SetPlaybackRate": rate})
	if err != nil {
		return 0, fmt.Errorf("set playback rate: %w", err)
	}

	var resp struct {
		SetPlaybackRate playerReply `json:"SetPlaybackRate"`
	}
	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse SetPlaybackRate response", "error", err)
		return rate, nil // Assume success
	}
	if r := resp.SetPlaybackRate.Result; r != "" && r != "Ok" {
		return 0, fmt.Errorf("set playback rate: player replied %q", r)
	}

	c.logger.Debug("SetPlaybackRate", "rate", rate, "result", resp.SetPlaybackRate.Result)
	return rate, nil
}

// GetPlaybackRate queries the player for its current rate.
func (c *PlayerWSClient) GetPlaybackRate() (float64, error) {
	response, err := c.sendAndRead("GetPlaybackRate")
	if err != nil {
		return 0, fmt.Errorf("get playback rate: %w", err)
	}

	var resp struct {
		GetPlaybackRate playerReply `json:"GetPlaybackRate"`
	}
	if err := json.Unmarshal(response, &resp); err != nil {
		return 0, fmt.Errorf("parse GetPlaybackRate response: %w", err)
	}
	if r := resp.GetPlaybackRate.Result; r != "" && r != "Ok" {
		return 0, fmt.Errorf("get playback rate: player replied %q", r)
	}
	if resp.GetPlaybackRate.Value == nil {
		return 0, fmt.Errorf("get playback rate: reply has no value")
	}

	c.logger.Debug("GetPlaybackRate", "rate", *resp.GetPlaybackRate.Value)
	return *resp.GetPlaybackRate.Value, nil
}
