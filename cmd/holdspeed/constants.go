package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_REWIND      = 168
	KEY_FASTFORWARD = 208
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

const (
	defaultUpdateHz        = 30  // Tick frequency (Hz)
	defaultReadTimeoutMS   = 500 // Timeout for reading player websocket responses (ms)
	defaultConnectAttempts = 10  // Player websocket dial attempts at startup

	// Many remotes repeat at ~100-200ms; 600ms avoids premature release.
	defaultHoldTimeoutMS = 600

	// 0 means one step per press.
	defaultRepeatIntervalMS = 0

	defaultHTTPListen = "127.0.0.1:3002"
)
