package main

import (
	"strings"
	"testing"
)

func TestFormatMessage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"type":"speed_changed","ts":"2026-01-02T03:04:05Z","data":{"speed":2.5}}`, "[SPEED] 2.5x"},
		{`{"type":"hold_changed","ts":"2026-01-02T03:04:05Z","data":{"direction":-1}}`, "[HOLD] down"},
		{`{"type":"hold_changed","ts":"2026-01-02T03:04:05Z","data":{"direction":0}}`, "[HOLD] released"},
		{`{"type":"settings_changed","ts":"2026-01-02T03:04:05Z","data":{"config":{"enabled":false,"speed_up_multiplier":1.5,"slow_down_divider":2}}}`,
			"[SETTINGS] enabled=false multiplier=1.5 divider=2"},
		{`{"type":"state_init","ts":"2026-01-02T03:04:05Z","data":{"speed":1,"player_rate_known":false,"held_direction":1,"config":{"enabled":true,"speed_up_multiplier":2,"slow_down_divider":2}}}`,
			"[INIT] speed=1x player=unknown hold=up enabled=true"},
		{`{"type":"future_event","ts":"2026-01-02T03:04:05Z","data":{"x":1}}`, `[future_event] {"x":1}`},
		{`not json`, "[TEXT] not json"},
	}

	for _, tc := range cases {
		got := formatMessage([]byte(tc.in))
		if !strings.Contains(got, tc.want) {
			t.Errorf("formatMessage(%s) = %q, want it to contain %q", tc.in, got, tc.want)
		}
	}
}
