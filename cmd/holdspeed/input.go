package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"holdspeed/internal/control"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// keyMap selects which key codes drive speed gestures.
type keyMap struct {
	Up   uint16
	Down uint16
}

// translateInputEvent turns a key event into a gesture action.
// Press and autorepeat mean held; release of either key ends the gesture.
func translateInputEvent(ev inputEvent, keys keyMap) (control.Action, bool) {
	if ev.Type != EV_KEY {
		return nil, false
	}

	var dir int
	switch ev.Code {
	case keys.Up:
		dir = control.Up
	case keys.Down:
		dir = control.Down
	default:
		return nil, false
	}

	switch ev.Value {
	case evValuePress, evValueRepeat:
		return control.SpeedHeld{Direction: dir}, true
	case evValueRelease:
		return control.SpeedRelease{}, true
	default:
		return nil, false
	}
}

// readInputEvents reads input events from f until a read fails.
// It blocks on read and is meant to run in its own goroutine.
func readInputEvents(f *os.File, events chan<- inputEvent, readErr chan<- error) {
	buf := make([]byte, binary.Size(inputEvent{}))
	reader := bytes.NewReader(buf)

	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			readErr <- err
			return
		}

		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		events <- ev
	}
}
