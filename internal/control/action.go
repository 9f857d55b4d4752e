// Package control defines the gesture and settings actions accepted by the
// holdspeed daemon, their JSON envelope, and a small IPC client.
package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Direction of a speed gesture.
const (
	Down = -1
	Up   = 1
)

// Action is a request from a gesture source (input device, IPC, HTTP).
type Action interface {
	actionType() string
}

// SpeedHeld indicates a speed button is being held.
type SpeedHeld struct {
	Direction int `json:"direction"` // -1 for down, +1 for up
}

// SpeedRelease indicates the speed buttons have been released.
type SpeedRelease struct{}

// SpeedStep is a single discrete step up or down with no hold.
type SpeedStep struct {
	Direction int `json:"direction"`
}

// SpeedReset returns playback to automatic speed.
type SpeedReset struct{}

// SettingsUpdate changes persisted settings. Nil fields are left unchanged.
type SettingsUpdate struct {
	Enabled           *bool    `json:"enabled,omitempty"`
	SpeedUpMultiplier *float64 `json:"speed_up_multiplier,omitempty"`
	SlowDownDivider   *float64 `json:"slow_down_divider,omitempty"`
}

func (SpeedHeld) actionType() string      { return "speed_held" }
func (SpeedRelease) actionType() string   { return "speed_release" }
func (SpeedStep) actionType() string      { return "speed_step" }
func (SpeedReset) actionType() string     { return "speed_reset" }
func (SettingsUpdate) actionType() string { return "settings_update" }

// Empty reports whether the update changes nothing.
func (u SettingsUpdate) Empty() bool {
	return u.Enabled == nil && u.SpeedUpMultiplier == nil && u.SlowDownDivider == nil
}

// Validate rejects empty updates and non-positive or non-finite factors.
// Out-of-range factors are accepted; readers clamp them.
func (u SettingsUpdate) Validate() error {
	if u.Empty() {
		return errors.New("settings update has no fields")
	}
	check := func(name string, v *float64) error {
		if v == nil {
			return nil
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
			return fmt.Errorf("%s must be a positive number", name)
		}
		return nil
	}
	if err := check("speed_up_multiplier", u.SpeedUpMultiplier); err != nil {
		return err
	}
	return check("slow_down_divider", u.SlowDownDivider)
}

func validDirection(d int) error {
	if d != Up && d != Down {
		return fmt.Errorf("direction must be %d or %d, got %d", Down, Up, d)
	}
	return nil
}

// Envelope wraps an action with a type discriminator for JSON transport.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalAction decodes a JSON envelope into a concrete Action.
func UnmarshalAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "speed_held":
		var a SpeedHeld
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SpeedHeld: %w", err)
		}
		if err := validDirection(a.Direction); err != nil {
			return nil, err
		}
		return a, nil

	case "speed_release":
		return SpeedRelease{}, nil

	case "speed_step":
		var a SpeedStep
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SpeedStep: %w", err)
		}
		if err := validDirection(a.Direction); err != nil {
			return nil, err
		}
		return a, nil

	case "speed_reset":
		return SpeedReset{}, nil

	case "settings_update":
		var a SettingsUpdate
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SettingsUpdate: %w", err)
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown action type: %q", env.Type)
	}
}

// MarshalAction encodes an Action into a JSON envelope.
func MarshalAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, errors.New("nil action")
	}
	env := Envelope{Type: a.actionType()}

	switch a.(type) {
	case SpeedRelease, SpeedReset:
		// no payload
	default:
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal %T: %w", a, err)
		}
		env.Data = data
	}

	return json.Marshal(env)
}
