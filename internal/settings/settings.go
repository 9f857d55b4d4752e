package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// readTimeout bounds a single accessor read.
const readTimeout = 250 * time.Millisecond

// Settings serves typed values from a Store.
//
// Bool and Float never fail: a missing key, a store error or an undecodable
// value all yield the caller's default. Settings satisfies speed.Settings.
type Settings struct {
	store  Store
	logger *slog.Logger
}

// New wraps store. A nil logger means slog.Default().
func New(store Store, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{store: store, logger: logger}
}

// Bool returns the boolean stored under key, or def.
func (s *Settings) Bool(key string, def bool) bool {
	raw, ok := s.read(key)
	if !ok {
		return def
	}
	v, err := decodeBool(raw)
	if err != nil {
		s.logger.Debug("settings value is not a bool; using default", "key", key, "error", err)
		return def
	}
	return v
}

// Float returns the number stored under key, or def.
func (s *Settings) Float(key string, def float64) float64 {
	raw, ok := s.read(key)
	if !ok {
		return def
	}
	v, err := decodeFloat(raw)
	if err != nil {
		s.logger.Debug("settings value is not a number; using default", "key", key, "error", err)
		return def
	}
	return v
}

func (s *Settings) read(key string) ([]byte, bool) {
	if s == nil || s.store == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Debug("settings read failed; using default", "key", key, "error", err)
		}
		return nil, false
	}
	return raw, true
}

// SetBool stores a boolean under key.
func (s *Settings) SetBool(ctx context.Context, key string, v bool) error {
	return s.set(ctx, key, v)
}

// SetFloat stores a number under key.
func (s *Settings) SetFloat(ctx context.Context, key string, v float64) error {
	return s.set(ctx, key, v)
}

func (s *Settings) set(ctx context.Context, key string, v any) error {
	raw, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Delete removes key so reads fall back to defaults again.
func (s *Settings) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// All decodes every stored setting into a generic map.
func (s *Settings) All(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any)
	for e, err := range s.store.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list settings: %w", err)
		}
		v, err := decodeAny(e.Value)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out[e.Key] = v
	}
	return out, nil
}

// Close closes the underlying store.
func (s *Settings) Close() error {
	return s.store.Close()
}
