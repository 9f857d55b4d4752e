// Package settings persists the user-facing preferences of the dynamic speed
// feature and serves them through typed get-with-default accessors.
//
// Values live in a Store keyed by plain strings. Three backends exist: bbolt
// (the default, a single file), BadgerDB (a directory) and an in-memory map
// for tests and ephemeral runs. Values are msgpack-encoded so a bool stays a
// bool and a float stays a float across backends.
package settings

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
)

// ErrNotFound is returned by Store.Get when a key does not exist.
var ErrNotFound = errors.New("settings: not found")

// Entry is a raw key/value pair yielded by Store.List.
type Entry struct {
	Key   string
	Value []byte
}

// Store is a flat key/value store for encoded setting values.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List iterates over all entries in lexicographic key order.
	List(ctx context.Context) iter.Seq2[Entry, error]

	// Close releases the underlying resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Options selects and configures a Store backend.
type Options struct {
	// Backend is one of BackendBolt, BackendBadger or BackendMemory.
	// Empty means BackendBolt.
	Backend string

	// Path is the bbolt file or the badger directory. Ignored for memory.
	Path string

	// Logger receives backend diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Open constructs the Store described by opts.
func Open(opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Backend {
	case "", BackendBolt:
		return NewBolt(opts.Path)
	case BackendBadger:
		return NewBadger(BadgerOptions{Dir: opts.Path, Logger: logger})
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("settings: unknown backend %q", opts.Backend)
	}
}
