package settings

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"holdspeed/internal/speed"
)

var _ speed.Settings = (*Settings)(nil)

func TestSettings_Defaults(t *testing.T) {
	s := New(NewMemory(), nil)

	require.True(t, s.Bool(speed.KeyEnabled, true))
	require.False(t, s.Bool(speed.KeyEnabled, false))
	require.Equal(t, 2.0, s.Float(speed.KeySpeedUpMultiplier, 2.0))
}

func TestSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), nil)

	require.NoError(t, s.SetBool(ctx, speed.KeyEnabled, false))
	require.NoError(t, s.SetFloat(ctx, speed.KeySpeedUpMultiplier, 1.5))

	require.False(t, s.Bool(speed.KeyEnabled, true))
	require.Equal(t, 1.5, s.Float(speed.KeySpeedUpMultiplier, 2.0))

	require.NoError(t, s.Delete(ctx, speed.KeyEnabled))
	require.True(t, s.Bool(speed.KeyEnabled, true), "deleted key should fall back to default")
}

func TestSettings_WrongTypeFallsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	s := New(store, nil)

	raw, err := msgpack.Marshal("fast")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, speed.KeySpeedUpMultiplier, raw))
	require.NoError(t, store.Set(ctx, speed.KeyEnabled, []byte{0xc1}))

	require.Equal(t, 3.0, s.Float(speed.KeySpeedUpMultiplier, 3.0))
	require.True(t, s.Bool(speed.KeyEnabled, true))
}

type failingStore struct{ *Memory }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) List(context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		yield(Entry{}, errors.New("disk on fire"))
	}
}

func TestSettings_StoreErrorFallsBack(t *testing.T) {
	s := New(failingStore{NewMemory()}, nil)

	require.False(t, s.Bool(speed.KeyEnabled, false))
	require.Equal(t, 2.0, s.Float(speed.KeySlowDownDivider, 2.0))

	_, err := s.All(context.Background())
	require.Error(t, err)
}

func TestSettings_NilIsDefaults(t *testing.T) {
	var s *Settings
	require.True(t, s.Bool(speed.KeyEnabled, true))
	require.Equal(t, 2.0, s.Float(speed.KeySlowDownDivider, 2.0))
}

func TestSettings_All(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), nil)

	require.NoError(t, s.SetBool(ctx, speed.KeyEnabled, true))
	require.NoError(t, s.SetFloat(ctx, speed.KeySlowDownDivider, 3.0))

	vals, err := s.All(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		speed.KeyEnabled:         true,
		speed.KeySlowDownDivider: 3.0,
	}, vals)
}

func TestSettings_DrivesController(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), nil)
	ctrl := speed.NewController(s)

	require.Equal(t, 2.0, ctrl.Increase())

	require.NoError(t, s.SetFloat(ctx, speed.KeySpeedUpMultiplier, 4.0))
	require.Equal(t, 8.0, ctrl.Increase())

	require.NoError(t, s.SetBool(ctx, speed.KeyEnabled, false))
	require.Equal(t, 8.0, ctrl.Reset(), "reset is a no-op while disabled")
}
