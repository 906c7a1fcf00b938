package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Get(ctx, "scope", "key")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "scope", "key", []byte("value")))
	got, err := s.Get(ctx, "scope", "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	_, err = s.Get(ctx, "other", "key")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "scope", "key"))
	_, err = s.Get(ctx, "scope", "key")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "scope", "key"))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "s", "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "a", "k", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", "k", []byte("2")))

	now = now.Add(30 * time.Minute)
	require.NoError(t, s.Set(ctx, "b", "k", []byte("3")))

	now = now.Add(45 * time.Minute)
	_, err := s.Get(ctx, "a", "k")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.Get(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, "3", string(got))

	assert.Equal(t, 1, s.Sweep())
	assert.Len(t, s.scopes, 1)
}

func TestMemoryStore_NoTTLNeverSweeps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Set(ctx, "a", "k", []byte("1")))
	s.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }

	assert.Equal(t, 0, s.Sweep())
	_, err := s.Get(ctx, "a", "k")
	assert.NoError(t, err)
}

func TestMemoryStore_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore(0)

	assert.ErrorIs(t, s.Set(ctx, "a", "k", nil), context.Canceled)
	_, err := s.Get(ctx, "a", "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}
