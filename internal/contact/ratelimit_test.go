package contact

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinoafrica/freightbridge/internal/storage"
)

func newTestLimiter(store storage.Store, clock *fakeClock) *RateLimiter {
	l := NewRateLimiter(store)
	l.now = clock.Now
	return l
}

func TestRateLimiter_FreshVisitor(t *testing.T) {
	l := newTestLimiter(storage.NewMemoryStore(0), newFakeClock())

	status := l.Check(context.Background(), "visitor-1")
	assert.Equal(t, RateLimitStatus{Allowed: true, Remaining: MaxSubmissions}, status)
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(storage.NewMemoryStore(0), clock)

	for i := 0; i < MaxSubmissions; i++ {
		status := l.Check(ctx, "visitor-1")
		require.True(t, status.Allowed)
		assert.Equal(t, MaxSubmissions-i, status.Remaining)
		l.Record(ctx, "visitor-1")
		clock.Advance(10 * time.Minute)
	}

	// Oldest record is 30 minutes old now.
	status := l.Check(ctx, "visitor-1")
	assert.False(t, status.Allowed)
	assert.Equal(t, 0, status.Remaining)
	assert.Equal(t, 30, status.ResetIn)
}

func TestRateLimiter_ResetInRoundsUp(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(storage.NewMemoryStore(0), clock)

	for i := 0; i < MaxSubmissions; i++ {
		l.Record(ctx, "v")
	}
	clock.Advance(90 * time.Second)

	assert.Equal(t, 59, l.Check(ctx, "v").ResetIn)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(storage.NewMemoryStore(0), clock)

	for i := 0; i < MaxSubmissions; i++ {
		l.Record(ctx, "v")
	}
	require.False(t, l.Check(ctx, "v").Allowed)

	// A record exactly one window old no longer counts.
	clock.Advance(RateLimitWindow)
	status := l.Check(ctx, "v")
	assert.True(t, status.Allowed)
	assert.Equal(t, MaxSubmissions, status.Remaining)
}

func TestRateLimiter_RecordPrunesExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := storage.NewMemoryStore(0)
	l := newTestLimiter(store, clock)

	l.Record(ctx, "v")
	l.Record(ctx, "v")
	clock.Advance(2 * time.Hour)
	l.Record(ctx, "v")

	raw, err := store.Get(ctx, "v", SubmissionsKey)
	require.NoError(t, err)

	var records []SubmissionRecord
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)
	assert.Equal(t, clock.Now().UnixMilli(), records[0].Timestamp)
}

func TestRateLimiter_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := newTestLimiter(storage.NewMemoryStore(0), newFakeClock())

	for i := 0; i < MaxSubmissions; i++ {
		l.Record(ctx, "a")
	}
	assert.False(t, l.Check(ctx, "a").Allowed)
	assert.True(t, l.Check(ctx, "b").Allowed)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("store errors", func(t *testing.T) {
		l := newTestLimiter(brokenStore{}, newFakeClock())
		l.Record(ctx, "v")
		assert.Equal(t, RateLimitStatus{Allowed: true, Remaining: MaxSubmissions}, l.Check(ctx, "v"))
	})

	t.Run("corrupt log", func(t *testing.T) {
		store := storage.NewMemoryStore(0)
		require.NoError(t, store.Set(ctx, "v", SubmissionsKey, []byte("{not json")))
		l := newTestLimiter(store, newFakeClock())
		assert.True(t, l.Check(ctx, "v").Allowed)

		l.Record(ctx, "v")
		assert.Equal(t, MaxSubmissions-1, l.Check(ctx, "v").Remaining)
	})

	t.Run("no store", func(t *testing.T) {
		l := newTestLimiter(nil, newFakeClock())
		l.Record(ctx, "v")
		assert.True(t, l.Check(ctx, "v").Allowed)
	})
}

func TestRateLimiter_StoredFormat(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := storage.NewMemoryStore(0)
	l := newTestLimiter(store, clock)

	l.Record(ctx, "v")

	raw, err := store.Get(ctx, "v", SubmissionsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"timestamp":1741942800000}]`, string(raw))
}
