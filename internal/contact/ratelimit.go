package contact

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/storage"
)

const (
	// SubmissionsKey is the durable store key holding the submission log.
	SubmissionsKey = "contact_form_submissions"
	// RateLimitWindow is how long a submission counts against the limit.
	RateLimitWindow = time.Hour
	// MaxSubmissions is the number of submissions allowed per window.
	MaxSubmissions = 3
)

// SubmissionRecord is one entry of the submission log.
type SubmissionRecord struct {
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
}

// RateLimitStatus describes whether another submission is allowed.
// ResetIn is in whole minutes and only set when Allowed is false.
type RateLimitStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	ResetIn   int  `json:"resetIn,omitempty"`
}

// RateLimiter is an advisory per-visitor limiter over a submission log kept
// in a Store. Store failures never block a visitor: reads count as an empty
// log and writes are dropped. Read-modify-write is not atomic, so two
// concurrent writers for the same visitor may undercount.
type RateLimiter struct {
	store  storage.Store
	window time.Duration
	limit  int
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing MaxSubmissions per RateLimitWindow.
func NewRateLimiter(store storage.Store) *RateLimiter {
	return &RateLimiter{
		store:  store,
		window: RateLimitWindow,
		limit:  MaxSubmissions,
		now:    time.Now,
	}
}

// Check reports the rate-limit state for scope without changing it.
func (l *RateLimiter) Check(ctx context.Context, scope string) RateLimitStatus {
	now := l.now()
	records := l.load(ctx, scope, now)

	if len(records) >= l.limit {
		oldest := records[0].Timestamp
		for _, r := range records[1:] {
			if r.Timestamp < oldest {
				oldest = r.Timestamp
			}
		}
		expiresIn := time.UnixMilli(oldest).Add(l.window).Sub(now)
		return RateLimitStatus{
			Allowed:   false,
			Remaining: 0,
			ResetIn:   int(math.Ceil(expiresIn.Minutes())),
		}
	}

	return RateLimitStatus{
		Allowed:   true,
		Remaining: l.limit - len(records),
	}
}

// Record appends a submission at the current time, prunes expired entries
// and persists the log.
func (l *RateLimiter) Record(ctx context.Context, scope string) {
	if l.store == nil {
		return
	}
	now := l.now()
	records := append(l.load(ctx, scope, now), SubmissionRecord{Timestamp: now.UnixMilli()})

	data, err := json.Marshal(records)
	if err != nil {
		logging.GetGlobalLogger().Warn("Failed to encode submission log for %s: %v", scope, err)
		return
	}
	if err := l.store.Set(ctx, scope, SubmissionsKey, data); err != nil {
		logging.GetGlobalLogger().Warn("Failed to persist submission log for %s: %v", scope, err)
	}
}

// load returns the in-window records for scope.
func (l *RateLimiter) load(ctx context.Context, scope string, now time.Time) []SubmissionRecord {
	if l.store == nil {
		return nil
	}
	raw, err := l.store.Get(ctx, scope, SubmissionsKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.GetGlobalLogger().Warn("Failed to read submission log for %s: %v", scope, err)
		}
		return nil
	}

	var records []SubmissionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		logging.GetGlobalLogger().Warn("Discarding unreadable submission log for %s: %v", scope, err)
		return nil
	}

	cutoff := now.Add(-l.window).UnixMilli()
	kept := records[:0]
	for _, r := range records {
		if r.Timestamp > cutoff {
			kept = append(kept, r)
		}
	}
	return kept
}
