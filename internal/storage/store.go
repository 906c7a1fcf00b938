// Package storage provides the scoped key-value stores backing the contact
// form: a durable store for the submission log and a session store for
// CSRF tokens.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no value exists for a scope and key.
var ErrNotFound = errors.New("storage: value not found")

// Store is a key-value store partitioned by scope. A scope is a visitor or
// session identifier.
type Store interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Set(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger is implemented by durable stores that can drop stale rows.
type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
