package contact

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"

	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/storage"
)

const (
	// CSRFTokenKey is the session store key holding the current token.
	CSRFTokenKey = "csrf_token"

	csrfTokenBytes = 32
)

// CSRFManager issues one token per session and checks submitted tokens
// against it. Without a working store the check passes, so a broken
// session backend degrades to no CSRF protection instead of blocking every
// submission.
type CSRFManager struct {
	store  storage.Store
	random io.Reader
}

// NewCSRFManager creates a manager backed by a session store.
func NewCSRFManager(store storage.Store) *CSRFManager {
	return &CSRFManager{
		store:  store,
		random: rand.Reader,
	}
}

// Generate issues a fresh 64-character hex token for scope, replacing any
// previous one. It returns "" when no random source or store is available.
// If the random source fails, the previous token is dropped so it cannot be
// replayed.
func (m *CSRFManager) Generate(ctx context.Context, scope string) string {
	if m == nil || m.store == nil || m.random == nil {
		return ""
	}

	b := make([]byte, csrfTokenBytes)
	if _, err := io.ReadFull(m.random, b); err != nil {
		logging.GetGlobalLogger().Warn("Failed to read random bytes for CSRF token: %v", err)
		if err := m.store.Delete(ctx, scope, CSRFTokenKey); err != nil {
			logging.GetGlobalLogger().Warn("Failed to drop CSRF token for %s: %v", scope, err)
		}
		return ""
	}
	token := hex.EncodeToString(b)

	if err := m.store.Set(ctx, scope, CSRFTokenKey, []byte(token)); err != nil {
		logging.GetGlobalLogger().Warn("Failed to store CSRF token for %s: %v", scope, err)
		return ""
	}
	return token
}

// Validate reports whether candidate equals the token stored for scope.
func (m *CSRFManager) Validate(ctx context.Context, scope, candidate string) bool {
	if m == nil || m.store == nil {
		return true
	}

	stored, err := m.store.Get(ctx, scope, CSRFTokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		logging.GetGlobalLogger().Warn("CSRF store unavailable for %s, allowing submission: %v", scope, err)
		return true
	}
	if len(stored) == 0 || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare(stored, []byte(candidate)) == 1
}
