package dispatch

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sinoafrica/freightbridge/internal/contact"
	"github.com/sinoafrica/freightbridge/internal/logging"
)

// ErrSimulatedFailure is returned when SimulatedDispatcher rolls a failure.
var ErrSimulatedFailure = errors.New("simulated network failure")

// SimulatedDispatcher stands in for a real endpoint: it waits a fixed
// latency and fails a fraction of calls.
type SimulatedDispatcher struct {
	latency     time.Duration
	failureRate float64

	mu   sync.Mutex
	roll func() float64
}

// NewSimulatedDispatcher creates a simulated dispatcher. failureRate is
// clamped to [0,1].
func NewSimulatedDispatcher(latency time.Duration, failureRate float64) *SimulatedDispatcher {
	return &SimulatedDispatcher{
		latency:     latency,
		failureRate: min(max(failureRate, 0), 1),
		roll:        rand.Float64,
	}
}

// Dispatch waits for the configured latency unless ctx ends first.
func (d *SimulatedDispatcher) Dispatch(ctx context.Context, payload contact.Payload) error {
	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	d.mu.Lock()
	failed := d.roll() < d.failureRate
	d.mu.Unlock()

	if failed {
		return ErrSimulatedFailure
	}
	logging.GetGlobalLogger().Info("Simulated contact dispatch from %s (%d characters)", payload.Email, len(payload.Message))
	return nil
}
