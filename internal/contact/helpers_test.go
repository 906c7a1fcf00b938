package contact

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sinoafrica/freightbridge/internal/storage"
)

var errStoreDown = errors.New("store unavailable")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string, string) ([]byte, error) { return nil, errStoreDown }
func (brokenStore) Set(context.Context, string, string, []byte) error { return errStoreDown }
func (brokenStore) Delete(context.Context, string, string) error { return errStoreDown }

var _ storage.Store = brokenStore{}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTimer records scheduled callbacks so tests can fire them on demand.
type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) Schedule(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// stubDispatcher records payloads and returns err.
type stubDispatcher struct {
	mu       sync.Mutex
	err      error
	payloads []Payload
	// release, when set, blocks Dispatch until closed.
	release chan struct{}
	started chan struct{}
}

func (d *stubDispatcher) Dispatch(ctx context.Context, payload Payload) error {
	if d.started != nil {
		close(d.started)
	}
	if d.release != nil {
		<-d.release
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return d.err
}

func (d *stubDispatcher) sent() []Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Payload(nil), d.payloads...)
}
