package contact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sinoafrica/freightbridge/internal/storage"
)

type dispatchFunc func(ctx context.Context, payload Payload) error

func (f dispatchFunc) Dispatch(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}

type transition struct {
	from, to Status
}

type formFixture struct {
	durable    *storage.MemoryStore
	sessions   *storage.MemoryStore
	clock      *fakeClock
	scheduler  *fakeScheduler
	dispatcher *stubDispatcher
	pipeline   *Pipeline

	mu          sync.Mutex
	transitions []transition
}

func newFormFixture(t *testing.T) *formFixture {
	t.Helper()
	fx := &formFixture{
		durable:    storage.NewMemoryStore(0),
		sessions:   storage.NewMemoryStore(0),
		clock:      newFakeClock(),
		scheduler:  &fakeScheduler{},
		dispatcher: &stubDispatcher{},
	}
	limiter := NewRateLimiter(fx.durable)
	limiter.now = fx.clock.Now
	fx.pipeline = NewPipeline(limiter, NewCSRFManager(fx.sessions), fx.dispatcher,
		WithScheduler(fx.scheduler.Schedule),
		WithObserver(func(session string, from, to Status) {
			fx.mu.Lock()
			defer fx.mu.Unlock()
			fx.transitions = append(fx.transitions, transition{from, to})
		}),
	)
	return fx
}

func (fx *formFixture) recorded() []transition {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	out := append([]transition(nil), fx.transitions...)
	fx.transitions = nil
	return out
}

func validInput() FormInput {
	return FormInput{
		Name:    "Amina Okafor",
		Email:   "amina@example.ng",
		Phone:   "+234 803 123 4567",
		Message: "Please quote 2x40HC <urgent> from Ningbo to Lagos",
	}
}

func TestForm_SuccessfulSubmission(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "session-1", "visitor-1")

	token := fx.pipeline.IssueToken(ctx, "session-1")
	require.NotEmpty(t, token)

	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})

	require.False(t, out.Failed(), "unexpected failure: %+v", out)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, StatusSuccess, form.Status())
	assert.Equal(t, "Thank you! We will get back to you within 24 hours.", out.Message)
	assert.Regexp(t, hexToken, out.Token)
	assert.NotEqual(t, token, out.Token)
	assert.Equal(t, RateLimitStatus{Allowed: true, Remaining: MaxSubmissions - 1}, out.RateLimit)
	assert.Equal(t, FormInput{}, form.Input())

	sent := fx.dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, Payload{
		Name:      "Amina Okafor",
		Email:     "amina@example.ng",
		Phone:     "+234 803 123 4567",
		Message:   "Please quote 2x40HC &lt;urgent&gt; from Ningbo to Lagos",
		CSRFToken: token,
	}, sent[0])

	// The spent token is rotated out.
	assert.False(t, fx.pipeline.csrf.Validate(ctx, "session-1", token))
	assert.True(t, fx.pipeline.csrf.Validate(ctx, "session-1", out.Token))

	timer := fx.scheduler.last()
	require.NotNil(t, timer)
	assert.Equal(t, SuccessDisplay, timer.delay)
	timer.fn()
	assert.Equal(t, StatusIdle, form.Status())

	assert.Equal(t, []transition{
		{StatusIdle, StatusValidating},
		{StatusValidating, StatusSubmitting},
		{StatusSubmitting, StatusSuccess},
		{StatusSuccess, StatusIdle},
	}, fx.recorded())
}

func TestForm_ValidationFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")
	token := fx.pipeline.IssueToken(ctx, "s")

	input := FormInput{Name: "A", Email: "nope", Message: "short"}
	out := form.Submit(ctx, Submission{Input: input, CSRFToken: token, Locale: language.French})

	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, ErrorKindValidation, out.ErrorKind)
	assert.Equal(t, map[Field]string{
		FieldName:    "Le nom doit contenir entre 2 et 100 caractères",
		FieldEmail:   "Veuillez saisir une adresse e-mail valide",
		FieldMessage: "Le message doit contenir au moins 10 caractères",
	}, out.FieldErrors)
	assert.Equal(t, input, form.Input())
	assert.Empty(t, fx.dispatcher.sent())
	assert.Equal(t, MaxSubmissions, out.RateLimit.Remaining)
	assert.Equal(t, []transition{
		{StatusIdle, StatusValidating},
		{StatusValidating, StatusError},
	}, fx.recorded())

	// The token was not consumed, so a corrected retry goes through.
	retry := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	assert.Equal(t, StatusSuccess, retry.Status)
}

func TestForm_SuspiciousContent(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")
	token := fx.pipeline.IssueToken(ctx, "s")

	input := validInput()
	input.Message = "Hello <script>alert(1)</script>"
	out := form.Submit(ctx, Submission{Input: input, CSRFToken: token})

	assert.Equal(t, ErrorKindSuspicious, out.ErrorKind)
	assert.Equal(t, "Your message contains content that is not allowed", out.Error)
	assert.Empty(t, fx.dispatcher.sent())
}

func TestForm_CSRFMismatchSkipsValidation(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")
	fx.pipeline.IssueToken(ctx, "s")

	out := form.Submit(ctx, Submission{Input: FormInput{}, CSRFToken: "forged"})

	assert.Equal(t, ErrorKindCSRF, out.ErrorKind)
	assert.Empty(t, out.FieldErrors)
	assert.Equal(t, []transition{{StatusIdle, StatusError}}, fx.recorded())
}

func TestForm_RateLimited(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")

	for i := 0; i < MaxSubmissions; i++ {
		fx.pipeline.limiter.Record(ctx, "v")
	}
	fx.clock.Advance(15 * time.Minute)

	token := fx.pipeline.IssueToken(ctx, "s")
	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token, Locale: language.Chinese})

	assert.Equal(t, ErrorKindRateLimited, out.ErrorKind)
	assert.Equal(t, "提交次数过多，请在45分钟后重试。", out.Error)
	assert.Equal(t, RateLimitStatus{Allowed: false, Remaining: 0, ResetIn: 45}, out.RateLimit)
	assert.Empty(t, fx.dispatcher.sent())
	assert.Equal(t, []transition{{StatusIdle, StatusError}}, fx.recorded())
}

func TestForm_ThreeSubmissionsThenBlocked(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")

	token := fx.pipeline.IssueToken(ctx, "s")
	for i := 0; i < MaxSubmissions; i++ {
		out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
		require.Equal(t, StatusSuccess, out.Status, "submission %d", i+1)
		assert.Equal(t, MaxSubmissions-i-1, out.RateLimit.Remaining)
		token = out.Token
		fx.clock.Advance(time.Minute)
	}

	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	assert.Equal(t, ErrorKindRateLimited, out.ErrorKind)
	assert.Equal(t, 57, out.RateLimit.ResetIn)
	assert.Len(t, fx.dispatcher.sent(), MaxSubmissions)
}

func TestForm_TransportFailureKeepsInput(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	fx.dispatcher.err = errors.New("connection refused")
	form := NewForm(fx.pipeline, "s", "v")
	token := fx.pipeline.IssueToken(ctx, "s")

	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})

	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, ErrorKindTransport, out.ErrorKind)
	assert.Equal(t, "Failed to send your message. Please try again.", out.Error)
	assert.Equal(t, validInput(), form.Input())
	assert.Empty(t, out.Token)
	assert.Equal(t, MaxSubmissions, fx.pipeline.RateLimit(ctx, "v").Remaining)
	assert.Nil(t, fx.scheduler.last())
	assert.Equal(t, []transition{
		{StatusIdle, StatusValidating},
		{StatusValidating, StatusSubmitting},
		{StatusSubmitting, StatusError},
	}, fx.recorded())

	fx.dispatcher.mu.Lock()
	fx.dispatcher.err = nil
	fx.dispatcher.mu.Unlock()

	retry := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	assert.Equal(t, StatusSuccess, retry.Status)
}

func TestForm_RejectsWhileInFlight(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	fx.dispatcher.started = make(chan struct{})
	fx.dispatcher.release = make(chan struct{})
	form := NewForm(fx.pipeline, "s", "v")
	token := fx.pipeline.IssueToken(ctx, "s")

	done := make(chan Outcome, 1)
	go func() {
		done <- form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	}()

	<-fx.dispatcher.started
	assert.Equal(t, StatusSubmitting, form.Status())

	second := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	assert.Equal(t, ErrorKindInFlight, second.ErrorKind)
	assert.Equal(t, StatusSubmitting, second.Status)
	assert.Equal(t, StatusSubmitting, form.Status())

	close(fx.dispatcher.release)
	first := <-done
	assert.Equal(t, StatusSuccess, first.Status)
	assert.Len(t, fx.dispatcher.sent(), 1)
}

func TestForm_DispatchSurvivesCancellation(t *testing.T) {
	fx := newFormFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	token := fx.pipeline.IssueToken(ctx, "s")

	started := make(chan struct{})
	release := make(chan struct{})
	var dispatchErr error
	fx.pipeline.dispatcher = dispatchFunc(func(ctx context.Context, _ Payload) error {
		close(started)
		<-release
		dispatchErr = ctx.Err()
		return nil
	})
	form := NewForm(fx.pipeline, "s", "v")

	done := make(chan Outcome, 1)
	go func() {
		done <- form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	}()

	<-started
	cancel()
	close(release)

	out := <-done
	assert.NoError(t, dispatchErr)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, MaxSubmissions-1, out.RateLimit.Remaining)
}

func TestForm_ResubmitDuringSuccessDisplay(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")
	token := fx.pipeline.IssueToken(ctx, "s")

	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	require.Equal(t, StatusSuccess, out.Status)
	firstTimer := fx.scheduler.last()

	// A stale token moves the form to error and cancels the pending reset.
	out = form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	assert.Equal(t, ErrorKindCSRF, out.ErrorKind)
	assert.True(t, firstTimer.stopped)

	// A late reset must not clobber the error state.
	firstTimer.fn()
	assert.Equal(t, StatusError, form.Status())
}

func TestForm_LateTimerKeepsNewerSuccess(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	form := NewForm(fx.pipeline, "s", "v")

	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: fx.pipeline.IssueToken(ctx, "s")})
	require.Equal(t, StatusSuccess, out.Status)
	first := fx.scheduler.last()

	out = form.Submit(ctx, Submission{Input: validInput(), CSRFToken: out.Token})
	require.Equal(t, StatusSuccess, out.Status)
	second := fx.scheduler.last()
	require.NotSame(t, first, second)

	// The first timer already fired and only now gets the lock.
	first.fn()
	assert.Equal(t, StatusSuccess, form.Status())

	second.fn()
	assert.Equal(t, StatusIdle, form.Status())
}

func TestFormRegistry(t *testing.T) {
	fx := newFormFixture(t)
	registry := NewFormRegistry(fx.pipeline, 30*time.Minute)

	a := registry.Form("session-a", "visitor-1")
	assert.Same(t, a, registry.Form("session-a", "visitor-1"))
	b := registry.Form("session-b", "visitor-1")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, registry.Len())

	registry.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 2, registry.Sweep())
	assert.Equal(t, 0, registry.Len())
}

func TestFormRegistry_SweepKeepsActiveForms(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	fx.dispatcher.started = make(chan struct{})
	fx.dispatcher.release = make(chan struct{})
	registry := NewFormRegistry(fx.pipeline, time.Minute)

	busy := registry.Form("busy", "v1")
	registry.Form("recent", "v2")
	token := fx.pipeline.IssueToken(ctx, "busy")

	done := make(chan Outcome, 1)
	go func() {
		done <- busy.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	}()
	<-fx.dispatcher.started

	registry.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	assert.Equal(t, 1, registry.Sweep())
	assert.Same(t, busy, registry.Form("busy", "v1"))

	close(fx.dispatcher.release)
	<-done
}

func TestFormRegistry_RefreshesVisitor(t *testing.T) {
	ctx := context.Background()
	fx := newFormFixture(t)
	registry := NewFormRegistry(fx.pipeline, 0)

	for i := 0; i < MaxSubmissions; i++ {
		fx.pipeline.limiter.Record(ctx, "blocked-visitor")
	}

	form := registry.Form("s", "fresh-visitor")
	token := fx.pipeline.IssueToken(ctx, "s")
	require.Equal(t, StatusSuccess, form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token}).Status)

	form = registry.Form("s", "blocked-visitor")
	out := form.Submit(ctx, Submission{Input: validInput(), CSRFToken: token})
	assert.Equal(t, ErrorKindRateLimited, out.ErrorKind)
	assert.Equal(t, 0, registry.Sweep())
}
