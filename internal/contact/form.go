package contact

import (
	"context"
	"sync"
	"time"
)

// Form is the contact form state of one browser session. It runs the
// submission state machine:
//
//	idle -> validating -> submitting -> success | error
//	success -> idle after the success display window
//
// Rate-limit and CSRF rejections move straight to error. While a form is
// validating or submitting, further submits are refused with
// ErrorKindInFlight and leave the state untouched.
type Form struct {
	pipeline *Pipeline
	session  string

	mu         sync.Mutex
	visitor    string
	status     Status
	input      FormInput
	resetTimer Timer
	resetGen   uint64
	lastUsed   time.Time
}

// NewForm creates an idle form for a session and visitor.
func NewForm(p *Pipeline, session, visitor string) *Form {
	return &Form{
		pipeline: p,
		session:  session,
		visitor:  visitor,
		status:   StatusIdle,
		lastUsed: time.Now(),
	}
}

// Status returns the current state.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Input returns the retained field values. They are cleared on success and
// kept on error so the visitor can retry without retyping.
func (f *Form) Input() FormInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

func (f *Form) busy() bool {
	return f.status == StatusValidating || f.status == StatusSubmitting
}

// transition must be called with f.mu held.
func (f *Form) transition(to Status) {
	from := f.status
	f.status = to
	if f.pipeline.observer != nil && from != to {
		f.pipeline.observer(f.session, from, to)
	}
}

func (f *Form) fail(kind ErrorKind, message string, rl RateLimitStatus) Outcome {
	f.transition(StatusError)
	return Outcome{
		Status:    StatusError,
		ErrorKind: kind,
		Error:     message,
		RateLimit: rl,
	}
}

// Submit runs one submission attempt. The dispatch is detached from ctx
// cancellation: once issued it always resolves to success or error.
func (f *Form) Submit(ctx context.Context, sub Submission) Outcome {
	p := f.pipeline
	tag := sub.Locale

	f.mu.Lock()
	f.lastUsed = time.Now()
	if f.busy() {
		status := f.status
		f.mu.Unlock()
		return Outcome{
			Status:    status,
			ErrorKind: ErrorKindInFlight,
			Error:     Localize(tag, MsgInFlight),
			RateLimit: p.limiter.Check(ctx, f.visitor),
		}
	}
	f.cancelReset()
	f.input = sub.Input

	rl := p.limiter.Check(ctx, f.visitor)
	if !rl.Allowed {
		defer f.mu.Unlock()
		return f.fail(ErrorKindRateLimited, Localize(tag, MsgRateLimited, rl.ResetIn), rl)
	}

	if !p.csrf.Validate(ctx, f.session, sub.CSRFToken) {
		defer f.mu.Unlock()
		return f.fail(ErrorKindCSRF, Localize(tag, MsgCSRF), rl)
	}

	f.transition(StatusValidating)

	if results := ValidateForm(sub.Input); len(results) > 0 {
		defer f.mu.Unlock()
		out := f.fail(ErrorKindValidation, "", rl)
		out.FieldErrors = make(map[Field]string, len(results))
		for field, result := range results {
			out.FieldErrors[field] = Localize(tag, result.Code)
		}
		return out
	}

	if formHasSuspiciousContent(sub.Input) {
		defer f.mu.Unlock()
		return f.fail(ErrorKindSuspicious, Localize(tag, MsgSuspicious), rl)
	}

	clean := SanitizeForm(sub.Input)
	payload := Payload{
		Name:      clean.Name,
		Email:     clean.Email,
		Phone:     clean.Phone,
		Message:   clean.Message,
		CSRFToken: sub.CSRFToken,
		Client:    sub.Client,
	}
	f.transition(StatusSubmitting)
	f.mu.Unlock()

	dispatchCtx := context.WithoutCancel(ctx)
	err := p.dispatcher.Dispatch(dispatchCtx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUsed = time.Now()

	if err != nil {
		return f.fail(ErrorKindTransport, Localize(tag, MsgTransport), rl)
	}

	p.limiter.Record(dispatchCtx, f.visitor)
	f.input = FormInput{}
	token := p.csrf.Generate(dispatchCtx, f.session)
	f.transition(StatusSuccess)
	f.scheduleReset()

	return Outcome{
		Status:    StatusSuccess,
		Message:   Localize(tag, MsgSuccess),
		Token:     token,
		RateLimit: p.limiter.Check(dispatchCtx, f.visitor),
	}
}

// scheduleReset and cancelReset must be called with f.mu held. Each
// schedule gets a generation so a timer that fired before being stopped
// cannot reset a later success.
func (f *Form) scheduleReset() {
	f.resetGen++
	gen := f.resetGen
	f.resetTimer = f.pipeline.schedule(f.pipeline.successDisplay, func() {
		f.resetToIdle(gen)
	})
}

func (f *Form) cancelReset() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
	f.resetGen++
}

func (f *Form) resetToIdle(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.resetGen {
		return
	}
	if f.status == StatusSuccess {
		f.transition(StatusIdle)
	}
	f.resetTimer = nil
}

// FormRegistry keeps one Form per session and forgets forms that have been
// unused for longer than the idle timeout.
type FormRegistry struct {
	pipeline *Pipeline
	idle     time.Duration

	mu    sync.Mutex
	forms map[string]*Form
	now   func() time.Time
}

// NewFormRegistry creates a registry. idle <= 0 keeps forms forever.
func NewFormRegistry(p *Pipeline, idle time.Duration) *FormRegistry {
	return &FormRegistry{
		pipeline: p,
		idle:     idle,
		forms:    make(map[string]*Form),
		now:      time.Now,
	}
}

// Form returns the form for session, creating it if needed. The visitor is
// refreshed on every call since it comes from a separate cookie.
func (r *FormRegistry) Form(session, visitor string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	form, ok := r.forms[session]
	if !ok {
		form = NewForm(r.pipeline, session, visitor)
		r.forms[session] = form
		return form
	}
	form.mu.Lock()
	form.visitor = visitor
	form.mu.Unlock()
	return form
}

// Len returns the number of tracked forms.
func (r *FormRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// Sweep removes idle forms that are not mid-submission.
func (r *FormRegistry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for session, form := range r.forms {
		form.mu.Lock()
		stale := !form.busy() && now.Sub(form.lastUsed) > r.idle
		if stale {
			form.cancelReset()
		}
		form.mu.Unlock()
		if stale {
			delete(r.forms, session)
			removed++
		}
	}
	return removed
}

// Start sweeps the registry every interval until ctx is done.
func (r *FormRegistry) Start(ctx context.Context, interval time.Duration) {
	if r.idle <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}
