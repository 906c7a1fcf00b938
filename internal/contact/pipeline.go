package contact

import (
	"context"
	"time"

	"golang.org/x/text/language"
)

// SuccessDisplay is how long a form stays in StatusSuccess before
// returning to StatusIdle.
const SuccessDisplay = 5 * time.Second

// Status is the state of a contact form submission.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindSuspicious  ErrorKind = "suspicious_content"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindCSRF        ErrorKind = "csrf_mismatch"
	ErrorKindTransport   ErrorKind = "transport"
	ErrorKindInFlight    ErrorKind = "in_flight"
)

// Payload is the body sent to the contact endpoint. Values are sanitized.
type Payload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	CSRFToken string `json:"csrfToken"`

	// Client is for operator notices only and is not part of the JSON body.
	Client ClientInfo `json:"-"`
}

// ClientInfo describes where a submission came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// Dispatcher delivers an accepted submission.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload Payload) error
}

// Timer is the part of *time.Timer the pipeline needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d.
type Scheduler func(d time.Duration, f func()) Timer

// TransitionObserver is notified of every status change of a form.
type TransitionObserver func(session string, from, to Status)

// Pipeline holds the collaborators shared by all forms.
type Pipeline struct {
	limiter        *RateLimiter
	csrf           *CSRFManager
	dispatcher     Dispatcher
	schedule       Scheduler
	observer       TransitionObserver
	successDisplay time.Duration
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithScheduler replaces time.AfterFunc for the success display timer.
func WithScheduler(s Scheduler) PipelineOption {
	return func(p *Pipeline) {
		p.schedule = s
	}
}

// WithObserver registers a transition observer.
func WithObserver(o TransitionObserver) PipelineOption {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithSuccessDisplay overrides SuccessDisplay.
func WithSuccessDisplay(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.successDisplay = d
	}
}

// NewPipeline wires a submission pipeline.
func NewPipeline(limiter *RateLimiter, csrf *CSRFManager, dispatcher Dispatcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		limiter:    limiter,
		csrf:       csrf,
		dispatcher: dispatcher,
		schedule: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		successDisplay: SuccessDisplay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RateLimit returns the current rate-limit status for a visitor.
func (p *Pipeline) RateLimit(ctx context.Context, visitor string) RateLimitStatus {
	return p.limiter.Check(ctx, visitor)
}

// IssueToken issues a new CSRF token for a session.
func (p *Pipeline) IssueToken(ctx context.Context, session string) string {
	return p.csrf.Generate(ctx, session)
}

// Submission is one submit attempt.
type Submission struct {
	Input     FormInput
	CSRFToken string
	Locale    language.Tag
	Client    ClientInfo
}

// Outcome is the result of a submit attempt. Errors are localized.
type Outcome struct {
	Status      Status           `json:"status"`
	FieldErrors map[Field]string `json:"fieldErrors,omitempty"`
	ErrorKind   ErrorKind        `json:"errorKind,omitempty"`
	Error       string           `json:"error,omitempty"`
	Message     string           `json:"message,omitempty"`
	Token       string           `json:"csrfToken,omitempty"`
	RateLimit   RateLimitStatus  `json:"rateLimit"`
}

// Failed reports whether the attempt was rejected.
func (o Outcome) Failed() bool {
	return o.ErrorKind != ""
}
