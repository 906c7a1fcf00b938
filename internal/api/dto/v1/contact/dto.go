package contact

import (
	pipeline "github.com/sinoafrica/freightbridge/internal/contact"
)

// ContactRequest represents a contact form submission. Field rules are
// enforced by the contact pipeline so errors come back per field and
// localized; the binding tags only reject malformed or oversized bodies.
type ContactRequest struct {
	Name           string `json:"name" binding:"max=1000"`
	Email          string `json:"email" binding:"max=1000"`
	Phone          string `json:"phone" binding:"max=100"`
	Message        string `json:"message" binding:"max=20000"`
	CSRFToken      string `json:"csrfToken" binding:"max=128"`
	Locale         string `json:"locale" binding:"omitempty,locale"`
	RecaptchaToken string `json:"recaptcha_token" binding:"max=4096"`
}

// Input converts the request to pipeline input.
func (r *ContactRequest) Input() pipeline.FormInput {
	return pipeline.FormInput{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Message: r.Message,
	}
}

// TokenResponse is returned when a CSRF token is issued
type TokenResponse struct {
	CSRFToken string                   `json:"csrfToken"`
	RateLimit pipeline.RateLimitStatus `json:"rateLimit"`
}

// ContactResponse is returned for every submission, successful or not.
// On failure it is carried in the error details.
type ContactResponse = pipeline.Outcome

// NewContactResponse wraps a pipeline outcome
func NewContactResponse(outcome pipeline.Outcome) ContactResponse {
	return ContactResponse(outcome)
}
