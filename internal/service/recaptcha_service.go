package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaService handles reCAPTCHA v3 verification
type RecaptchaService struct {
	secretKey string
	minScore  float64
	verifyURL string
	client    *http.Client
}

// NewRecaptchaService creates a new reCAPTCHA service
func NewRecaptchaService(secretKey string, minScore float64) *RecaptchaService {
	return &RecaptchaService{
		secretKey: secretKey,
		minScore:  minScore,
		verifyURL: recaptchaVerifyURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether a secret key is configured
func (s *RecaptchaService) Enabled() bool {
	return s != nil && s.secretKey != ""
}

// recaptchaResponse represents the response from Google's reCAPTCHA API
type recaptchaResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// VerifyToken verifies a reCAPTCHA token against the configured minimum score
func (s *RecaptchaService) VerifyToken(ctx context.Context, token, remoteIP string) error {
	if !s.Enabled() {
		return fmt.Errorf("reCAPTCHA secret key not configured")
	}

	if token == "" {
		return fmt.Errorf("reCAPTCHA token is required")
	}

	data := url.Values{}
	data.Set("secret", s.secretKey)
	data.Set("response", token)
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create reCAPTCHA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to verify reCAPTCHA: %w", err)
	}
	defer resp.Body.Close()

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse reCAPTCHA response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("reCAPTCHA verification failed: %v", result.ErrorCodes)
	}

	if result.Score < s.minScore {
		return fmt.Errorf("reCAPTCHA score too low: %.2f < %.2f", result.Score, s.minScore)
	}

	return nil
}
