package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	dto "github.com/sinoafrica/freightbridge/internal/api/dto/v1/contact"
	"github.com/sinoafrica/freightbridge/internal/logging"
)

type sendOptions struct {
	server  string
	name    string
	email   string
	phone   string
	message string
	locale  string
	timeout time.Duration
}

var sendOpts sendOptions

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a message to a running contact API",
	Long: `Submit a message through the contact API the same way the website does:
fetch a CSRF token, then post the form with the session cookie.

Example:
  freightbridge send --name "Li Wei" --email li@example.com \
    --message "Quote for two 40ft containers Shenzhen to Mombasa"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogger("info", ""); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), sendOpts.timeout)
		defer cancel()

		s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
		s.Suffix = " Sending message..."
		s.Writer = os.Stderr
		s.Start()
		outcome, err := sendContact(ctx, sendOpts)
		s.Stop()

		if err != nil {
			logger.Error("Failed to send message: %v", err)
			return err
		}

		logger.Info("%s", outcome.Message)
		logger.Info("Submissions left this hour: %d", outcome.RateLimit.Remaining)
		return nil
	},
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendOpts.server, "server", "http://localhost:8080", "Base URL of the contact API")
	f.StringVar(&sendOpts.name, "name", "", "Sender name")
	f.StringVar(&sendOpts.email, "email", "", "Sender email")
	f.StringVar(&sendOpts.phone, "phone", "", "Sender phone (optional)")
	f.StringVar(&sendOpts.message, "message", "", "Message body")
	f.StringVar(&sendOpts.locale, "locale", "", "Response language (en, fr, zh)")
	f.DurationVar(&sendOpts.timeout, "timeout", 30*time.Second, "Overall request timeout")
	_ = sendCmd.MarkFlagRequired("name")
	_ = sendCmd.MarkFlagRequired("email")
	_ = sendCmd.MarkFlagRequired("message")
}

// apiError is an error envelope returned by the contact API.
type apiError struct {
	status int
	body   *common.ErrorResponse
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.body.Message, e.status, e.body.Code)
}

// contactClient talks to the contact API with its own cookie jar, so the
// session that receives the CSRF token is the one that submits.
type contactClient struct {
	http   *http.Client
	base   string
	locale string
}

func newContactClient(server, locale string) (*contactClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &contactClient{
		http:   &http.Client{Jar: jar},
		base:   strings.TrimRight(server, "/"),
		locale: locale,
	}, nil
}

func sendContact(ctx context.Context, opts sendOptions) (*dto.ContactResponse, error) {
	client, err := newContactClient(opts.server, opts.locale)
	if err != nil {
		return nil, err
	}

	var token dto.TokenResponse
	if err := client.do(ctx, http.MethodGet, "/api/v1/contact/token", nil, &token); err != nil {
		return nil, fmt.Errorf("failed to fetch CSRF token: %w", err)
	}
	if !token.RateLimit.Allowed {
		return nil, fmt.Errorf("submission limit reached, try again in %d minutes", token.RateLimit.ResetIn)
	}

	req := dto.ContactRequest{
		Name:      opts.name,
		Email:     opts.email,
		Phone:     opts.phone,
		Message:   opts.message,
		CSRFToken: token.CSRFToken,
		Locale:    opts.locale,
	}
	var outcome dto.ContactResponse
	if err := client.do(ctx, http.MethodPost, "/api/v1/contact/submit", req, &outcome); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			printFieldErrors(apiErr.body.Details)
		}
		return nil, err
	}
	return &outcome, nil
}

func (c *contactClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	envelope := common.APIResponse{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("unexpected response (%d): %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		if envelope.Error == nil {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return &apiError{status: resp.StatusCode, body: envelope.Error}
	}
	return nil
}

func printFieldErrors(details interface{}) {
	m, ok := details.(map[string]interface{})
	if !ok {
		return
	}
	fields, ok := m["fieldErrors"].(map[string]interface{})
	if !ok {
		return
	}
	for field, msg := range fields {
		logging.GetGlobalLogger().Warn("  %s: %v", field, msg)
	}
}
