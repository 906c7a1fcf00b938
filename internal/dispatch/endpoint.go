// Package dispatch delivers accepted contact submissions.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sinoafrica/freightbridge/internal/contact"
)

// EndpointDispatcher POSTs the payload as JSON to a contact endpoint.
type EndpointDispatcher struct {
	url    string
	client *http.Client
}

// NewEndpointDispatcher creates a dispatcher for url. A nil client gets a
// 10 second timeout.
func NewEndpointDispatcher(url string, client *http.Client) *EndpointDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &EndpointDispatcher{url: url, client: client}
}

func (d *EndpointDispatcher) Dispatch(ctx context.Context, payload contact.Payload) error {
	if d.url == "" {
		return fmt.Errorf("contact endpoint url not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal contact payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send contact request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("contact endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
