package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/sinoafrica/freightbridge/internal/contact"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramDispatcher forwards submissions to a Telegram chat
type TelegramDispatcher struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramDispatcher creates a new Telegram dispatcher
func NewTelegramDispatcher(botToken, chatID string) *TelegramDispatcher {
	return &TelegramDispatcher{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// telegramMessage represents a Telegram API message
type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// formatTelegramText renders the submission for Telegram's HTML parse mode.
// Payload values are already HTML-escaped; Telegram only understands a few
// named entities, so they are decoded and re-escaped here.
func formatTelegramText(p contact.Payload) string {
	phone := html.UnescapeString(p.Phone)
	if phone == "" {
		phone = "-"
	}
	var b strings.Builder
	fmt.Fprintf(&b,
		"🆕 <b>New Freight Inquiry</b>\n\n"+
			"<b>Name:</b> %s\n"+
			"<b>Email:</b> %s\n"+
			"<b>Phone:</b> %s\n"+
			"<b>Message:</b>\n%s",
		html.EscapeString(html.UnescapeString(p.Name)),
		html.EscapeString(html.UnescapeString(p.Email)),
		html.EscapeString(phone),
		html.EscapeString(html.UnescapeString(p.Message)),
	)

	// Client details are raw header values and are escaped once.
	details := []struct{ label, value string }{
		{"IP", p.Client.IPAddress},
		{"User-Agent", p.Client.UserAgent},
		{"Referrer", p.Client.Referrer},
	}
	wroteHeader := false
	for _, d := range details {
		if d.value == "" {
			continue
		}
		if !wroteHeader {
			b.WriteString("\n\n<b>Client</b>")
			wroteHeader = true
		}
		fmt.Fprintf(&b, "\n<i>%s:</i> %s", d.label, html.EscapeString(d.value))
	}
	return b.String()
}

// Dispatch sends a contact form message to Telegram
func (d *TelegramDispatcher) Dispatch(ctx context.Context, payload contact.Payload) error {
	if d.botToken == "" || d.chatID == "" {
		return fmt.Errorf("telegram bot token or chat ID not configured")
	}

	jsonData, err := json.Marshal(telegramMessage{
		ChatID:    d.chatID,
		Text:      formatTelegramText(payload),
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", d.baseURL, d.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}
