package contact

import (
	"regexp"
	"strings"
)

// Applied in order. Ampersand goes first so later entities are not re-escaped.
var htmlEscapes = []struct {
	from string
	to   string
}{
	{"&", "&amp;"},
	{"<", "&lt;"},
	{">", "&gt;"},
	{`"`, "&quot;"},
	{"'", "&#x27;"},
	{"/", "&#x2F;"},
}

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)data:text/html`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)livescript:`),
	regexp.MustCompile(`(?i)mocha:`),
}

// SanitizeInput escapes the HTML-significant characters in text.
// It is not idempotent: sanitize exactly once, right before dispatch.
func SanitizeInput(text string) string {
	for _, esc := range htmlEscapes {
		text = strings.ReplaceAll(text, esc.from, esc.to)
	}
	return text
}

// ContainsSuspiciousContent reports whether text matches a known script
// injection pattern. This is spam filtering, not an XSS defence; the
// receiving side must still escape what it renders.
func ContainsSuspiciousContent(text string) bool {
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// SanitizeForm escapes every field of input.
func SanitizeForm(input FormInput) FormInput {
	return FormInput{
		Name:    SanitizeInput(strings.TrimSpace(input.Name)),
		Email:   SanitizeInput(strings.TrimSpace(input.Email)),
		Phone:   SanitizeInput(strings.TrimSpace(input.Phone)),
		Message: SanitizeInput(strings.TrimSpace(input.Message)),
	}
}

func formHasSuspiciousContent(input FormInput) bool {
	for _, value := range []string{input.Name, input.Email, input.Phone, input.Message} {
		if ContainsSuspiciousContent(value) {
			return true
		}
	}
	return false
}
