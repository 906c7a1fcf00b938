package contact

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameMinLength    = 2
	nameMaxLength    = 100
	emailMaxLength   = 254
	phoneMinDigits   = 8
	phoneMaxDigits   = 15
	messageMinLength = 10
	messageMaxLength = 5000
)

var (
	emailRegex          = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$")
	phoneSeparatorRegex = regexp.MustCompile(`[\s.\-()+]`)
	phoneDigitsRegex    = regexp.MustCompile(`^[0-9]+$`)
)

// Field names a contact form input.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldMessage Field = "message"
)

// FormInput is one contact form submission attempt.
type FormInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a single field. Error holds
// the English message; Code can be localized with Localize.
type ValidationResult struct {
	IsValid bool       `json:"isValid"`
	Code    MessageKey `json:"code,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

func invalid(code MessageKey) ValidationResult {
	return ValidationResult{
		IsValid: false,
		Code:    code,
		Error:   Localize(DefaultLocale(), code),
	}
}

// ValidateName requires 2-100 characters with at least one letter or digit.
func ValidateName(name string) ValidationResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid(MsgNameRequired)
	}
	length := utf8.RuneCountInString(trimmed)
	if length < nameMinLength || length > nameMaxLength {
		return invalid(MsgNameLength)
	}
	if !strings.ContainsFunc(trimmed, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) {
		return invalid(MsgNameCharacters)
	}
	return valid()
}

// ValidateEmail checks length and a simplified RFC 5322 address pattern.
func ValidateEmail(email string) ValidationResult {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return invalid(MsgEmailRequired)
	}
	if len(trimmed) > emailMaxLength {
		return invalid(MsgEmailTooLong)
	}
	if !emailRegex.MatchString(trimmed) {
		return invalid(MsgEmailInvalid)
	}
	return valid()
}

// ValidatePhone accepts an empty value. Otherwise, once separators are
// stripped, the number must have 8 to 15 digits.
func ValidatePhone(phone string) ValidationResult {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return valid()
	}
	digits := phoneSeparatorRegex.ReplaceAllString(trimmed, "")
	if !phoneDigitsRegex.MatchString(digits) || len(digits) < phoneMinDigits || len(digits) > phoneMaxDigits {
		return invalid(MsgPhoneInvalid)
	}
	return valid()
}

// ValidateMessage requires 10-5000 characters.
func ValidateMessage(message string) ValidationResult {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return invalid(MsgMessageRequired)
	}
	length := utf8.RuneCountInString(trimmed)
	if length < messageMinLength {
		return invalid(MsgMessageTooShort)
	}
	if length > messageMaxLength {
		return invalid(MsgMessageTooLong)
	}
	return valid()
}

// ValidateForm runs every field validator and returns the failing ones.
// An empty map means the input is valid.
func ValidateForm(input FormInput) map[Field]ValidationResult {
	results := map[Field]ValidationResult{
		FieldName:    ValidateName(input.Name),
		FieldEmail:   ValidateEmail(input.Email),
		FieldPhone:   ValidatePhone(input.Phone),
		FieldMessage: ValidateMessage(input.Message),
	}
	for field, result := range results {
		if result.IsValid {
			delete(results, field)
		}
	}
	return results
}
