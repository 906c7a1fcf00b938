package contact

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// MessageKey identifies a user-visible contact form message.
type MessageKey string

const (
	MsgNameRequired    MessageKey = "name.required"
	MsgNameLength      MessageKey = "name.length"
	MsgNameCharacters  MessageKey = "name.characters"
	MsgEmailRequired   MessageKey = "email.required"
	MsgEmailTooLong    MessageKey = "email.too_long"
	MsgEmailInvalid    MessageKey = "email.invalid"
	MsgPhoneInvalid    MessageKey = "phone.invalid"
	MsgMessageRequired MessageKey = "message.required"
	MsgMessageTooShort MessageKey = "message.too_short"
	MsgMessageTooLong  MessageKey = "message.too_long"

	MsgSuspicious  MessageKey = "form.suspicious"
	MsgRateLimited MessageKey = "form.rate_limited"
	MsgCSRF        MessageKey = "form.csrf"
	MsgTransport   MessageKey = "form.transport"
	MsgInFlight    MessageKey = "form.in_flight"
	MsgSuccess     MessageKey = "form.success"
)

var (
	supportedLocales = []language.Tag{
		language.English, // first entry is the fallback
		language.French,
		language.Chinese,
	}
	localeMatcher = language.NewMatcher(supportedLocales)
)

var catalog = map[language.Base]map[MessageKey]string{
	base(language.English): {
		MsgNameRequired:    "Name is required",
		MsgNameLength:      "Name must be between 2 and 100 characters",
		MsgNameCharacters:  "Name must contain at least one letter or number",
		MsgEmailRequired:   "Email is required",
		MsgEmailTooLong:    "Email address is too long",
		MsgEmailInvalid:    "Please enter a valid email address",
		MsgPhoneInvalid:    "Please enter a valid phone number (8-15 digits)",
		MsgMessageRequired: "Message is required",
		MsgMessageTooShort: "Message must be at least 10 characters",
		MsgMessageTooLong:  "Message must be less than 5000 characters",
		MsgSuspicious:      "Your message contains content that is not allowed",
		MsgRateLimited:     "Too many submissions. Please try again in %d minutes.",
		MsgCSRF:            "Security token expired. Please refresh the page and try again.",
		MsgTransport:       "Failed to send your message. Please try again.",
		MsgInFlight:        "Your previous submission is still being processed",
		MsgSuccess:         "Thank you! We will get back to you within 24 hours.",
	},
	base(language.French): {
		MsgNameRequired:    "Le nom est obligatoire",
		MsgNameLength:      "Le nom doit contenir entre 2 et 100 caractères",
		MsgNameCharacters:  "Le nom doit contenir au moins une lettre ou un chiffre",
		MsgEmailRequired:   "L'adresse e-mail est obligatoire",
		MsgEmailTooLong:    "L'adresse e-mail est trop longue",
		MsgEmailInvalid:    "Veuillez saisir une adresse e-mail valide",
		MsgPhoneInvalid:    "Veuillez saisir un numéro de téléphone valide (8 à 15 chiffres)",
		MsgMessageRequired: "Le message est obligatoire",
		MsgMessageTooShort: "Le message doit contenir au moins 10 caractères",
		MsgMessageTooLong:  "Le message doit contenir moins de 5000 caractères",
		MsgSuspicious:      "Votre message contient du contenu non autorisé",
		MsgRateLimited:     "Trop d'envois. Veuillez réessayer dans %d minutes.",
		MsgCSRF:            "Le jeton de sécurité a expiré. Veuillez actualiser la page et réessayer.",
		MsgTransport:       "Échec de l'envoi de votre message. Veuillez réessayer.",
		MsgInFlight:        "Votre envoi précédent est encore en cours de traitement",
		MsgSuccess:         "Merci ! Nous vous répondrons sous 24 heures.",
	},
	base(language.Chinese): {
		MsgNameRequired:    "请输入姓名",
		MsgNameLength:      "姓名长度必须在2到100个字符之间",
		MsgNameCharacters:  "姓名必须至少包含一个字母或数字",
		MsgEmailRequired:   "请输入电子邮箱",
		MsgEmailTooLong:    "电子邮箱地址过长",
		MsgEmailInvalid:    "请输入有效的电子邮箱地址",
		MsgPhoneInvalid:    "请输入有效的电话号码（8至15位数字）",
		MsgMessageRequired: "请输入留言内容",
		MsgMessageTooShort: "留言内容至少需要10个字符",
		MsgMessageTooLong:  "留言内容不能超过5000个字符",
		MsgSuspicious:      "您的留言包含不允许的内容",
		MsgRateLimited:     "提交次数过多，请在%d分钟后重试。",
		MsgCSRF:            "安全令牌已过期，请刷新页面后重试。",
		MsgTransport:       "消息发送失败，请重试。",
		MsgInFlight:        "您之前的提交仍在处理中",
		MsgSuccess:         "谢谢！我们将在24小时内回复您。",
	},
}

func base(tag language.Tag) language.Base {
	b, _ := tag.Base()
	return b
}

// DefaultLocale is used when no supported locale can be matched.
func DefaultLocale() language.Tag {
	return supportedLocales[0]
}

// SupportedLocales returns the locales that have a message catalog.
func SupportedLocales() []language.Tag {
	out := make([]language.Tag, len(supportedLocales))
	copy(out, supportedLocales)
	return out
}

// IsSupportedLocale reports whether value parses to a locale with a catalog.
func IsSupportedLocale(value string) bool {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	_, ok := catalog[base(tag)]
	return ok
}

// MatchLocale resolves the best supported locale from a list of candidates,
// typically an explicit form locale followed by an Accept-Language header.
// Candidates that fail to parse are skipped.
func MatchLocale(candidates ...string) language.Tag {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(candidate)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, index, confidence := localeMatcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		return supportedLocales[index]
	}
	return DefaultLocale()
}

// Localize renders a message in the given locale, falling back to English.
func Localize(tag language.Tag, key MessageKey, args ...any) string {
	messages, ok := catalog[base(tag)]
	if !ok {
		messages = catalog[base(DefaultLocale())]
	}
	format, ok := messages[key]
	if !ok {
		format, ok = catalog[base(DefaultLocale())][key]
		if !ok {
			return string(key)
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
