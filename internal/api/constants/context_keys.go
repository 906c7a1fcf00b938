package constants

// Context keys set by middleware
const (
	// Request context keys
	ContextKeyRequestID = "requestID"
	ContextKeyRawBody   = "rawBody"

	// Contact context keys
	ContextKeyContact = "contact"
	ContextKeySession = "sessionID"
	ContextKeyVisitor = "visitorID"
)

// Header names
const (
	HeaderRequestID = "X-Request-ID"
	HeaderCSRF      = "X-CSRF-Token"
)
