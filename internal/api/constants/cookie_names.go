package constants

// Cookie names used in the application
const (
	// CookieSession identifies a browser session. It has no Max-Age, so the
	// browser drops it on close and the CSRF token goes with it.
	CookieSession = "fb_session"
	// CookieVisitor identifies a browser across sessions for rate limiting.
	CookieVisitor = "fb_visitor"

	// Cookie paths
	CookiePathRoot = "/" // Root path for cookies available throughout the site

	// Cookie duration in seconds
	CookieDuration30d = 2592000 // 30 days
)
