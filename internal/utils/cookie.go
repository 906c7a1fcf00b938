package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieOptions controls the attributes of cookies set by the API
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetCookie sets an HttpOnly, SameSite=Lax cookie. maxAge 0 makes it a
// browser-session cookie.
func SetCookie(c *gin.Context, opts CookieOptions, name, value, path string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
