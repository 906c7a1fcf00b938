package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sinoafrica/freightbridge/internal/api/constants"
	"github.com/sinoafrica/freightbridge/internal/utils"
)

// Session makes sure every request carries a visitor id (long lived, keys
// the submission log) and a session id (browser session, keys the CSRF
// token). Missing or malformed cookies are replaced.
func Session(opts utils.CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := ensureCookie(c, opts, constants.CookieVisitor, constants.CookieDuration30d)
		sessionID := ensureCookie(c, opts, constants.CookieSession, 0)

		c.Set(constants.ContextKeyVisitor, visitorID)
		c.Set(constants.ContextKeySession, sessionID)

		c.Next()
	}
}

func ensureCookie(c *gin.Context, opts utils.CookieOptions, name string, maxAge int) string {
	if value, err := c.Cookie(name); err == nil {
		if _, err := uuid.Parse(value); err == nil {
			if maxAge > 0 {
				// Sliding expiry for long-lived cookies
				utils.SetCookie(c, opts, name, value, constants.CookiePathRoot, maxAge)
			}
			return value
		}
	}

	value := uuid.NewString()
	utils.SetCookie(c, opts, name, value, constants.CookiePathRoot, maxAge)
	return value
}
