package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sinoafrica/freightbridge/internal/api/constants"
	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/utils"
)

// RequestLogger logs one line per request. Output is controlled by the
// logger's request logging switch (LOG_REQUESTS).
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogHTTPRequest(
			c.Request.Method,
			path,
			utils.GetRealIP(c),
			c.GetString(constants.ContextKeyRequestID),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}
