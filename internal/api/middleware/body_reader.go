package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/sinoafrica/freightbridge/internal/api/constants"

	"github.com/gin-gonic/gin"
)

// BodyReaderOption defines options for body reader middleware
type BodyReaderOption struct {
	MaxBodySize int64
}

// PreserveRequestBody reads the request body once, enforces the size cap and
// restores it, so validators and handlers can both read it
func PreserveRequestBody(option BodyReaderOption) gin.HandlerFunc {
	if option.MaxBodySize <= 0 {
		option.MaxBodySize = 64 * 1024
	}

	return func(c *gin.Context) {
		// Only process requests that carry a body
		if c.Request.Body == nil || (c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch) {
			c.Next()
			return
		}

		if c.Request.ContentLength > option.MaxBodySize {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		// Read one byte past the cap to detect oversized chunked bodies
		bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, option.MaxBodySize+1))
		if err != nil {
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		if int64(len(bodyBytes)) > option.MaxBodySize {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		// Restore the body for subsequent middleware
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		c.Set(constants.ContextKeyRawBody, bodyBytes)

		c.Next()
	}
}
