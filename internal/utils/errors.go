package utils

import (
	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	"github.com/sinoafrica/freightbridge/internal/logging"

	"github.com/gin-gonic/gin"
)

// HandleAPIError is a utility function for consistent error handling across the API.
// Error details are only exposed outside release mode.
func HandleAPIError(c *gin.Context, err error, status int, code common.ErrorCode, message string) {
	logging.GetGlobalLogger().LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	var errorDetails any
	if err != nil && gin.Mode() != gin.ReleaseMode {
		errorDetails = err.Error()
	}

	c.AbortWithStatusJSON(status, common.NewErrorResponse(code, message, errorDetails))
}

// HandleAPIErrorWithDetails responds with an error envelope carrying
// structured details, which are always exposed.
func HandleAPIErrorWithDetails(c *gin.Context, status int, code common.ErrorCode, message string, details any) {
	c.AbortWithStatusJSON(status, common.NewErrorResponse(code, message, details))
}
