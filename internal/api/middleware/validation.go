package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sinoafrica/freightbridge/internal/api/constants"
	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	"github.com/sinoafrica/freightbridge/internal/api/dto/v1/contact"
	"github.com/sinoafrica/freightbridge/internal/api/validation"
)

// ValidationMiddleware handles request validation
type ValidationMiddleware struct{}

// NewValidationMiddleware creates a new validation middleware and registers
// the custom validators on gin's binding engine
func NewValidationMiddleware() (*ValidationMiddleware, error) {
	if err := validation.RegisterGinValidators(); err != nil {
		return nil, err
	}
	return &ValidationMiddleware{}, nil
}

// ValidateContactRequest binds the contact form body and stores it in the context
func (m *ValidationMiddleware) ValidateContactRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contact.ContactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var details interface{}
			message := "Malformed JSON body"
			if fieldErrors := validation.FormatValidationError(err); fieldErrors != nil {
				details = fieldErrors
				message = "Invalid request body"
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, common.NewErrorResponse(
				common.ErrCodeBadRequest,
				message,
				details,
			))
			return
		}

		if req.CSRFToken == "" {
			req.CSRFToken = c.GetHeader(constants.HeaderCSRF)
		}

		c.Set(constants.ContextKeyContact, &req)
		c.Next()
	}
}
