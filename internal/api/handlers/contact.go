package handlers

import (
	"net/http"
	"strconv"

	"github.com/sinoafrica/freightbridge/internal/api/constants"
	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	contactdto "github.com/sinoafrica/freightbridge/internal/api/dto/v1/contact"
	"github.com/sinoafrica/freightbridge/internal/contact"
	"github.com/sinoafrica/freightbridge/internal/service"
	"github.com/sinoafrica/freightbridge/internal/utils"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	pipeline  *contact.Pipeline
	forms     *contact.FormRegistry
	recaptcha *service.RecaptchaService
}

// NewContactHandler creates a contact handler. recaptcha may be nil.
func NewContactHandler(pipeline *contact.Pipeline, forms *contact.FormRegistry, recaptcha *service.RecaptchaService) *ContactHandler {
	return &ContactHandler{
		pipeline:  pipeline,
		forms:     forms,
		recaptcha: recaptcha,
	}
}

// Token issues a CSRF token for the caller's session. Each call replaces
// the previous token.
func (h *ContactHandler) Token(c *gin.Context) {
	ctx := c.Request.Context()
	token := h.pipeline.IssueToken(ctx, c.GetString(constants.ContextKeySession))

	utils.HandleSuccess(c, contactdto.TokenResponse{
		CSRFToken: token,
		RateLimit: h.pipeline.RateLimit(ctx, c.GetString(constants.ContextKeyVisitor)),
	})
}

// Limit reports the caller's submission allowance
func (h *ContactHandler) Limit(c *gin.Context) {
	utils.HandleSuccess(c, h.pipeline.RateLimit(c.Request.Context(), c.GetString(constants.ContextKeyVisitor)))
}

// Submit runs the caller's form through the pipeline and responds with a
// ContactResponse.
func (h *ContactHandler) Submit(c *gin.Context) {
	// Get contact data from context (set by validation middleware)
	contactData, exists := c.Get(constants.ContextKeyContact)
	if !exists {
		utils.HandleAPIError(c, nil, http.StatusInternalServerError, common.ErrCodeInternalServer, "Contact data not found in context")
		return
	}

	req, ok := contactData.(*contactdto.ContactRequest)
	if !ok {
		utils.HandleAPIError(c, nil, http.StatusInternalServerError, common.ErrCodeInternalServer, "Invalid contact data format")
		return
	}

	locale := contact.MatchLocale(req.Locale, c.Query("lang"), c.GetHeader("Accept-Language"))

	if h.recaptcha.Enabled() {
		if err := h.recaptcha.VerifyToken(c.Request.Context(), req.RecaptchaToken, utils.GetRealIP(c)); err != nil {
			utils.HandleAPIError(c, err, http.StatusBadRequest, common.ErrCodeBadRequest, "reCAPTCHA verification failed")
			return
		}
	}

	form := h.forms.Form(c.GetString(constants.ContextKeySession), c.GetString(constants.ContextKeyVisitor))
	outcome := form.Submit(c.Request.Context(), contact.Submission{
		Input:     req.Input(),
		CSRFToken: req.CSRFToken,
		Locale:    locale,
		Client: contact.ClientInfo{
			IPAddress: utils.GetRealIP(c),
			UserAgent: c.Request.UserAgent(),
			Referrer:  c.Request.Referer(),
		},
	})

	resp := contactdto.NewContactResponse(outcome)
	if !outcome.Failed() {
		utils.HandleSuccess(c, resp)
		return
	}

	status, code := outcomeStatus(outcome.ErrorKind)
	message := outcome.Error
	if message == "" {
		message = "Validation failed"
	}
	if outcome.ErrorKind == contact.ErrorKindRateLimited {
		c.Header("Retry-After", retryAfterSeconds(outcome.RateLimit))
	}
	utils.HandleAPIErrorWithDetails(c, status, code, message, resp)
}

// outcomeStatus maps a pipeline error kind to an HTTP status and API error code
func outcomeStatus(kind contact.ErrorKind) (int, common.ErrorCode) {
	switch kind {
	case contact.ErrorKindValidation:
		return http.StatusBadRequest, common.ErrCodeValidation
	case contact.ErrorKindSuspicious:
		return http.StatusBadRequest, common.ErrCodeBadRequest
	case contact.ErrorKindRateLimited:
		return http.StatusTooManyRequests, common.ErrCodeTooManyRequests
	case contact.ErrorKindCSRF:
		return http.StatusForbidden, common.ErrCodeForbidden
	case contact.ErrorKindInFlight:
		return http.StatusConflict, common.ErrCodeConflict
	case contact.ErrorKindTransport:
		return http.StatusBadGateway, common.ErrCodeBadGateway
	default:
		return http.StatusInternalServerError, common.ErrCodeInternalServer
	}
}

func retryAfterSeconds(rl contact.RateLimitStatus) string {
	minutes := rl.ResetIn
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes * 60)
}
