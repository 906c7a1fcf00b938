package server

import (
	"github.com/sinoafrica/freightbridge/internal/api/middleware"
	"github.com/sinoafrica/freightbridge/internal/config"
	"github.com/sinoafrica/freightbridge/internal/contact"
	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/service"
	"github.com/sinoafrica/freightbridge/internal/storage"

	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	logger   *logging.Logger
	deps     Dependencies
	forms    *contact.FormRegistry
	sessions *storage.MemoryStore
	limiter  *middleware.ClientRateLimiter
}

// Dependencies are the collaborators the server is built from. Durable
// keeps the submission log, Session keeps CSRF tokens.
type Dependencies struct {
	Durable    storage.Store
	Session    storage.Store
	Dispatcher contact.Dispatcher
	Recaptcha  *service.RecaptchaService
	Scheduler  contact.Scheduler
}
