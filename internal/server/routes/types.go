package routes

import (
	"github.com/sinoafrica/freightbridge/internal/api/handlers"
	"github.com/sinoafrica/freightbridge/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers contains all the route handlers
type Handlers struct {
	Health  *handlers.HealthHandler
	Contact *handlers.ContactHandler
}

// Middleware contains the route-level middleware
type Middleware struct {
	Validation *middleware.ValidationMiddleware
	Session    gin.HandlerFunc
}
