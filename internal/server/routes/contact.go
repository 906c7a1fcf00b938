package routes

import (
	"github.com/sinoafrica/freightbridge/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupContactRoutes configures contact form routes
func SetupContactRoutes(router *gin.RouterGroup, contact *handlers.ContactHandler, m *Middleware) {
	group := router.Group("/contact")
	group.Use(m.Session)
	{
		group.GET("/token", contact.Token)
		group.GET("/limit", contact.Limit)
		group.POST("/submit",
			m.Validation.ValidateContactRequest(),
			contact.Submit,
		)
	}
}
