package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	"github.com/sinoafrica/freightbridge/internal/storage"
	"github.com/sinoafrica/freightbridge/internal/utils"
	"github.com/sinoafrica/freightbridge/internal/version"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	store storage.Pinger
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func NewHealthHandler(store storage.Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			utils.HandleAPIError(c, err, http.StatusServiceUnavailable, common.ErrCodeInternalServer, "Store connection error")
			return
		}
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(HealthResponse{
		Status:  "ok",
		Version: version.Version,
	}))
}
