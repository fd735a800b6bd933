package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/gin-gonic/gin"
)

// homeHandler serves the health endpoint.
type homeHandler struct {
	queue portssvc.QueueSvcFacade
}

func newHomeHandler(queue portssvc.QueueSvcFacade) *homeHandler {
	return &homeHandler{queue: queue}
}

// getHealth reports service health plus a snapshot of queue depth. A failing
// job store makes the service unhealthy; it cannot accept events it cannot
// persist.
func (h *homeHandler) getHealth(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Health check failed against the job store", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "job store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "queue": stats})
}
