package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/dto"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler exposes queue introspection and the historical backfill trigger.
type adminHandler struct {
	queue portssvc.QueueSvcFacade
}

func newAdminHandler(queue portssvc.QueueSvcFacade) *adminHandler {
	return &adminHandler{queue: queue}
}

func (h *adminHandler) getQueueStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to read queue stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *adminHandler) getJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	job, err := h.queue.JobStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Completed jobs are pruned after a while, so unknown can also mean
			// "done long ago".
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to read job status", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read job status"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// triggerHistoricalSync queues a backfill job for the inclusive date range.
func (h *adminHandler) triggerHistoricalSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.HistoricalSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": bindingErrorDetails(err)})
		return
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must not be before startDate"})
		return
	}

	jobID, err := h.queue.EnqueueHistoricalSync(c.Request.Context(), start, end)
	if err != nil {
		logger.Error("Failed to enqueue historical sync", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue the sync"})
		return
	}

	logger.Info("Historical sync queued",
		slog.String("job_id", jobID),
		slog.String("start_date", req.StartDate),
		slog.String("end_date", req.EndDate))

	c.JSON(http.StatusAccepted, dto.HistoricalSyncAcceptedResponse{
		Success: true,
		Message: "Historical sync queued",
		JobID:   jobID,
	})
}
