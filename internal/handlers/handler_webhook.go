package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/dto"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// webhookHandler ingests POS transaction events. Events are validated,
// queued, and acknowledged; all real work happens in the queue workers.
type webhookHandler struct {
	queue portssvc.QueueSvcFacade
	pos   portssvc.POSSvcFacade
}

func newWebhookHandler(queue portssvc.QueueSvcFacade, pos portssvc.POSSvcFacade) *webhookHandler {
	return &webhookHandler{queue: queue, pos: pos}
}

// handleTransactionEvent accepts a POS webhook event and queues the matching
// job. Returns 202 with the job ID; the POS only needs to know the event was
// durably accepted.
func (h *webhookHandler) handleTransactionEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.TransactionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Rejected malformed webhook event", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": bindingErrorDetails(err)})
		return
	}

	logger = logger.With(
		slog.String("event_id", req.EventID),
		slog.String("event_type", req.EventType),
		slog.String("transaction_id", req.Data.TransactionID))

	var jobID string
	var err error
	switch req.EventType {
	case dto.EventTransactionCompleted:
		if req.Data.StoreID == "" || req.Data.Status == "" || req.Data.TotalAmount == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Completed events must carry storeId, status and totalAmount"})
			return
		}
		jobID, err = h.queue.EnqueueTransaction(c.Request.Context(), req.Data.ToDomain())

	case dto.EventTransactionVoided, dto.EventTransactionRefunded:
		txn, resolveErr := h.voidTransaction(c, req.Data)
		if resolveErr != nil {
			if errors.Is(resolveErr, apperrors.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found on the POS"})
			} else {
				logger.Error("Failed to fetch voided transaction from POS", slog.String("error", resolveErr.Error()))
				c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch transaction from the POS"})
			}
			return
		}
		jobID, err = h.queue.EnqueueVoid(c.Request.Context(), txn)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported event type %q", req.EventType)})
		return
	}

	if err != nil {
		logger.Error("Failed to enqueue webhook event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue the event"})
		return
	}

	logger.Info("Webhook event queued", slog.String("job_id", jobID))
	c.JSON(http.StatusAccepted, dto.WebhookAcceptedResponse{
		Success: true,
		Message: "Event accepted for processing",
		JobID:   jobID,
	})
}

// handleVoidEvent accepts a dedicated void webhook. The event type in the
// envelope is ignored; posting here always means "reverse this transaction".
func (h *webhookHandler) handleVoidEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.TransactionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Rejected malformed void event", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": bindingErrorDetails(err)})
		return
	}

	logger = logger.With(
		slog.String("event_id", req.EventID),
		slog.String("transaction_id", req.Data.TransactionID))

	txn, err := h.voidTransaction(c, req.Data)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found on the POS"})
		} else {
			logger.Error("Failed to fetch voided transaction from POS", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch transaction from the POS"})
		}
		return
	}

	jobID, err := h.queue.EnqueueVoid(c.Request.Context(), txn)
	if err != nil {
		logger.Error("Failed to enqueue void event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue the event"})
		return
	}

	logger.Info("Void event queued", slog.String("job_id", jobID))
	c.JSON(http.StatusAccepted, dto.WebhookAcceptedResponse{
		Success: true,
		Message: "Void accepted for processing",
		JobID:   jobID,
	})
}

// voidTransaction returns the transaction a void event refers to. Void events
// often carry only the transaction ID; the rest is fetched from the POS.
func (h *webhookHandler) voidTransaction(c *gin.Context, payload dto.TransactionPayload) (domain.Transaction, error) {
	if payload.TotalAmount != nil && !payload.TotalAmount.IsZero() && (payload.CustomerPhone != "" || payload.CustomerEmail != "" || payload.CustomerID != "") {
		return payload.ToDomain(), nil
	}
	txn, err := h.pos.GetTransaction(c.Request.Context(), payload.TransactionID)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *txn, nil
}

// bindingErrorDetails turns validator errors into per-field messages.
func bindingErrorDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("field %s failed on the %s rule", fe.Field(), fe.Tag()))
	}
	return details
}
