package delivery

import (
	"net/http"

	"sigsync/internal/apply/usecase"
	"sigsync/pkg/pubsub"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ApplyHandler is the Pub/Sub push endpoint: one delivered update event per
// request. Success acknowledges the event; any non-2xx response makes the
// channel redeliver it.
type ApplyHandler struct {
	applier *usecase.Applier
	logger  *zap.Logger
}

func NewApplyHandler(applier *usecase.Applier, logger *zap.Logger) *ApplyHandler {
	return &ApplyHandler{applier: applier, logger: logger}
}

// UpdateSignature handles POST /update-signature.
func (h *ApplyHandler) UpdateSignature(c *gin.Context) {
	var push pubsub.PushMessage
	if err := c.ShouldBindJSON(&push); err != nil {
		h.logger.Error("invalid push envelope", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push envelope"})
		return
	}

	event, err := pubsub.DecodeUpdateEvent(push)
	if err != nil {
		// Malformed payloads can never succeed; 400 instead of 500 keeps
		// them out of the redelivery loop's error budget.
		h.logger.Error("invalid update event", zap.String("message_id", push.Message.MessageID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.applier.Apply(c.Request.Context(), event); err != nil {
		h.logger.Error("apply failed", zap.String("email", event.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "apply failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "employee_id": event.Email})
}

// MaxInFlight caps concurrent requests. The deployment already limits the
// receiver to one in-flight delivery; this middleware keeps the invariant
// even when that outer cap is misconfigured.
func MaxInFlight(n int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(n)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
