package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"freshkeeper/pkg/queue"
	"freshkeeper/pkg/scheduler"

	"github.com/gin-gonic/gin"
)

// ScanTrigger starts an expiry scan outside the schedule.
type ScanTrigger interface {
	TriggerManualScan(ctx context.Context) error
}

// AdminHandler exposes the operational endpoints: manual scan trigger and
// dead-letter queue inspection. Both collaborators may be nil when the
// corresponding subsystem is not configured; the endpoints then answer
// 503.
type AdminHandler struct {
	trigger ScanTrigger
	dlq     queue.DLQHandler
}

func NewAdminHandler(trigger ScanTrigger, dlq queue.DLQHandler) *AdminHandler {
	return &AdminHandler{trigger: trigger, dlq: dlq}
}

// TriggerScan runs the daily scan immediately. A scan already in flight
// answers 409; the caller retries later instead of queueing up.
func (h *AdminHandler) TriggerScan(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "scheduler not configured"})
		return
	}

	if err := h.trigger.TriggerManualScan(c.Request.Context()); err != nil {
		if errors.Is(err, scheduler.ErrScanInProgress) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Scan completed",
	})
}

func (h *AdminHandler) GetFailedTasks(c *gin.Context) {
	if h.dlq == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	tasks, err := h.dlq.GetFailedTasks(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *AdminHandler) RequeueFailedTask(c *gin.Context) {
	if h.dlq == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue not configured"})
		return
	}

	if err := h.dlq.RequeueFailedTask(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Task requeued",
	})
}

func (h *AdminHandler) GetDLQStats(c *gin.Context) {
	if h.dlq == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue not configured"})
		return
	}

	stats, err := h.dlq.GetDLQStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
