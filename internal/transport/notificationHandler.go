package transport

import (
	"net/http"
	"strconv"

	"freshkeeper/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetUserNotifications lists a user's feed, newest first. Supports
// ?unread_only=true and ?limit=N.
func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return
	}

	unreadOnly := c.Query("unread_only") == "true"

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	notifications, err := h.notificationService.GetUserNotifications(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Notification marked as read",
	})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "All notifications marked as read",
	})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return
	}

	if err := h.notificationService.DeleteNotification(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Notification deleted",
	})
}
