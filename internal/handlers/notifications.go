package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread  query    bool  false  "Only unread"
// @Param        limit   query    int   false  "Max results (default 20, cap 100)"
// @Success      200     {array}  models.Notification
// @Router       /api/v1/notifications [get]
// @Security     BearerAuth
func (h *Handler) listNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	list, err := h.services.NotificationQueries.List(c.Request.Context(), userID(c), unreadOnly, queryLimit(c))
	if err != nil {
		h.respondError(c, err, "notifications_list_failed")
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        id  path      string  true  "Notification ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/notifications/{id}/read [patch]
// @Security     BearerAuth
func (h *Handler) markNotificationRead(c *gin.Context) {
	if err := h.services.NotificationQueries.MarkRead(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		h.respondError(c, err, "notification_mark_read_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/v1/notifications/read-all [post]
// @Security     BearerAuth
func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	if err := h.services.NotificationQueries.MarkAllRead(c.Request.Context(), userID(c)); err != nil {
		h.respondError(c, err, "notifications_mark_all_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Delete a notification
// @Tags         notifications
// @Produce      json
// @Param        id  path      string  true  "Notification ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/notifications/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteNotification(c *gin.Context) {
	if err := h.services.NotificationQueries.Delete(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		h.respondError(c, err, "notification_delete_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
