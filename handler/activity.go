package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) activityFeed(c *gin.Context) {
	var q structs.ActivityFeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid query parameters"))
		return
	}

	result, err := h.svc.Activity.Feed(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) taskActivity(c *gin.Context) {
	var q structs.ActivityFeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid query parameters"))
		return
	}

	result, err := h.svc.Activity.TaskActivity(c.Request.Context(), middleware.UserID(c), c.Param("taskId"), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) teamActivity(c *gin.Context) {
	var q structs.ActivityFeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid query parameters"))
		return
	}

	result, err := h.svc.Activity.TeamActivity(c.Request.Context(), middleware.UserID(c), c.Param("teamId"), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) listNotifications(c *gin.Context) {
	var q structs.NotificationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid query parameters"))
		return
	}

	result, err := h.svc.Activity.Notifications(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.svc.Activity.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, map[string]int64{"unread": count})
}

func (h *Handler) markRead(c *gin.Context) {
	n, err := h.svc.Activity.MarkNotificationRead(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, n)
}

func (h *Handler) markAllRead(c *gin.Context) {
	count, err := h.svc.Activity.MarkAllNotificationsRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, map[string]int64{"marked": count})
}

func (h *Handler) deleteNotification(c *gin.Context) {
	if err := h.svc.Activity.DeleteNotification(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "notification deleted")
}

func (h *Handler) getPreferences(c *gin.Context) {
	prefs, err := h.svc.Activity.Preferences(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, prefs)
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var body structs.UpdatePreferencesBody
	if !bind(c, &body) {
		return
	}

	prefs, err := h.svc.Activity.UpdatePreferences(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, prefs)
}
