// Package handler exposes the REST API on top of the services.
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/pkg/validator"
	"github.com/ncobase/taskflow/service"
	"github.com/ncobase/taskflow/websocket"
)

// Handler holds the route handlers.
type Handler struct {
	svc *service.Service
	hub *websocket.Hub
}

// New creates a new handler instance.
func New(svc *service.Service, hub *websocket.Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

// RegisterRoutes mounts all API routes on the engine.
func (h *Handler) RegisterRoutes(e *gin.Engine) {
	e.NoRoute(func(c *gin.Context) {
		resp.Fail(c.Writer, resp.NotFound("Route not found"))
	})

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/reactivate", h.reactivate)
		auth.GET("/verify-email/:token", h.verifyEmail)
		auth.POST("/resend-verification", h.resendVerification)
		auth.POST("/forgot-password", h.forgotPassword)
		auth.POST("/reset-password/:token", h.resetPassword)
	}

	// Public lists are readable without an account.
	v1.GET("/shared-lists/public", h.listPublicLists)
	v1.POST("/shared-lists/access/:code", h.getPublicList)

	authed := v1.Group("", middleware.Auth(h.svc.Auth.TokenManager()))
	{
		me := authed.Group("/auth")
		{
			me.GET("/me", h.me)
			me.PATCH("/update-profile", h.updateProfile)
			me.POST("/change-password", h.changePassword)
			me.DELETE("/deactivate", h.deactivate)
			me.POST("/avatar", h.uploadAvatar)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.POST("", h.createTask)
			tasks.GET("", h.listTasks)
			tasks.GET("/stats", h.taskStats)
			tasks.GET("/:id", h.getTask)
			tasks.PATCH("/:id", h.updateTask)
			tasks.DELETE("/:id", h.deleteTask)
			tasks.POST("/:id/subtasks", h.addSubtask)
			tasks.PATCH("/:id/subtasks/:subtaskId", h.updateSubtask)
			tasks.DELETE("/:id/subtasks/:subtaskId", h.deleteSubtask)
			tasks.POST("/:id/attachments", h.addAttachment)
			tasks.DELETE("/:id/attachments/:attachmentId", h.deleteAttachment)
		}

		comments := authed.Group("/comments")
		{
			comments.POST("", h.createComment)
			comments.GET("/task/:taskId", h.listComments)
			comments.GET("/:id", h.getComment)
			comments.PATCH("/:id", h.updateComment)
			comments.DELETE("/:id", h.deleteComment)
			comments.GET("/:id/reactions", h.listReactions)
			comments.POST("/:id/reactions", h.react)
			comments.DELETE("/:id/reactions", h.unreact)
		}

		teams := authed.Group("/teams")
		{
			teams.POST("", h.createTeam)
			teams.GET("", h.listTeams)
			teams.POST("/accept-invitation", h.acceptTeamInvitation)
			teams.POST("/decline-invitation", h.declineTeamInvitation)
			teams.GET("/:id", h.getTeam)
			teams.PATCH("/:id", h.updateTeam)
			teams.DELETE("/:id", h.deleteTeam)
			teams.POST("/:id/members", h.addTeamMember)
			teams.DELETE("/:id/members/:userId", h.removeTeamMember)
			teams.PATCH("/:id/members/:userId/role", h.updateTeamMember)
			teams.POST("/:id/invitations", h.inviteTeamMember)
		}

		lists := authed.Group("/shared-lists")
		{
			lists.POST("", h.createList)
			lists.GET("", h.listLists)
			lists.POST("/accept-invitation", h.acceptListInvitation)
			lists.POST("/decline-invitation", h.declineListInvitation)
			lists.GET("/:id", h.getList)
			lists.PATCH("/:id", h.updateList)
			lists.DELETE("/:id", h.deleteList)
			lists.POST("/:id/members", h.addListMember)
			lists.DELETE("/:id/members/:userId", h.removeListMember)
			lists.PATCH("/:id/members/:userId/permissions", h.updateListMember)
			lists.POST("/:id/invitations", h.inviteListMember)
			lists.GET("/:id/tasks", h.listListTasks)
			lists.POST("/:id/tasks", h.addListTask)
			lists.DELETE("/:id/tasks/:taskId", h.removeListTask)
		}

		activity := authed.Group("/activity")
		{
			activity.GET("", h.activityFeed)
			activity.GET("/task/:taskId", h.taskActivity)
			activity.GET("/team/:teamId", h.teamActivity)
			activity.GET("/notifications", h.listNotifications)
			activity.GET("/notifications/unread-count", h.unreadCount)
			activity.PATCH("/notifications/read-all", h.markAllRead)
			activity.PATCH("/notifications/:id/read", h.markRead)
			activity.DELETE("/notifications/:id", h.deleteNotification)
			activity.GET("/preferences", h.getPreferences)
			activity.PATCH("/preferences", h.updatePreferences)
		}

		analytics := authed.Group("/analytics")
		{
			analytics.GET("/dashboard", h.dashboard)
			analytics.GET("/tasks/completion", h.completionStats)
			analytics.GET("/categories", h.categoryStats)
			analytics.GET("/priorities", h.priorityStats)
			analytics.GET("/productivity", h.productivityStats)
			analytics.POST("/reports", h.saveReport)
			analytics.GET("/reports", h.listReports)
			analytics.GET("/reports/:id", h.getReport)
			analytics.GET("/reports/:id/run", h.runReport)
			analytics.PATCH("/reports/:id", h.updateReport)
			analytics.DELETE("/reports/:id", h.deleteReport)
		}

		authed.GET("/ws", websocket.Handler(h.hub))
	}
}

// fail translates a service error into the response envelope.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		resp.Fail(c.Writer, resp.NotFound(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		resp.Fail(c.Writer, resp.Forbidden(err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		resp.Fail(c.Writer, resp.UnAuthorized(err.Error()))
	case errors.Is(err, service.ErrConflict):
		resp.Fail(c.Writer, resp.Conflict(err.Error()))
	case errors.Is(err, service.ErrInvalid):
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
	default:
		logger.Error(c.Request.Context(), "request failed", "error", err)
		resp.Fail(c.Writer, resp.InternalServer("something went wrong"))
	}
}

// bind decodes and validates a JSON body. On failure it writes the error
// response and returns false.
func bind(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid request body"))
		return false
	}
	if errs := validator.ValidateStruct(body); len(errs) > 0 {
		resp.Fail(c.Writer, resp.BadRequest("validation failed", errs))
		return false
	}
	return true
}
