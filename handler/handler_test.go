package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/service"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Auth: &config.Auth{JWT: &config.JWT{Secret: "test-secret"}}}
	svc := &service.Service{Auth: service.NewAuthService(cfg, &data.Data{}, nil, nil, logger.StdLogger())}
	h := New(svc, nil)

	e := gin.New()
	h.RegisterRoutes(e)

	mounted := map[string]bool{}
	for _, r := range e.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}

	want := []string{
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/reactivate",
		"GET /api/v1/auth/verify-email/:token",
		"POST /api/v1/auth/resend-verification",
		"POST /api/v1/auth/forgot-password",
		"POST /api/v1/auth/reset-password/:token",
		"GET /api/v1/auth/me",
		"PATCH /api/v1/auth/update-profile",
		"POST /api/v1/auth/change-password",
		"DELETE /api/v1/auth/deactivate",
		"POST /api/v1/auth/avatar",
		"GET /api/v1/tasks",
		"PATCH /api/v1/tasks/:id",
		"PATCH /api/v1/tasks/:id/subtasks/:subtaskId",
		"DELETE /api/v1/tasks/:id/attachments/:attachmentId",
		"GET /api/v1/comments/task/:taskId",
		"GET /api/v1/comments/:id",
		"POST /api/v1/comments/:id/reactions",
		"DELETE /api/v1/comments/:id/reactions",
		"POST /api/v1/teams/accept-invitation",
		"POST /api/v1/teams/decline-invitation",
		"PATCH /api/v1/teams/:id/members/:userId/role",
		"DELETE /api/v1/teams/:id/members/:userId",
		"GET /api/v1/shared-lists/public",
		"POST /api/v1/shared-lists/access/:code",
		"PATCH /api/v1/shared-lists/:id/members/:userId/permissions",
		"DELETE /api/v1/shared-lists/:id/tasks/:taskId",
		"GET /api/v1/activity",
		"GET /api/v1/activity/task/:taskId",
		"GET /api/v1/activity/notifications/unread-count",
		"PATCH /api/v1/activity/notifications/read-all",
		"PATCH /api/v1/activity/notifications/:id/read",
		"GET /api/v1/activity/preferences",
		"PATCH /api/v1/activity/preferences",
		"GET /api/v1/analytics/tasks/completion",
		"GET /api/v1/analytics/reports/:id/run",
		"GET /api/v1/ws",
	}
	for _, route := range want {
		assert.True(t, mounted[route], route)
	}
}
