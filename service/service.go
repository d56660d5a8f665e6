package service

import (
	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/pkg/email"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/storage"
)

// Service aggregates all business services.
type Service struct {
	Auth       *AuthService
	Task       *TaskService
	Comment    *CommentService
	Team       *TeamService
	SharedList *SharedListService
	Activity   *ActivityService
	Analytics  *AnalyticsService
}

// New wires the services together. A nil publisher disables realtime
// delivery, a nil sender disables outgoing mail.
func New(cfg *config.Config, d *data.Data, store *storage.Store, sender email.Sender, pub Publisher, log *logger.Logger) *Service {
	if pub == nil {
		pub = NoopPublisher{}
	}

	activity := NewActivityService(cfg, d, sender, pub, log)

	return &Service{
		Auth:       NewAuthService(cfg, d, store, sender, log),
		Task:       NewTaskService(d, store, activity, pub, log),
		Comment:    NewCommentService(d, activity, pub, log),
		Team:       NewTeamService(cfg, d, sender, activity, pub, log),
		SharedList: NewSharedListService(cfg, d, sender, activity, pub, log),
		Activity:   activity,
		Analytics:  NewAnalyticsService(d, log),
	}
}
