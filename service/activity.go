package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/email"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/paging"
	"github.com/ncobase/taskflow/structs"
)

// ActivityService records activities and fans them out to notification
// channels according to each recipient's preferences.
type ActivityService struct {
	cfg           *config.Config
	activities    repository.ActivityRepository
	notifications repository.NotificationRepository
	preferences   repository.PreferenceRepository
	users         repository.UserRepository
	sender        email.Sender
	pub           Publisher
	logger        *logger.Logger
}

// NewActivityService creates a new activity service instance.
func NewActivityService(cfg *config.Config, d *data.Data, sender email.Sender, pub Publisher, log *logger.Logger) *ActivityService {
	return &ActivityService{
		cfg:           cfg,
		activities:    d.ActivityRepo,
		notifications: d.NotificationRepo,
		preferences:   d.PreferenceRepo,
		users:         d.UserRepo,
		sender:        sender,
		pub:           pub,
		logger:        log,
	}
}

// Record stores an activity and delivers it to every recipient except the
// actor. Delivery failures are logged, never returned: the triggering
// operation has already succeeded.
func (s *ActivityService) Record(ctx context.Context, activity *structs.Activity, recipients []primitive.ObjectID) {
	stored, err := s.activities.Create(ctx, activity)
	if err != nil {
		s.logger.Error(ctx, "failed to record activity", "type", activity.Type, "error", err)
		return
	}

	s.pub.Publish(structs.UserRoom(stored.User.Hex()), newEvent(structs.EventActivityCreated, stored))

	seen := map[primitive.ObjectID]bool{stored.User: true}
	for _, recipient := range recipients {
		if seen[recipient] {
			continue
		}
		seen[recipient] = true
		s.deliver(ctx, stored, recipient)
	}
}

// deliver notifies one recipient over the channels their preferences allow.
func (s *ActivityService) deliver(ctx context.Context, activity *structs.Activity, recipient primitive.ObjectID) {
	prefs := s.preferencesFor(ctx, recipient)
	channel, ok := prefs[activity.Type]
	if !ok {
		channel = structs.ChannelPreference{InApp: true}
	}

	if channel.InApp {
		n, err := s.notifications.Create(ctx, &structs.Notification{
			Recipient: recipient,
			Activity:  activity.ID,
			Type:      activity.Type,
		})
		if err != nil {
			s.logger.Error(ctx, "failed to create notification", "recipient", recipient.Hex(), "error", err)
		} else {
			s.pub.Publish(structs.UserRoom(recipient.Hex()), newEvent(structs.EventNotificationCreated, n))
		}
	}

	if channel.Email {
		s.sendActivityEmail(ctx, activity, recipient)
	}

	if channel.Push {
		// Push delivery has no provider yet. Log so the preference is visible.
		s.logger.Debug(ctx, "push notification skipped, no provider", "recipient", recipient.Hex(), "type", activity.Type)
	}
}

func (s *ActivityService) preferencesFor(ctx context.Context, userID primitive.ObjectID) map[structs.ActivityType]structs.ChannelPreference {
	pref, err := s.preferences.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error(ctx, "failed to load preferences", "user", userID.Hex(), "error", err)
		}
		return structs.DefaultPreferences()
	}
	return pref.Preferences
}

func (s *ActivityService) sendActivityEmail(ctx context.Context, activity *structs.Activity, recipient primitive.ObjectID) {
	if s.sender == nil {
		return
	}
	user, err := s.users.FindByID(ctx, recipient.Hex())
	if err != nil {
		s.logger.Warn(ctx, "failed to load notification recipient", "user", recipient.Hex(), "error", err)
		return
	}

	subject := activitySubject(activity.Type)
	_, err = s.sender.SendTemplateEmail(user.Email, email.Template{
		Subject:  subject,
		Template: "activity-notification",
		Keyword:  subject,
		URL:      fmt.Sprintf("%s://%s/notifications", s.cfg.Protocol, s.cfg.Domain),
		Data: map[string]any{
			"name":     user.Name,
			"type":     activity.Type,
			"metadata": activity.Metadata,
		},
	})
	if err != nil {
		s.logger.Warn(ctx, "failed to send notification email", "email", user.Email, "error", err)
	}
}

// activitySubject turns an activity type into a readable email subject.
func activitySubject(t structs.ActivityType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// Feed returns the authenticated user's activity feed.
func (s *ActivityService) Feed(ctx context.Context, userID string, q *structs.ActivityFeedQuery) (*paging.Result[*structs.Activity], error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if q.Type != "" && !structs.IsValidActivityType(structs.ActivityType(q.Type)) {
		return nil, invalidf("unknown activity type: %s", q.Type)
	}

	params := paging.NormalizeParams(paging.Params{Page: q.Page, Limit: q.Limit})
	activities, total, err := s.activities.Find(ctx, &repository.ActivityFilter{
		User:  user,
		Type:  structs.ActivityType(q.Type),
		Skip:  params.Skip(),
		Limit: int64(params.Limit),
	})
	if err != nil {
		return nil, err
	}
	return paging.NewResult(activities, total, params), nil
}

// TaskActivity returns the activity log of one task.
func (s *ActivityService) TaskActivity(ctx context.Context, userID, taskID string, q *structs.ActivityFeedQuery) (*paging.Result[*structs.Activity], error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	task, err := parseObjectID(taskID, "task")
	if err != nil {
		return nil, err
	}

	params := paging.NormalizeParams(paging.Params{Page: q.Page, Limit: q.Limit})
	activities, total, err := s.activities.Find(ctx, &repository.ActivityFilter{
		User:  user,
		Task:  &task,
		Type:  structs.ActivityType(q.Type),
		Skip:  params.Skip(),
		Limit: int64(params.Limit),
	})
	if err != nil {
		return nil, err
	}
	return paging.NewResult(activities, total, params), nil
}

// TeamActivity returns the activity log of one team.
func (s *ActivityService) TeamActivity(ctx context.Context, userID, teamID string, q *structs.ActivityFeedQuery) (*paging.Result[*structs.Activity], error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	team, err := parseObjectID(teamID, "team")
	if err != nil {
		return nil, err
	}

	params := paging.NormalizeParams(paging.Params{Page: q.Page, Limit: q.Limit})
	activities, total, err := s.activities.Find(ctx, &repository.ActivityFilter{
		User:  user,
		Team:  &team,
		Type:  structs.ActivityType(q.Type),
		Skip:  params.Skip(),
		Limit: int64(params.Limit),
	})
	if err != nil {
		return nil, err
	}
	return paging.NewResult(activities, total, params), nil
}

// Notifications returns the user's notifications.
func (s *ActivityService) Notifications(ctx context.Context, userID string, q *structs.NotificationListQuery) (*paging.Result[*structs.Notification], error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	params := paging.NormalizeParams(paging.Params{Page: q.Page, Limit: q.Limit})
	notifications, total, err := s.notifications.Find(ctx, user, parseBoolParam(q.Read), params.Skip(), int64(params.Limit))
	if err != nil {
		return nil, err
	}
	return paging.NewResult(notifications, total, params), nil
}

// UnreadCount returns the number of unread notifications.
func (s *ActivityService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return 0, err
	}
	return s.notifications.CountUnread(ctx, user)
}

// MarkNotificationRead marks one notification read.
func (s *ActivityService) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*structs.Notification, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	id, err := parseObjectID(notificationID, "notification")
	if err != nil {
		return nil, err
	}

	n, err := s.notifications.MarkRead(ctx, id, user)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("no notification with id %s", notificationID)
		}
		return nil, err
	}
	return n, nil
}

// MarkAllNotificationsRead marks every unread notification read and
// returns how many changed.
func (s *ActivityService) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, user)
}

// DeleteNotification deletes one of the user's notifications.
func (s *ActivityService) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return err
	}
	id, err := parseObjectID(notificationID, "notification")
	if err != nil {
		return err
	}

	if err := s.notifications.Delete(ctx, id, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no notification with id %s", notificationID)
		}
		return err
	}
	return nil
}

// Preferences returns the user's notification preferences, falling back to
// the defaults when nothing is stored.
func (s *ActivityService) Preferences(ctx context.Context, userID string) (*structs.NotificationPreference, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	pref, err := s.preferences.FindByUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			now := time.Now()
			return &structs.NotificationPreference{
				User:        user,
				Preferences: structs.DefaultPreferences(),
				CreatedAt:   now,
				UpdatedAt:   now,
			}, nil
		}
		return nil, err
	}
	return pref, nil
}

// UpdatePreferences merges the supplied per-type channel selections into
// the stored preferences.
func (s *ActivityService) UpdatePreferences(ctx context.Context, userID string, body *structs.UpdatePreferencesBody) (*structs.NotificationPreference, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	for t := range body.Preferences {
		if !structs.IsValidActivityType(t) {
			return nil, invalidf("unknown activity type: %s", t)
		}
	}

	current, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged := make(map[structs.ActivityType]structs.ChannelPreference, len(current.Preferences))
	for t, c := range current.Preferences {
		merged[t] = c
	}
	for t, c := range body.Preferences {
		merged[t] = c
	}

	return s.preferences.Save(ctx, &structs.NotificationPreference{
		User:        user,
		Preferences: merged,
	})
}
