package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityType enumerates every recordable action.
type ActivityType string

const (
	ActivityTaskCreated       ActivityType = "task_created"
	ActivityTaskUpdated       ActivityType = "task_updated"
	ActivityTaskCompleted     ActivityType = "task_completed"
	ActivityTaskDeleted       ActivityType = "task_deleted"
	ActivityTaskAssigned      ActivityType = "task_assigned"
	ActivityTaskUnassigned    ActivityType = "task_unassigned"
	ActivityDueDateReminder   ActivityType = "due_date_reminder"
	ActivitySubtaskAdded      ActivityType = "subtask_added"
	ActivitySubtaskCompleted  ActivityType = "subtask_completed"
	ActivitySubtaskDeleted    ActivityType = "subtask_deleted"
	ActivityAttachmentAdded   ActivityType = "attachment_added"
	ActivityAttachmentDeleted ActivityType = "attachment_deleted"

	ActivityCommentAdded   ActivityType = "comment_added"
	ActivityCommentUpdated ActivityType = "comment_updated"
	ActivityCommentDeleted ActivityType = "comment_deleted"
	ActivityMention        ActivityType = "mention"
	ActivityReactionAdded  ActivityType = "reaction_added"

	ActivityTeamCreated            ActivityType = "team_created"
	ActivityTeamUpdated            ActivityType = "team_updated"
	ActivityTeamDeleted            ActivityType = "team_deleted"
	ActivityTeamMemberAdded        ActivityType = "team_member_added"
	ActivityTeamMemberRemoved      ActivityType = "team_member_removed"
	ActivityTeamMemberRoleUpdated  ActivityType = "team_member_role_updated"
	ActivityTeamInvitationSent     ActivityType = "team_invitation_sent"
	ActivityTeamInvitationAccepted ActivityType = "team_invitation_accepted"
	ActivityTeamInvitationDeclined ActivityType = "team_invitation_declined"

	ActivityListCreated            ActivityType = "list_created"
	ActivityListUpdated            ActivityType = "list_updated"
	ActivityListDeleted            ActivityType = "list_deleted"
	ActivityListMemberAdded        ActivityType = "list_member_added"
	ActivityListMemberRemoved      ActivityType = "list_member_removed"
	ActivityListPermissionsUpdated ActivityType = "list_permissions_updated"
	ActivityListInvitationSent     ActivityType = "list_invitation_sent"
	ActivityListInvitationAccepted ActivityType = "list_invitation_accepted"
	ActivityListInvitationDeclined ActivityType = "list_invitation_declined"
	ActivityListTaskAdded          ActivityType = "list_task_added"
	ActivityListTaskRemoved        ActivityType = "list_task_removed"
)

// ActivityTypes lists every known activity type.
var ActivityTypes = []ActivityType{
	ActivityTaskCreated, ActivityTaskUpdated, ActivityTaskCompleted,
	ActivityTaskDeleted, ActivityTaskAssigned, ActivityTaskUnassigned,
	ActivityDueDateReminder, ActivitySubtaskAdded, ActivitySubtaskCompleted,
	ActivitySubtaskDeleted, ActivityAttachmentAdded, ActivityAttachmentDeleted,
	ActivityCommentAdded, ActivityCommentUpdated, ActivityCommentDeleted,
	ActivityMention, ActivityReactionAdded,
	ActivityTeamCreated, ActivityTeamUpdated, ActivityTeamDeleted,
	ActivityTeamMemberAdded, ActivityTeamMemberRemoved, ActivityTeamMemberRoleUpdated,
	ActivityTeamInvitationSent, ActivityTeamInvitationAccepted, ActivityTeamInvitationDeclined,
	ActivityListCreated, ActivityListUpdated, ActivityListDeleted,
	ActivityListMemberAdded, ActivityListMemberRemoved, ActivityListPermissionsUpdated,
	ActivityListInvitationSent, ActivityListInvitationAccepted, ActivityListInvitationDeclined,
	ActivityListTaskAdded, ActivityListTaskRemoved,
}

// IsValidActivityType reports whether t is a known activity type.
func IsValidActivityType(t ActivityType) bool {
	for _, known := range ActivityTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Activity represents a recorded action in the activity log.
type Activity struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type       ActivityType        `bson:"type" json:"type"`
	User       primitive.ObjectID  `bson:"user" json:"user"`
	Task       *primitive.ObjectID `bson:"task,omitempty" json:"task,omitempty"`
	Team       *primitive.ObjectID `bson:"team,omitempty" json:"team,omitempty"`
	SharedList *primitive.ObjectID `bson:"shared_list,omitempty" json:"shared_list,omitempty"`
	Comment    *primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	TargetUser *primitive.ObjectID `bson:"target_user,omitempty" json:"target_user,omitempty"`
	Metadata   map[string]any      `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}

// Notification is a per-recipient pointer to an activity.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Activity  primitive.ObjectID `bson:"activity" json:"activity"`
	Type      ActivityType       `bson:"type" json:"type"`
	Read      bool               `bson:"read" json:"read"`
	ReadAt    *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// ChannelPreference selects delivery channels for one activity type.
type ChannelPreference struct {
	InApp bool `bson:"in_app" json:"in_app"`
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
}

// NotificationPreference stores a user's per-type channel selections.
type NotificationPreference struct {
	ID          primitive.ObjectID                 `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID                 `bson:"user" json:"user"`
	Preferences map[ActivityType]ChannelPreference `bson:"preferences" json:"preferences"`
	CreatedAt   time.Time                          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time                          `bson:"updated_at" json:"updated_at"`
}

// DefaultPreferences returns the preference map applied to users who have
// never saved one: in-app on for everything, email only for invitations,
// mentions and assignments, push off.
func DefaultPreferences() map[ActivityType]ChannelPreference {
	prefs := make(map[ActivityType]ChannelPreference, len(ActivityTypes))
	for _, t := range ActivityTypes {
		prefs[t] = ChannelPreference{InApp: true}
	}
	for _, t := range []ActivityType{
		ActivityTaskAssigned, ActivityMention, ActivityDueDateReminder,
		ActivityTeamInvitationSent, ActivityListInvitationSent,
	} {
		prefs[t] = ChannelPreference{InApp: true, Email: true}
	}
	return prefs
}

// ActivityFeedQuery represents activity feed filters.
type ActivityFeedQuery struct {
	Type  string `form:"type"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

// NotificationListQuery represents notification list filters.
type NotificationListQuery struct {
	Read  string `form:"read"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

// UpdatePreferencesBody represents the preference update payload. Only the
// supplied types are changed.
type UpdatePreferencesBody struct {
	Preferences map[ActivityType]ChannelPreference `json:"preferences" validate:"required"`
}
