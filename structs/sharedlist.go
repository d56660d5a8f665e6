package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListPermissions is the explicit capability bag of a list member.
type ListPermissions struct {
	View   bool `bson:"view" json:"view"`
	Create bool `bson:"create" json:"create"`
	Update bool `bson:"update" json:"update"`
	Delete bool `bson:"delete" json:"delete"`
	Share  bool `bson:"share" json:"share"`
}

// DefaultListPermissions returns the view-only bag granted when no explicit
// permissions are supplied.
func DefaultListPermissions() ListPermissions {
	return ListPermissions{View: true}
}

// FullListPermissions returns the bag held by the list owner.
func FullListPermissions() ListPermissions {
	return ListPermissions{View: true, Create: true, Update: true, Delete: true, Share: true}
}

// ListMember represents an embedded list membership row.
type ListMember struct {
	User        primitive.ObjectID `bson:"user" json:"user"`
	Permissions ListPermissions    `bson:"permissions" json:"permissions"`
	AddedAt     time.Time          `bson:"added_at" json:"added_at"`
	AddedBy     primitive.ObjectID `bson:"added_by,omitempty" json:"added_by,omitempty"`
}

// ListInvitation represents an embedded pending list invitation.
type ListInvitation struct {
	Email       string             `bson:"email" json:"email"`
	Permissions ListPermissions    `bson:"permissions" json:"permissions"`
	Token       string             `bson:"token" json:"-"`
	Status      string             `bson:"status" json:"status"`
	ExpiresAt   time.Time          `bson:"expires_at" json:"expires_at"`
	InvitedBy   primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// SharedList represents a shared task list document. The owner is never
// duplicated as a member row.
type SharedList struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name             string               `bson:"name" json:"name"`
	Description      string               `bson:"description,omitempty" json:"description,omitempty"`
	Owner            primitive.ObjectID   `bson:"owner" json:"owner"`
	Team             *primitive.ObjectID  `bson:"team,omitempty" json:"team,omitempty"`
	Members          []ListMember         `bson:"members" json:"members"`
	Invitations      []ListInvitation     `bson:"invitations,omitempty" json:"invitations,omitempty"`
	Tasks            []primitive.ObjectID `bson:"tasks,omitempty" json:"tasks,omitempty"`
	IsPublic         bool                 `bson:"is_public" json:"is_public"`
	PublicAccessCode string               `bson:"public_access_code,omitempty" json:"-"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updated_at"`
}

// IsOwner reports whether the user owns the list.
func (l *SharedList) IsOwner(userID primitive.ObjectID) bool {
	return l.Owner == userID
}

// Member returns the membership row for the user, if any.
func (l *SharedList) Member(userID primitive.ObjectID) *ListMember {
	for i := range l.Members {
		if l.Members[i].User == userID {
			return &l.Members[i]
		}
	}
	return nil
}

// PermissionsFor returns the effective permissions of the user on the list.
// The owner always holds the full bag.
func (l *SharedList) PermissionsFor(userID primitive.ObjectID) (ListPermissions, bool) {
	if l.IsOwner(userID) {
		return FullListPermissions(), true
	}
	if m := l.Member(userID); m != nil {
		return m.Permissions, true
	}
	return ListPermissions{}, false
}

// PendingInvitation returns the pending invitation for the email, if any.
func (l *SharedList) PendingInvitation(email string) *ListInvitation {
	for i := range l.Invitations {
		if l.Invitations[i].Email == email && l.Invitations[i].Status == InvitationPending {
			return &l.Invitations[i]
		}
	}
	return nil
}

// HasTask reports whether the task is already on the list.
func (l *SharedList) HasTask(taskID primitive.ObjectID) bool {
	for _, id := range l.Tasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// CreateSharedListBody represents the list creation payload.
type CreateSharedListBody struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Team        string `json:"team,omitempty"`
	IsPublic    bool   `json:"is_public,omitempty"`
}

// UpdateSharedListBody represents the list update payload.
type UpdateSharedListBody struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// AddListMemberBody represents the member addition payload.
type AddListMemberBody struct {
	UserID      string           `json:"user_id" validate:"required"`
	Permissions *ListPermissions `json:"permissions,omitempty"`
}

// UpdateListMemberBody represents the member permissions update payload.
type UpdateListMemberBody struct {
	Permissions ListPermissions `json:"permissions"`
}

// InviteListMemberBody represents the list invitation payload.
type InviteListMemberBody struct {
	Email       string           `json:"email" validate:"required,email"`
	Permissions *ListPermissions `json:"permissions,omitempty"`
}

// AddListTaskBody represents the task attachment payload.
type AddListTaskBody struct {
	TaskID string `json:"task_id" validate:"required"`
}
