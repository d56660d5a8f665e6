package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleGuest  = "guest"
)

// Invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
)

// InvitationTTL is how long a pending invitation stays valid.
const InvitationTTL = 7 * 24 * time.Hour

// TeamPermissions is the capability bag attached to each team member.
type TeamPermissions struct {
	CreateTask   bool `bson:"create_task" json:"create_task"`
	UpdateTask   bool `bson:"update_task" json:"update_task"`
	DeleteTask   bool `bson:"delete_task" json:"delete_task"`
	AssignTask   bool `bson:"assign_task" json:"assign_task"`
	ViewAllTasks bool `bson:"view_all_tasks" json:"view_all_tasks"`
	ManageTeam   bool `bson:"manage_team" json:"manage_team"`
	ViewReports  bool `bson:"view_reports" json:"view_reports"`
}

// PermissionsForRole expands a role into its fixed permission bag.
// Unknown roles get the member bag.
func PermissionsForRole(role string) TeamPermissions {
	p := TeamPermissions{
		CreateTask:   true,
		UpdateTask:   true,
		AssignTask:   true,
		ViewAllTasks: true,
	}
	switch role {
	case RoleOwner, RoleAdmin:
		p.DeleteTask = true
		p.ManageTeam = true
		p.ViewReports = true
	}
	return p
}

// TeamMember represents an embedded membership row.
type TeamMember struct {
	User        primitive.ObjectID `bson:"user" json:"user"`
	Role        string             `bson:"role" json:"role"`
	Permissions TeamPermissions    `bson:"permissions" json:"permissions"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`
	InvitedBy   primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
}

// TeamInvitation represents an embedded pending invitation.
type TeamInvitation struct {
	Email     string             `bson:"email" json:"email"`
	Role      string             `bson:"role" json:"role"`
	Token     string             `bson:"token" json:"-"`
	Status    string             `bson:"status" json:"status"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	InvitedBy primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Team represents a team document. The creator is the owner and is never
// duplicated as a member row.
type Team struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Avatar      string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	Members     []TeamMember       `bson:"members" json:"members"`
	Invitations []TeamInvitation   `bson:"invitations,omitempty" json:"invitations,omitempty"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsOwner reports whether the user owns the team.
func (t *Team) IsOwner(userID primitive.ObjectID) bool {
	return t.CreatedBy == userID
}

// Member returns the membership row for the user, if any.
func (t *Team) Member(userID primitive.ObjectID) *TeamMember {
	for i := range t.Members {
		if t.Members[i].User == userID {
			return &t.Members[i]
		}
	}
	return nil
}

// HasAccess reports whether the user is the owner or a member.
func (t *Team) HasAccess(userID primitive.ObjectID) bool {
	return t.IsOwner(userID) || t.Member(userID) != nil
}

// PermissionsFor returns the effective permissions of the user within the
// team. The owner always holds the full bag.
func (t *Team) PermissionsFor(userID primitive.ObjectID) (TeamPermissions, bool) {
	if t.IsOwner(userID) {
		return PermissionsForRole(RoleOwner), true
	}
	if m := t.Member(userID); m != nil {
		return m.Permissions, true
	}
	return TeamPermissions{}, false
}

// PendingInvitation returns the pending invitation for the email, if any.
func (t *Team) PendingInvitation(email string) *TeamInvitation {
	for i := range t.Invitations {
		if t.Invitations[i].Email == email && t.Invitations[i].Status == InvitationPending {
			return &t.Invitations[i]
		}
	}
	return nil
}

// CreateTeamBody represents the team creation payload.
type CreateTeamBody struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Avatar      string `json:"avatar,omitempty"`
}

// UpdateTeamBody represents the team update payload.
type UpdateTeamBody struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Avatar      *string `json:"avatar,omitempty"`
}

// AddTeamMemberBody represents the direct member addition payload.
type AddTeamMemberBody struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role,omitempty" validate:"omitempty,oneof=admin member guest"`
}

// UpdateTeamMemberBody represents the member role update payload.
type UpdateTeamMemberBody struct {
	Role string `json:"role" validate:"required,oneof=admin member guest"`
}

// InviteTeamMemberBody represents the invitation payload.
type InviteTeamMemberBody struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=admin member guest"`
}

// InvitationTokenBody carries the token of an invitation being accepted or
// declined.
type InvitationTokenBody struct {
	Token string `json:"token" validate:"required"`
}
