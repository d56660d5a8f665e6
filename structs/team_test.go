package structs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPermissionsForRole(t *testing.T) {
	tests := []struct {
		role string
		want TeamPermissions
	}{
		{RoleOwner, TeamPermissions{CreateTask: true, UpdateTask: true, DeleteTask: true, AssignTask: true, ViewAllTasks: true, ManageTeam: true, ViewReports: true}},
		{RoleAdmin, TeamPermissions{CreateTask: true, UpdateTask: true, DeleteTask: true, AssignTask: true, ViewAllTasks: true, ManageTeam: true, ViewReports: true}},
		{RoleMember, TeamPermissions{CreateTask: true, UpdateTask: true, AssignTask: true, ViewAllTasks: true}},
		{RoleGuest, TeamPermissions{CreateTask: true, UpdateTask: true, AssignTask: true, ViewAllTasks: true}},
		{"unknown", TeamPermissions{CreateTask: true, UpdateTask: true, AssignTask: true, ViewAllTasks: true}},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, PermissionsForRole(tt.role))
		})
	}
}

func TestTeamPermissionsFor(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	team := &Team{
		CreatedBy: owner,
		Members: []TeamMember{
			{User: member, Role: RoleGuest, Permissions: PermissionsForRole(RoleGuest)},
		},
	}

	p, ok := team.PermissionsFor(owner)
	require.True(t, ok)
	assert.Equal(t, PermissionsForRole(RoleOwner), p, "owner holds the full bag")

	p, ok = team.PermissionsFor(member)
	require.True(t, ok)
	assert.False(t, p.ManageTeam)
	assert.True(t, p.CreateTask)

	_, ok = team.PermissionsFor(stranger)
	assert.False(t, ok)

	assert.True(t, team.HasAccess(owner))
	assert.True(t, team.HasAccess(member))
	assert.False(t, team.HasAccess(stranger))
}

func TestTeamPendingInvitation(t *testing.T) {
	team := &Team{
		Invitations: []TeamInvitation{
			{Email: "old@example.com", Status: InvitationAccepted},
			{Email: "new@example.com", Status: InvitationPending, ExpiresAt: time.Now().Add(InvitationTTL)},
		},
	}

	inv := team.PendingInvitation("new@example.com")
	require.NotNil(t, inv)
	assert.Equal(t, InvitationPending, inv.Status)

	assert.Nil(t, team.PendingInvitation("old@example.com"), "non-pending invitations do not match")
	assert.Nil(t, team.PendingInvitation("missing@example.com"))
}
