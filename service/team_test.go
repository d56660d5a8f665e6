package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

func newTestTeamService(teams *fakeTeamRepo, users *fakeUserRepo, sender *fakeSender) *TeamService {
	activity, _, _ := newTestActivityService(users)
	return &TeamService{
		cfg:      testConfig(),
		teams:    teams,
		users:    users,
		sender:   sender,
		activity: activity,
		pub:      NoopPublisher{},
		logger:   logger.StdLogger(),
	}
}

func TestTeamInvitationLifecycle(t *testing.T) {
	ctx := context.Background()
	owner := &structs.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@example.com", IsActive: true}
	invitee := &structs.User{ID: primitive.NewObjectID(), Name: "Invitee", Email: "invitee@example.com", IsActive: true}
	users := newFakeUserRepo(owner, invitee)
	teams := newFakeTeamRepo()
	sender := &fakeSender{}
	svc := newTestTeamService(teams, users, sender)

	team, err := svc.Create(ctx, owner.ID.Hex(), &structs.CreateTeamBody{Name: "platform"})
	require.NoError(t, err)

	invited, err := svc.Invite(ctx, owner.ID.Hex(), team.ID.Hex(), &structs.InviteTeamMemberBody{
		Email: invitee.Email,
		Role:  structs.RoleAdmin,
	})
	require.NoError(t, err)
	require.Len(t, invited.Invitations, 1)

	token := invited.Invitations[0].Token
	assert.Equal(t, token, tokenFromURL(sender.lastURL()), "the emailed link carries the token")

	joined, err := svc.AcceptInvitation(ctx, invitee.ID.Hex(), token)
	require.NoError(t, err)

	member := joined.Member(invitee.ID)
	require.NotNil(t, member)
	assert.Equal(t, structs.RoleAdmin, member.Role)
	assert.True(t, member.Permissions.ManageTeam)
	assert.Equal(t, structs.InvitationAccepted, joined.Invitations[0].Status)

	_, err = svc.AcceptInvitation(ctx, invitee.ID.Hex(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "a processed invitation reads as missing")
}

func TestDeclineTeamInvitation(t *testing.T) {
	ctx := context.Background()
	owner := &structs.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@example.com", IsActive: true}
	invitee := &structs.User{ID: primitive.NewObjectID(), Name: "Invitee", Email: "invitee@example.com", IsActive: true}
	users := newFakeUserRepo(owner, invitee)
	teams := newFakeTeamRepo()
	svc := newTestTeamService(teams, users, &fakeSender{})

	team, err := svc.Create(ctx, owner.ID.Hex(), &structs.CreateTeamBody{Name: "design"})
	require.NoError(t, err)
	invited, err := svc.Invite(ctx, owner.ID.Hex(), team.ID.Hex(), &structs.InviteTeamMemberBody{Email: invitee.Email})
	require.NoError(t, err)
	token := invited.Invitations[0].Token

	require.NoError(t, svc.DeclineInvitation(ctx, invitee.ID.Hex(), token))
	assert.Equal(t, structs.InvitationDeclined, teams.teams[team.ID].Invitations[0].Status)

	_, err = svc.AcceptInvitation(ctx, invitee.ID.Hex(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestExpiredTeamInvitation(t *testing.T) {
	ctx := context.Background()
	owner := &structs.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@example.com", IsActive: true}
	invitee := &structs.User{ID: primitive.NewObjectID(), Name: "Invitee", Email: "invitee@example.com", IsActive: true}
	users := newFakeUserRepo(owner, invitee)

	team := &structs.Team{
		ID:        primitive.NewObjectID(),
		Name:      "legacy",
		CreatedBy: owner.ID,
		IsActive:  true,
		Invitations: []structs.TeamInvitation{{
			Email:     invitee.Email,
			Role:      structs.RoleMember,
			Token:     "stale-token",
			Status:    structs.InvitationPending,
			ExpiresAt: time.Now().Add(-time.Hour),
			InvitedBy: owner.ID,
			CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
		}},
	}
	teams := newFakeTeamRepo(team)
	svc := newTestTeamService(teams, users, &fakeSender{})

	_, err := svc.AcceptInvitation(ctx, invitee.ID.Hex(), "stale-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, structs.InvitationExpired, teams.teams[team.ID].Invitations[0].Status,
		"the expiry is persisted")
}

func TestAcceptTeamInvitationWrongEmail(t *testing.T) {
	ctx := context.Background()
	owner := &structs.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@example.com", IsActive: true}
	invitee := &structs.User{ID: primitive.NewObjectID(), Name: "Invitee", Email: "invitee@example.com", IsActive: true}
	outsider := &structs.User{ID: primitive.NewObjectID(), Name: "Outsider", Email: "outsider@example.com", IsActive: true}
	users := newFakeUserRepo(owner, invitee, outsider)
	teams := newFakeTeamRepo()
	svc := newTestTeamService(teams, users, &fakeSender{})

	team, err := svc.Create(ctx, owner.ID.Hex(), &structs.CreateTeamBody{Name: "research"})
	require.NoError(t, err)
	invited, err := svc.Invite(ctx, owner.ID.Hex(), team.ID.Hex(), &structs.InviteTeamMemberBody{Email: invitee.Email})
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(ctx, outsider.ID.Hex(), invited.Invitations[0].Token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
}
