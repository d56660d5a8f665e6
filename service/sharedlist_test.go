package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

func newTestListService(lists *fakeSharedListRepo, tasks *fakeTaskRepo, users *fakeUserRepo) *SharedListService {
	activity, _, _ := newTestActivityService(users)
	return &SharedListService{
		cfg:      testConfig(),
		lists:    lists,
		tasks:    tasks,
		teams:    newFakeTeamRepo(),
		users:    users,
		sender:   &fakeSender{},
		activity: activity,
		pub:      NoopPublisher{},
		logger:   logger.StdLogger(),
	}
}

func TestListTaskRequiresCreatePermission(t *testing.T) {
	ctx := context.Background()
	owner := &structs.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@example.com", IsActive: true}
	member := &structs.User{ID: primitive.NewObjectID(), Name: "Member", Email: "member@example.com", IsActive: true}
	users := newFakeUserRepo(owner, member)

	task := &structs.Task{ID: primitive.NewObjectID(), Name: "groceries", CreatedBy: member.ID}
	tasks := newFakeTaskRepo(task)

	list := &structs.SharedList{
		ID:    primitive.NewObjectID(),
		Name:  "household",
		Owner: owner.ID,
		Members: []structs.ListMember{{
			User:        member.ID,
			Permissions: structs.DefaultListPermissions(),
		}},
	}
	lists := newFakeSharedListRepo(list)
	svc := newTestListService(lists, tasks, users)

	_, err := svc.AddTask(ctx, member.ID.Hex(), list.ID.Hex(), &structs.AddListTaskBody{TaskID: task.ID.Hex()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden), "view-only members cannot add tasks")

	_, err = svc.UpdateMember(ctx, owner.ID.Hex(), list.ID.Hex(), member.ID.Hex(), &structs.UpdateListMemberBody{
		Permissions: structs.ListPermissions{View: true, Create: true},
	})
	require.NoError(t, err)

	updated, err := svc.AddTask(ctx, member.ID.Hex(), list.ID.Hex(), &structs.AddListTaskBody{TaskID: task.ID.Hex()})
	require.NoError(t, err)
	assert.True(t, updated.HasTask(task.ID))

	_, err = svc.AddTask(ctx, member.ID.Hex(), list.ID.Hex(), &structs.AddListTaskBody{TaskID: task.ID.Hex()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestListInvitationAlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	owner := &structs.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@example.com", IsActive: true}
	invitee := &structs.User{ID: primitive.NewObjectID(), Name: "Invitee", Email: "invitee@example.com", IsActive: true}
	users := newFakeUserRepo(owner, invitee)
	lists := newFakeSharedListRepo()
	svc := newTestListService(lists, newFakeTaskRepo(), users)

	list, err := svc.Create(ctx, owner.ID.Hex(), &structs.CreateSharedListBody{Name: "reading club"})
	require.NoError(t, err)

	invited, err := svc.Invite(ctx, owner.ID.Hex(), list.ID.Hex(), &structs.InviteListMemberBody{Email: invitee.Email})
	require.NoError(t, err)
	token := invited.Invitations[0].Token

	joined, err := svc.AcceptInvitation(ctx, invitee.ID.Hex(), token)
	require.NoError(t, err)
	require.NotNil(t, joined.Member(invitee.ID))

	_, err = svc.AcceptInvitation(ctx, invitee.ID.Hex(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "a processed invitation reads as missing")
}
