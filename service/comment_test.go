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

func newTestCommentService(tasks *fakeTaskRepo, users *fakeUserRepo) (*CommentService, *fakeReactionRepo) {
	activity, _, _ := newTestActivityService(users)
	reactions := newFakeReactionRepo()
	svc := &CommentService{
		comments:  newFakeCommentRepo(),
		reactions: reactions,
		tasks:     tasks,
		users:     users,
		activity:  activity,
		pub:       NoopPublisher{},
		logger:    logger.StdLogger(),
	}
	return svc, reactions
}

func TestReactionOverwrite(t *testing.T) {
	ctx := context.Background()
	author := &structs.User{ID: primitive.NewObjectID(), Name: "Author", Email: "author@example.com", IsActive: true}
	users := newFakeUserRepo(author)
	task := &structs.Task{ID: primitive.NewObjectID(), Name: "review PR", CreatedBy: author.ID}
	svc, reactions := newTestCommentService(newFakeTaskRepo(task), users)

	comment, err := svc.Create(ctx, author.ID.Hex(), &structs.CreateCommentBody{
		TaskID:  task.ID.Hex(),
		Content: "looks good to me",
	})
	require.NoError(t, err)

	first, err := svc.React(ctx, author.ID.Hex(), comment.ID.Hex(), &structs.ReactionBody{Reaction: "👍"})
	require.NoError(t, err)

	second, err := svc.React(ctx, author.ID.Hex(), comment.ID.Hex(), &structs.ReactionBody{Reaction: "🎉"})
	require.NoError(t, err)

	// one reaction per user per comment, the latest wins
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "🎉", second.Reaction)
	assert.Len(t, reactions.reactions, 1)

	summary, err := svc.Reactions(ctx, author.ID.Hex(), comment.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Counts["🎉"])
	assert.Zero(t, summary.Counts["👍"])
	assert.Len(t, summary.Reactions, 1)

	require.NoError(t, svc.Unreact(ctx, author.ID.Hex(), comment.ID.Hex()))
	err = svc.Unreact(ctx, author.ID.Hex(), comment.ID.Hex())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
