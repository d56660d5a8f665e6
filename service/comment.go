package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/paging"
	"github.com/ncobase/taskflow/structs"
)

// CommentService handles task comments and reactions.
type CommentService struct {
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	tasks     repository.TaskRepository
	users     repository.UserRepository
	activity  *ActivityService
	pub       Publisher
	logger    *logger.Logger
}

// NewCommentService creates a new comment service instance.
func NewCommentService(d *data.Data, activity *ActivityService, pub Publisher, log *logger.Logger) *CommentService {
	return &CommentService{
		comments:  d.CommentRepo,
		reactions: d.ReactionRepo,
		tasks:     d.TaskRepo,
		users:     d.UserRepo,
		activity:  activity,
		pub:       pub,
		logger:    log,
	}
}

// loadTask fetches the task and checks the user can see it.
func (s *CommentService) loadTask(ctx context.Context, user primitive.ObjectID, taskID string) (*structs.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, notFoundf("no task with id %s", taskID)
		}
		return nil, err
	}
	if task.CreatedBy != user && !containsID(task.AssignedTo, user) {
		return nil, forbiddenf("you do not have access to this task")
	}
	return task, nil
}

// loadComment fetches a comment together with its task, checking task
// access.
func (s *CommentService) loadComment(ctx context.Context, user primitive.ObjectID, commentID string) (*structs.Comment, *structs.Task, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, nil, notFoundf("no comment with id %s", commentID)
		}
		return nil, nil, err
	}

	task, err := s.loadTask(ctx, user, comment.Task.Hex())
	if err != nil {
		return nil, nil, err
	}
	return comment, task, nil
}

// Get returns one comment the user can see.
func (s *CommentService) Get(ctx context.Context, userID, commentID string) (*structs.Comment, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	comment, _, err := s.loadComment(ctx, user, commentID)
	return comment, err
}

// Create posts a comment on a task. Mentioned users are notified.
func (s *CommentService) Create(ctx context.Context, userID string, body *structs.CreateCommentBody) (*structs.Comment, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	task, err := s.loadTask(ctx, user, body.TaskID)
	if err != nil {
		return nil, err
	}

	mentions, err := parseObjectIDs(body.Mentions, "mention")
	if err != nil {
		return nil, err
	}

	comment := &structs.Comment{
		Task:     task.ID,
		User:     user,
		Content:  body.Content,
		Mentions: mentions,
	}

	if body.ParentComment != "" {
		parent, err := s.comments.FindByID(ctx, body.ParentComment)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
				return nil, notFoundf("no comment with id %s", body.ParentComment)
			}
			return nil, err
		}
		if parent.Task != task.ID {
			return nil, invalidf("parent comment belongs to a different task")
		}
		if parent.ParentComment != nil {
			return nil, invalidf("replies cannot be nested further")
		}
		comment.ParentComment = &parent.ID
	}

	created, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, err
	}

	taskRef := task.ID
	commentRef := created.ID
	recipients := append([]primitive.ObjectID{task.CreatedBy}, task.AssignedTo...)
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityCommentAdded,
		User:     user,
		Task:     &taskRef,
		Comment:  &commentRef,
		Metadata: map[string]any{"task_name": task.Name},
	}, recipients)

	for _, mentioned := range mentions {
		target := mentioned
		s.activity.Record(ctx, &structs.Activity{
			Type:       structs.ActivityMention,
			User:       user,
			Task:       &taskRef,
			Comment:    &commentRef,
			TargetUser: &target,
			Metadata:   map[string]any{"task_name": task.Name},
		}, []primitive.ObjectID{mentioned})
	}

	s.pub.Publish(structs.TaskRoom(task.ID.Hex()), newEvent(structs.EventCommentCreated, created))
	return created, nil
}

// List returns a task's comments, oldest first.
func (s *CommentService) List(ctx context.Context, userID, taskID string, page, limit int) (*paging.Result[*structs.Comment], error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	task, err := s.loadTask(ctx, user, taskID)
	if err != nil {
		return nil, err
	}

	params := paging.NormalizeParams(paging.Params{Page: page, Limit: limit})
	comments, total, err := s.comments.FindByTask(ctx, task.ID, params.Skip(), int64(params.Limit))
	if err != nil {
		return nil, err
	}
	return paging.NewResult(comments, total, params), nil
}

// Update edits a comment. Only the author may edit; edits are flagged.
func (s *CommentService) Update(ctx context.Context, userID, commentID string, body *structs.UpdateCommentBody) (*structs.Comment, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	comment, task, err := s.loadComment(ctx, user, commentID)
	if err != nil {
		return nil, err
	}
	if comment.User != user {
		return nil, forbiddenf("only the comment author can edit it")
	}

	set := bson.M{
		"content":   body.Content,
		"is_edited": true,
		"edited_at": time.Now(),
	}
	if body.Mentions != nil {
		mentions, err := parseObjectIDs(body.Mentions, "mention")
		if err != nil {
			return nil, err
		}
		set["mentions"] = mentions
	}

	updated, err := s.comments.Update(ctx, comment.ID, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("no comment with id %s", commentID)
		}
		return nil, err
	}

	taskRef := task.ID
	commentRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityCommentUpdated,
		User:     user,
		Task:     &taskRef,
		Comment:  &commentRef,
		Metadata: map[string]any{"task_name": task.Name},
	}, nil)

	s.pub.Publish(structs.TaskRoom(task.ID.Hex()), newEvent(structs.EventCommentUpdated, updated))
	return updated, nil
}

// Delete removes a comment, its replies and their reactions. The author or
// the task creator may delete.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return err
	}
	comment, task, err := s.loadComment(ctx, user, commentID)
	if err != nil {
		return err
	}
	if comment.User != user && task.CreatedBy != user {
		return forbiddenf("only the comment author or the task creator can delete it")
	}

	// Collect reply ids so their reactions go too.
	doomed := []primitive.ObjectID{comment.ID}
	all, _, err := s.comments.FindByTask(ctx, task.ID, 0, 0)
	if err != nil {
		s.logger.Warn(ctx, "failed to load replies for cleanup", "comment", comment.ID.Hex(), "error", err)
	} else {
		for _, c := range all {
			if c.ParentComment != nil && *c.ParentComment == comment.ID {
				doomed = append(doomed, c.ID)
			}
		}
	}

	if _, err := s.comments.DeleteReplies(ctx, comment.ID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no comment with id %s", commentID)
		}
		return err
	}
	if _, err := s.reactions.DeleteByComments(ctx, doomed); err != nil {
		s.logger.Warn(ctx, "failed to delete comment reactions", "comment", comment.ID.Hex(), "error", err)
	}

	taskRef := task.ID
	commentRef := comment.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityCommentDeleted,
		User:     user,
		Task:     &taskRef,
		Comment:  &commentRef,
		Metadata: map[string]any{"task_name": task.Name},
	}, nil)

	s.pub.Publish(structs.TaskRoom(task.ID.Hex()), newEvent(structs.EventCommentDeleted, comment))
	return nil
}

// React stores the user's reaction to a comment, replacing any previous
// one.
func (s *CommentService) React(ctx context.Context, userID, commentID string, body *structs.ReactionBody) (*structs.CommentReaction, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	comment, task, err := s.loadComment(ctx, user, commentID)
	if err != nil {
		return nil, err
	}

	reaction, err := s.reactions.Upsert(ctx, comment.ID, user, body.Reaction)
	if err != nil {
		return nil, err
	}

	taskRef := task.ID
	commentRef := comment.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityReactionAdded,
		User:     user,
		Task:     &taskRef,
		Comment:  &commentRef,
		Metadata: map[string]any{"reaction": body.Reaction},
	}, []primitive.ObjectID{comment.User})

	s.pub.Publish(structs.TaskRoom(task.ID.Hex()), newEvent(structs.EventReactionUpdated, reaction))
	return reaction, nil
}

// Unreact removes the user's reaction to a comment.
func (s *CommentService) Unreact(ctx context.Context, userID, commentID string) error {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return err
	}
	comment, task, err := s.loadComment(ctx, user, commentID)
	if err != nil {
		return err
	}

	if err := s.reactions.Remove(ctx, comment.ID, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("you have no reaction on this comment")
		}
		return err
	}

	s.pub.Publish(structs.TaskRoom(task.ID.Hex()), newEvent(structs.EventReactionUpdated, map[string]any{
		"comment": comment.ID.Hex(),
		"user":    user.Hex(),
		"removed": true,
	}))
	return nil
}

// Reactions returns all reactions on a comment with per-reaction counts.
func (s *CommentService) Reactions(ctx context.Context, userID, commentID string) (*structs.ReactionSummary, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	comment, _, err := s.loadComment(ctx, user, commentID)
	if err != nil {
		return nil, err
	}

	reactions, err := s.reactions.FindByComment(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	summary := &structs.ReactionSummary{
		Counts:    make(map[string]int64),
		Reactions: reactions,
	}
	for _, r := range reactions {
		summary.Counts[r.Reaction]++
	}
	return summary, nil
}
