package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/paging"
	"github.com/ncobase/taskflow/storage"
	"github.com/ncobase/taskflow/structs"
)

// TaskService handles tasks, subtasks, attachments and dependencies.
type TaskService struct {
	tasks     repository.TaskRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	users     repository.UserRepository
	store     *storage.Store
	activity  *ActivityService
	pub       Publisher
	logger    *logger.Logger
}

// NewTaskService creates a new task service instance.
func NewTaskService(d *data.Data, store *storage.Store, activity *ActivityService, pub Publisher, log *logger.Logger) *TaskService {
	return &TaskService{
		tasks:     d.TaskRepo,
		comments:  d.CommentRepo,
		reactions: d.ReactionRepo,
		users:     d.UserRepo,
		store:     store,
		activity:  activity,
		pub:       pub,
		logger:    log,
	}
}

// load fetches a task and checks the user can see it. A task is visible to
// its creator and its assignees.
func (s *TaskService) load(ctx context.Context, userID, taskID string) (*structs.Task, primitive.ObjectID, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, primitive.NilObjectID, err
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, primitive.NilObjectID, notFoundf("no task with id %s", taskID)
		}
		return nil, primitive.NilObjectID, err
	}

	if task.CreatedBy != user && !containsID(task.AssignedTo, user) {
		return nil, primitive.NilObjectID, forbiddenf("you do not have access to this task")
	}
	return task, user, nil
}

// HasAccess reports whether the user can see the task. Other services use
// it to gate comments and realtime rooms.
func (s *TaskService) HasAccess(ctx context.Context, userID, taskID string) (*structs.Task, error) {
	task, _, err := s.load(ctx, userID, taskID)
	return task, err
}

// validateAssignees checks every assignee id resolves to an account.
func (s *TaskService) validateAssignees(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(users) != len(ids) {
		return invalidf("one or more assignees do not exist")
	}
	return nil
}

// checkDependencies verifies the dependencies exist and adding them to the
// task creates no cycle. It walks the dependency graph breadth-first from
// the new dependencies; reaching taskID means a cycle.
func (s *TaskService) checkDependencies(ctx context.Context, taskID primitive.ObjectID, deps []primitive.ObjectID) error {
	if len(deps) == 0 {
		return nil
	}

	found, err := s.tasks.FindByIDs(ctx, deps)
	if err != nil {
		return err
	}
	if len(found) != len(deps) {
		return invalidf("one or more dependencies do not exist")
	}
	if containsID(deps, taskID) {
		return invalidf("a task cannot depend on itself")
	}

	visited := map[primitive.ObjectID]bool{}
	frontier := append([]primitive.ObjectID(nil), deps...)
	for len(frontier) > 0 {
		var next []primitive.ObjectID
		for _, id := range frontier {
			if !visited[id] {
				visited[id] = true
				next = append(next, id)
			}
		}
		if len(next) == 0 {
			break
		}

		tasks, err := s.tasks.FindByIDs(ctx, next)
		if err != nil {
			return err
		}
		frontier = frontier[:0]
		for _, t := range tasks {
			for _, dep := range t.Dependencies {
				if dep == taskID {
					return invalidf("dependency would create a cycle")
				}
				if !visited[dep] {
					frontier = append(frontier, dep)
				}
			}
		}
	}
	return nil
}

// Create creates a task for the user.
func (s *TaskService) Create(ctx context.Context, userID string, body *structs.CreateTaskBody) (*structs.Task, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	assignees, err := parseObjectIDs(body.AssignedTo, "assignee")
	if err != nil {
		return nil, err
	}
	if err := s.validateAssignees(ctx, assignees); err != nil {
		return nil, err
	}

	deps, err := parseObjectIDs(body.Dependencies, "dependency")
	if err != nil {
		return nil, err
	}
	if len(deps) > 0 {
		found, err := s.tasks.FindByIDs(ctx, deps)
		if err != nil {
			return nil, err
		}
		if len(found) != len(deps) {
			return nil, invalidf("one or more dependencies do not exist")
		}
	}

	if body.IsRecurring {
		if err := ValidateRecurrenceRule(body.RecurrenceRule); err != nil {
			return nil, err
		}
	}
	if len(body.Tags) > structs.MaxTags {
		return nil, invalidf("a task can have at most %d tags", structs.MaxTags)
	}

	priority := body.Priority
	if priority == "" {
		priority = structs.PriorityMedium
	}

	task := &structs.Task{
		Name:          body.Name,
		Description:   body.Description,
		Priority:      priority,
		Category:      body.Category,
		Tags:          body.Tags,
		StartDate:     body.StartDate,
		DueDate:       body.DueDate,
		CreatedBy:     user,
		AssignedTo:    assignees,
		Dependencies:  deps,
		IsRecurring:   body.IsRecurring,
		EstimatedTime: body.EstimatedTime,
	}
	if body.IsRecurring {
		task.RecurrenceRule = body.RecurrenceRule
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	taskRef := created.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityTaskCreated,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"name": created.Name},
	}, created.AssignedTo)
	s.recordAssignments(ctx, user, created, nil, created.AssignedTo)

	if created.IsRecurring && created.RecurrenceRule != nil {
		s.spawnNextOccurrence(ctx, created)
	}

	s.publishTask(structs.EventTaskCreated, created)
	return created, nil
}

// recordAssignments records assignment changes for users newly added or
// removed between before and after.
func (s *TaskService) recordAssignments(ctx context.Context, actor primitive.ObjectID, task *structs.Task, before, after []primitive.ObjectID) {
	taskRef := task.ID
	for _, u := range after {
		if !containsID(before, u) {
			target := u
			s.activity.Record(ctx, &structs.Activity{
				Type:       structs.ActivityTaskAssigned,
				User:       actor,
				Task:       &taskRef,
				TargetUser: &target,
				Metadata:   map[string]any{"name": task.Name},
			}, []primitive.ObjectID{u})
		}
	}
	for _, u := range before {
		if !containsID(after, u) {
			target := u
			s.activity.Record(ctx, &structs.Activity{
				Type:       structs.ActivityTaskUnassigned,
				User:       actor,
				Task:       &taskRef,
				TargetUser: &target,
				Metadata:   map[string]any{"name": task.Name},
			}, []primitive.ObjectID{u})
		}
	}
}

// publishTask pushes a task event to the task room and every involved
// user's private room.
func (s *TaskService) publishTask(eventType string, task *structs.Task) {
	event := newEvent(eventType, task)
	s.pub.Publish(structs.TaskRoom(task.ID.Hex()), event)
	s.pub.Publish(structs.UserRoom(task.CreatedBy.Hex()), event)
	for _, u := range task.AssignedTo {
		s.pub.Publish(structs.UserRoom(u.Hex()), event)
	}
}

// dueDateRange translates the due_date bucket keyword into a filter range.
func dueDateRange(bucket string, now time.Time) (from, to *time.Time, overdue bool, err error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch bucket {
	case "":
		return nil, nil, false, nil
	case "today":
		end := day.AddDate(0, 0, 1)
		return &day, &end, false, nil
	case "tomorrow":
		start := day.AddDate(0, 0, 1)
		end := day.AddDate(0, 0, 2)
		return &start, &end, false, nil
	case "week":
		end := day.AddDate(0, 0, 7)
		return &day, &end, false, nil
	case "overdue":
		return nil, nil, true, nil
	default:
		return nil, nil, false, invalidf("invalid due_date filter: %s", bucket)
	}
}

// List returns the user's tasks matching the query.
func (s *TaskService) List(ctx context.Context, userID string, q *structs.TaskListQuery) (*paging.Result[*structs.Task], error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	from, to, overdue, err := dueDateRange(q.DueDate, time.Now())
	if err != nil {
		return nil, err
	}

	params := paging.NormalizeParams(paging.Params{Page: q.Page, Limit: q.Limit})
	filter := &repository.TaskFilter{
		Owner:          user,
		Category:       q.Category,
		Completed:      parseBoolParam(q.Completed),
		Priority:       q.Priority,
		IsRecurring:    parseBoolParam(q.IsRecurring),
		DueFrom:        from,
		DueTo:          to,
		OverdueOnly:    overdue,
		HasAttachments: parseBoolParam(q.HasAttachments),
		HasSubtasks:    parseBoolParam(q.HasSubtasks),
		Search:         q.Search,
		Sort:           q.Sort,
		Skip:           params.Skip(),
		Limit:          int64(params.Limit),
	}
	if q.Fields != "" {
		filter.Fields = splitFields(q.Fields)
	}

	tasks, total, err := s.tasks.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paging.NewResult(tasks, total, params), nil
}

// Get returns one task the user can see.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*structs.Task, error) {
	task, _, err := s.load(ctx, userID, taskID)
	return task, err
}

// Update updates a task. Supplying a recurrence rule spawns the next
// occurrence right away.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, body *structs.UpdateTaskBody) (*structs.Task, error) {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	unset := bson.M{}
	before := task.AssignedTo
	var after []primitive.ObjectID

	if body.Name != nil {
		set["name"] = *body.Name
	}
	if body.Description != nil {
		set["description"] = *body.Description
	}
	if body.Priority != nil {
		set["priority"] = *body.Priority
	}
	if body.Category != nil {
		set["category"] = *body.Category
	}
	if body.Tags != nil {
		if len(*body.Tags) > structs.MaxTags {
			return nil, invalidf("a task can have at most %d tags", structs.MaxTags)
		}
		set["tags"] = *body.Tags
	}
	if body.StartDate != nil {
		set["start_date"] = *body.StartDate
	}
	if body.DueDate != nil {
		set["due_date"] = *body.DueDate
	}
	if body.EstimatedTime != nil {
		set["estimated_time"] = *body.EstimatedTime
	}
	if body.ActualTime != nil {
		set["actual_time"] = *body.ActualTime
	}

	if body.AssignedTo != nil {
		after, err = parseObjectIDs(*body.AssignedTo, "assignee")
		if err != nil {
			return nil, err
		}
		if err := s.validateAssignees(ctx, after); err != nil {
			return nil, err
		}
		set["assigned_to"] = after
	}

	if body.Dependencies != nil {
		deps, err := parseObjectIDs(*body.Dependencies, "dependency")
		if err != nil {
			return nil, err
		}
		if err := s.checkDependencies(ctx, task.ID, deps); err != nil {
			return nil, err
		}
		set["dependencies"] = deps
	}

	ruleSupplied := false
	if body.IsRecurring != nil {
		set["is_recurring"] = *body.IsRecurring
		if *body.IsRecurring {
			rule := body.RecurrenceRule
			if rule == nil {
				rule = task.RecurrenceRule
			}
			if err := ValidateRecurrenceRule(rule); err != nil {
				return nil, err
			}
			set["recurrence_rule"] = rule
			ruleSupplied = true
		} else {
			unset["recurrence_rule"] = ""
		}
	} else if body.RecurrenceRule != nil {
		if err := ValidateRecurrenceRule(body.RecurrenceRule); err != nil {
			return nil, err
		}
		set["recurrence_rule"] = body.RecurrenceRule
		ruleSupplied = true
	}

	completing := body.Completed != nil && *body.Completed && !task.Completed
	if body.Completed != nil {
		set["completed"] = *body.Completed
		if *body.Completed {
			if !task.Completed {
				set["completed_at"] = time.Now()
			}
		} else {
			unset["completed_at"] = ""
		}
	}

	if len(set) == 0 && len(unset) == 0 {
		return task, nil
	}

	updated, err := s.tasks.Update(ctx, task.ID, set, unset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("no task with id %s", taskID)
		}
		return nil, err
	}

	taskRef := updated.ID
	activityType := structs.ActivityTaskUpdated
	if completing {
		activityType = structs.ActivityTaskCompleted
	}
	s.activity.Record(ctx, &structs.Activity{
		Type:     activityType,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"name": updated.Name},
	}, updated.AssignedTo)
	if body.AssignedTo != nil {
		s.recordAssignments(ctx, user, updated, before, after)
	}

	if ruleSupplied && updated.IsRecurring {
		s.spawnNextOccurrence(ctx, updated)
	}

	s.publishTask(structs.EventTaskUpdated, updated)
	return updated, nil
}

// spawnNextOccurrence creates the follow-up of a recurring task.
func (s *TaskService) spawnNextOccurrence(ctx context.Context, task *structs.Task) {
	next := nextRecurrence(task, time.Now())
	if next == nil {
		return
	}

	created, err := s.tasks.Create(ctx, next)
	if err != nil {
		s.logger.Error(ctx, "failed to spawn recurring task", "parent", task.ID.Hex(), "error", err)
		return
	}

	s.logger.Info(ctx, "spawned recurring task", "parent", task.ID.Hex(), "task", created.ID.Hex())
	s.publishTask(structs.EventTaskCreated, created)
}

// Delete deletes a task together with its comments, reactions and stored
// attachment files. Only the creator may delete.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if task.CreatedBy != user {
		return forbiddenf("only the task creator can delete it")
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no task with id %s", taskID)
		}
		return err
	}

	for _, a := range task.Attachments {
		if err := s.store.Remove(a.Path); err != nil {
			s.logger.Warn(ctx, "failed to remove attachment file", "path", a.Path, "error", err)
		}
	}

	comments, _, err := s.comments.FindByTask(ctx, task.ID, 0, 0)
	if err != nil {
		s.logger.Warn(ctx, "failed to load task comments for cleanup", "task", task.ID.Hex(), "error", err)
	} else if len(comments) > 0 {
		ids := make([]primitive.ObjectID, 0, len(comments))
		for _, c := range comments {
			ids = append(ids, c.ID)
		}
		if _, err := s.reactions.DeleteByComments(ctx, ids); err != nil {
			s.logger.Warn(ctx, "failed to delete comment reactions", "task", task.ID.Hex(), "error", err)
		}
		if _, err := s.comments.DeleteByTask(ctx, task.ID); err != nil {
			s.logger.Warn(ctx, "failed to delete task comments", "task", task.ID.Hex(), "error", err)
		}
	}

	taskRef := task.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityTaskDeleted,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"name": task.Name},
	}, task.AssignedTo)

	s.publishTask(structs.EventTaskDeleted, task)
	return nil
}

// Stats returns the user's task statistics.
func (s *TaskService) Stats(ctx context.Context, userID string) (*structs.TaskStats, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	return s.tasks.Stats(ctx, user)
}

// AddSubtask appends a subtask to a task.
func (s *TaskService) AddSubtask(ctx context.Context, userID, taskID string, body *structs.SubtaskBody) (*structs.Task, error) {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if len(task.Subtasks) >= structs.MaxSubtasks {
		return nil, invalidf("a task can have at most %d subtasks", structs.MaxSubtasks)
	}

	subtask := structs.Subtask{
		ID:        primitive.NewObjectID(),
		Name:      body.Name,
		CreatedAt: time.Now(),
	}
	if body.Completed != nil && *body.Completed {
		now := time.Now()
		subtask.Completed = true
		subtask.CompletedAt = &now
	}
	task.Subtasks = append(task.Subtasks, subtask)

	updated, err := s.tasks.Replace(ctx, task)
	if err != nil {
		return nil, err
	}

	taskRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivitySubtaskAdded,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"name": subtask.Name},
	}, updated.AssignedTo)

	s.publishTask(structs.EventTaskUpdated, updated)
	return updated, nil
}

// UpdateSubtask updates a subtask's name or completion state.
func (s *TaskService) UpdateSubtask(ctx context.Context, userID, taskID, subtaskID string, body *structs.SubtaskBody) (*structs.Task, error) {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	sid, err := parseObjectID(subtaskID, "subtask")
	if err != nil {
		return nil, err
	}

	var completed bool
	found := false
	for i := range task.Subtasks {
		if task.Subtasks[i].ID != sid {
			continue
		}
		found = true
		if body.Name != "" {
			task.Subtasks[i].Name = body.Name
		}
		if body.Completed != nil {
			if *body.Completed && !task.Subtasks[i].Completed {
				now := time.Now()
				task.Subtasks[i].CompletedAt = &now
				completed = true
			}
			if !*body.Completed {
				task.Subtasks[i].CompletedAt = nil
			}
			task.Subtasks[i].Completed = *body.Completed
		}
		break
	}
	if !found {
		return nil, notFoundf("no subtask with id %s", subtaskID)
	}

	updated, err := s.tasks.Replace(ctx, task)
	if err != nil {
		return nil, err
	}

	if completed {
		taskRef := updated.ID
		s.activity.Record(ctx, &structs.Activity{
			Type:     structs.ActivitySubtaskCompleted,
			User:     user,
			Task:     &taskRef,
			Metadata: map[string]any{"name": body.Name},
		}, updated.AssignedTo)
	}

	s.publishTask(structs.EventTaskUpdated, updated)
	return updated, nil
}

// DeleteSubtask removes a subtask from a task.
func (s *TaskService) DeleteSubtask(ctx context.Context, userID, taskID, subtaskID string) (*structs.Task, error) {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	sid, err := parseObjectID(subtaskID, "subtask")
	if err != nil {
		return nil, err
	}

	kept := make([]structs.Subtask, 0, len(task.Subtasks))
	var removed *structs.Subtask
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == sid {
			subtask := task.Subtasks[i]
			removed = &subtask
			continue
		}
		kept = append(kept, task.Subtasks[i])
	}
	if removed == nil {
		return nil, notFoundf("no subtask with id %s", subtaskID)
	}
	task.Subtasks = kept

	updated, err := s.tasks.Replace(ctx, task)
	if err != nil {
		return nil, err
	}

	taskRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivitySubtaskDeleted,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"name": removed.Name},
	}, updated.AssignedTo)

	s.publishTask(structs.EventTaskUpdated, updated)
	return updated, nil
}

// AddAttachment stores an uploaded file and links it to the task.
func (s *TaskService) AddAttachment(ctx context.Context, userID, taskID, originalName, mimeType string, size int64, r io.Reader) (*structs.Task, error) {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if len(task.Attachments) >= structs.MaxAttachments {
		return nil, invalidf("a task can have at most %d attachments", structs.MaxAttachments)
	}

	storedPath, url, err := s.store.SaveUpload(originalName, size, r)
	if err != nil {
		return nil, invalidf("failed to store attachment: %s", err)
	}

	attachment := structs.Attachment{
		ID:           primitive.NewObjectID(),
		Filename:     storedPath,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
		Path:         storedPath,
		URL:          url,
		UploadedAt:   time.Now(),
	}
	task.Attachments = append(task.Attachments, attachment)

	updated, err := s.tasks.Replace(ctx, task)
	if err != nil {
		// Task vanished under us, drop the orphaned file.
		_ = s.store.Remove(storedPath)
		return nil, err
	}

	taskRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityAttachmentAdded,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"filename": originalName},
	}, updated.AssignedTo)

	s.publishTask(structs.EventTaskUpdated, updated)
	return updated, nil
}

// DeleteAttachment unlinks an attachment and removes the stored file.
func (s *TaskService) DeleteAttachment(ctx context.Context, userID, taskID, attachmentID string) (*structs.Task, error) {
	task, user, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	aid, err := parseObjectID(attachmentID, "attachment")
	if err != nil {
		return nil, err
	}

	kept := make([]structs.Attachment, 0, len(task.Attachments))
	var removed *structs.Attachment
	for i := range task.Attachments {
		if task.Attachments[i].ID == aid {
			attachment := task.Attachments[i]
			removed = &attachment
			continue
		}
		kept = append(kept, task.Attachments[i])
	}
	if removed == nil {
		return nil, notFoundf("no attachment with id %s", attachmentID)
	}
	task.Attachments = kept

	updated, err := s.tasks.Replace(ctx, task)
	if err != nil {
		return nil, err
	}

	if err := s.store.Remove(removed.Path); err != nil {
		s.logger.Warn(ctx, "failed to remove attachment file", "path", removed.Path, "error", err)
	}

	taskRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:     structs.ActivityAttachmentDeleted,
		User:     user,
		Task:     &taskRef,
		Metadata: map[string]any{"filename": removed.OriginalName},
	}, updated.AssignedTo)

	s.publishTask(structs.EventTaskUpdated, updated)
	return updated, nil
}
