package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/storage"
	"github.com/ncobase/taskflow/structs"
)

// newTestTaskService wires a task service onto in-memory fakes and a
// throwaway on-disk store.
func newTestTaskService(t *testing.T, repo *fakeTaskRepo) (*TaskService, *fakeActivityRepo, *storage.Store) {
	t.Helper()

	store, err := storage.New(&config.Storage{Folder: t.TempDir(), PublicPath: "/uploads", MaxUploadSize: 1 << 20})
	require.NoError(t, err)

	activity, activities, _ := newTestActivityService(newFakeUserRepo())
	svc := &TaskService{
		tasks:     repo,
		comments:  newFakeCommentRepo(),
		reactions: newFakeReactionRepo(),
		users:     newFakeUserRepo(),
		store:     store,
		activity:  activity,
		pub:       NoopPublisher{},
		logger:    logger.StdLogger(),
	}
	return svc, activities, store
}

// childOf returns the spawned follow-up of a recurring task, if any.
func childOf(repo *fakeTaskRepo, parent primitive.ObjectID) *structs.Task {
	for _, task := range repo.tasks {
		if task.ParentTaskID != nil && *task.ParentTaskID == parent {
			return task
		}
	}
	return nil
}

func TestCheckDependencies(t *testing.T) {
	a, b, c, d := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	repo := newFakeTaskRepo(
		&structs.Task{ID: a, Dependencies: []primitive.ObjectID{b}},
		&structs.Task{ID: b, Dependencies: []primitive.ObjectID{c}},
		&structs.Task{ID: c},
		&structs.Task{ID: d},
	)
	svc := &TaskService{tasks: repo}
	ctx := context.Background()

	t.Run("no dependencies", func(t *testing.T) {
		assert.NoError(t, svc.checkDependencies(ctx, a, nil))
	})

	t.Run("acyclic chain", func(t *testing.T) {
		assert.NoError(t, svc.checkDependencies(ctx, d, []primitive.ObjectID{a}))
	})

	t.Run("self dependency", func(t *testing.T) {
		err := svc.checkDependencies(ctx, a, []primitive.ObjectID{a})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))
	})

	t.Run("direct cycle", func(t *testing.T) {
		// b already depends on c, so c -> b closes the loop
		err := svc.checkDependencies(ctx, c, []primitive.ObjectID{b})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))
	})

	t.Run("transitive cycle", func(t *testing.T) {
		// a -> b -> c, so c -> a is a cycle two hops out
		err := svc.checkDependencies(ctx, c, []primitive.ObjectID{a})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))
	})

	t.Run("unknown dependency", func(t *testing.T) {
		err := svc.checkDependencies(ctx, a, []primitive.ObjectID{primitive.NewObjectID()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))
	})
}

func TestDueDateRange(t *testing.T) {
	now := time.Date(2025, time.June, 4, 15, 30, 0, 0, time.UTC)
	day := time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)

	t.Run("empty bucket", func(t *testing.T) {
		from, to, overdue, err := dueDateRange("", now)
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
		assert.False(t, overdue)
	})

	t.Run("today", func(t *testing.T) {
		from, to, overdue, err := dueDateRange("today", now)
		require.NoError(t, err)
		assert.True(t, from.Equal(day))
		assert.True(t, to.Equal(day.AddDate(0, 0, 1)))
		assert.False(t, overdue)
	})

	t.Run("tomorrow", func(t *testing.T) {
		from, to, _, err := dueDateRange("tomorrow", now)
		require.NoError(t, err)
		assert.True(t, from.Equal(day.AddDate(0, 0, 1)))
		assert.True(t, to.Equal(day.AddDate(0, 0, 2)))
	})

	t.Run("week", func(t *testing.T) {
		from, to, _, err := dueDateRange("week", now)
		require.NoError(t, err)
		assert.True(t, from.Equal(day))
		assert.True(t, to.Equal(day.AddDate(0, 0, 7)))
	})

	t.Run("overdue", func(t *testing.T) {
		from, to, overdue, err := dueDateRange("overdue", now)
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
		assert.True(t, overdue)
	})

	t.Run("unknown bucket", func(t *testing.T) {
		_, _, _, err := dueDateRange("someday", now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))
	})
}

func TestCreateRecurringTask(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()
	due := time.Now().Add(24 * time.Hour)

	t.Run("creation spawns the follow-up occurrence", func(t *testing.T) {
		count := 2
		repo := newFakeTaskRepo()
		svc, _, _ := newTestTaskService(t, repo)

		created, err := svc.Create(ctx, user.Hex(), &structs.CreateTaskBody{
			Name:        "weekly report",
			DueDate:     &due,
			IsRecurring: true,
			RecurrenceRule: &structs.RecurrenceRule{
				Frequency: structs.FrequencyWeekly,
				Interval:  1,
				Count:     &count,
			},
		})
		require.NoError(t, err)
		require.Len(t, repo.tasks, 2)

		next := childOf(repo, created.ID)
		require.NotNil(t, next)
		assert.True(t, next.IsRecurring)
		require.NotNil(t, next.RecurrenceRule.Count)
		assert.Equal(t, 1, *next.RecurrenceRule.Count)
		assert.True(t, next.DueDate.Equal(due.AddDate(0, 0, 7)))
	})

	t.Run("count of one still spawns a final occurrence", func(t *testing.T) {
		count := 1
		repo := newFakeTaskRepo()
		svc, _, _ := newTestTaskService(t, repo)

		created, err := svc.Create(ctx, user.Hex(), &structs.CreateTaskBody{
			Name:        "monthly billing",
			DueDate:     &due,
			IsRecurring: true,
			RecurrenceRule: &structs.RecurrenceRule{
				Frequency: structs.FrequencyMonthly,
				Interval:  1,
				Count:     &count,
			},
		})
		require.NoError(t, err)
		require.Len(t, repo.tasks, 2)

		next := childOf(repo, created.ID)
		require.NotNil(t, next)
		require.NotNil(t, next.RecurrenceRule.Count)
		assert.Equal(t, 0, *next.RecurrenceRule.Count)
	})

	t.Run("non-recurring creation spawns nothing", func(t *testing.T) {
		repo := newFakeTaskRepo()
		svc, _, _ := newTestTaskService(t, repo)

		_, err := svc.Create(ctx, user.Hex(), &structs.CreateTaskBody{Name: "one-off"})
		require.NoError(t, err)
		assert.Len(t, repo.tasks, 1)
	})
}

func TestUpdateTaskCompletion(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()
	task := &structs.Task{ID: primitive.NewObjectID(), Name: "write minutes", CreatedBy: user}
	repo := newFakeTaskRepo(task)
	svc, _, _ := newTestTaskService(t, repo)

	yes, no := true, false

	updated, err := svc.Update(ctx, user.Hex(), task.ID.Hex(), &structs.UpdateTaskBody{Completed: &yes})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	updated, err = svc.Update(ctx, user.Hex(), task.ID.Hex(), &structs.UpdateTaskBody{Completed: &no})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateRecurringTask(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()
	due := time.Now().Add(24 * time.Hour)
	yes := true

	t.Run("completing does not spawn an occurrence", func(t *testing.T) {
		count := 5
		task := &structs.Task{
			ID:          primitive.NewObjectID(),
			Name:        "standup notes",
			CreatedBy:   user,
			DueDate:     &due,
			IsRecurring: true,
			RecurrenceRule: &structs.RecurrenceRule{
				Frequency: structs.FrequencyDaily,
				Interval:  1,
				Count:     &count,
			},
		}
		repo := newFakeTaskRepo(task)
		svc, _, _ := newTestTaskService(t, repo)

		_, err := svc.Update(ctx, user.Hex(), task.ID.Hex(), &structs.UpdateTaskBody{Completed: &yes})
		require.NoError(t, err)
		assert.Len(t, repo.tasks, 1)
	})

	t.Run("supplying a rule spawns the next occurrence", func(t *testing.T) {
		task := &structs.Task{
			ID:        primitive.NewObjectID(),
			Name:      "backup check",
			CreatedBy: user,
			DueDate:   &due,
		}
		repo := newFakeTaskRepo(task)
		svc, _, _ := newTestTaskService(t, repo)

		rule := &structs.RecurrenceRule{Frequency: structs.FrequencyWeekly, Interval: 1}
		_, err := svc.Update(ctx, user.Hex(), task.ID.Hex(), &structs.UpdateTaskBody{
			IsRecurring:    &yes,
			RecurrenceRule: rule,
		})
		require.NoError(t, err)
		require.Len(t, repo.tasks, 2)

		next := childOf(repo, task.ID)
		require.NotNil(t, next)
		assert.True(t, next.DueDate.Equal(due.AddDate(0, 0, 7)))
	})
}

func TestDeleteSubtask(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()
	first := structs.Subtask{ID: primitive.NewObjectID(), Name: "draft outline", CreatedAt: time.Now()}
	second := structs.Subtask{ID: primitive.NewObjectID(), Name: "collect figures", CreatedAt: time.Now()}
	task := &structs.Task{
		ID:        primitive.NewObjectID(),
		Name:      "quarterly report",
		CreatedBy: user,
		Subtasks:  []structs.Subtask{first, second},
	}
	repo := newFakeTaskRepo(task)
	svc, activities, _ := newTestTaskService(t, repo)

	updated, err := svc.DeleteSubtask(ctx, user.Hex(), task.ID.Hex(), first.ID.Hex())
	require.NoError(t, err)

	require.Len(t, updated.Subtasks, 1)
	assert.Equal(t, second.ID, updated.Subtasks[0].ID)
	assert.Equal(t, second.Name, updated.Subtasks[0].Name)

	recorded := activities.last()
	require.NotNil(t, recorded)
	assert.Equal(t, structs.ActivitySubtaskDeleted, recorded.Type)
	assert.Equal(t, first.Name, recorded.Metadata["name"])

	_, err = svc.DeleteSubtask(ctx, user.Hex(), task.ID.Hex(), first.ID.Hex())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteAttachment(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()
	task := &structs.Task{ID: primitive.NewObjectID(), Name: "design review", CreatedBy: user}
	repo := newFakeTaskRepo(task)
	svc, activities, store := newTestTaskService(t, repo)

	_, err := svc.AddAttachment(ctx, user.Hex(), task.ID.Hex(), "notes.txt", "text/plain", 5, strings.NewReader("notes"))
	require.NoError(t, err)
	updated, err := svc.AddAttachment(ctx, user.Hex(), task.ID.Hex(), "photo.png", "image/png", 5, strings.NewReader("image"))
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 2)

	first, second := updated.Attachments[0], updated.Attachments[1]

	updated, err = svc.DeleteAttachment(ctx, user.Hex(), task.ID.Hex(), first.ID.Hex())
	require.NoError(t, err)

	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, second.ID, updated.Attachments[0].ID)
	assert.Equal(t, "photo.png", updated.Attachments[0].OriginalName)

	// the deleted attachment's file is gone, the sibling's survives
	_, err = os.Stat(filepath.Join(store.Folder(), first.Path))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.Folder(), second.Path))
	assert.NoError(t, err)

	recorded := activities.last()
	require.NotNil(t, recorded)
	assert.Equal(t, structs.ActivityAttachmentDeleted, recorded.Type)
	assert.Equal(t, "notes.txt", recorded.Metadata["filename"])
}

func TestDeleteTaskRemovesAttachmentFiles(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID()
	task := &structs.Task{ID: primitive.NewObjectID(), Name: "launch checklist", CreatedBy: user}
	repo := newFakeTaskRepo(task)
	svc, _, store := newTestTaskService(t, repo)

	updated, err := svc.AddAttachment(ctx, user.Hex(), task.ID.Hex(), "plan.txt", "text/plain", 4, strings.NewReader("plan"))
	require.NoError(t, err)
	stored := updated.Attachments[0]

	require.NoError(t, svc.Delete(ctx, user.Hex(), task.ID.Hex()))

	assert.Empty(t, repo.tasks)
	_, err = os.Stat(filepath.Join(store.Folder(), stored.Path))
	assert.True(t, os.IsNotExist(err))
}
