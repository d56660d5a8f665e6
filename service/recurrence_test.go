package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/structs"
)

func TestNextOccurrence(t *testing.T) {
	from := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule structs.RecurrenceRule
		want time.Time
	}{
		{"daily", structs.RecurrenceRule{Frequency: structs.FrequencyDaily, Interval: 1}, from.AddDate(0, 0, 1)},
		{"every third day", structs.RecurrenceRule{Frequency: structs.FrequencyDaily, Interval: 3}, from.AddDate(0, 0, 3)},
		{"weekly", structs.RecurrenceRule{Frequency: structs.FrequencyWeekly, Interval: 1}, from.AddDate(0, 0, 7)},
		{"biweekly", structs.RecurrenceRule{Frequency: structs.FrequencyWeekly, Interval: 2}, from.AddDate(0, 0, 14)},
		{"monthly", structs.RecurrenceRule{Frequency: structs.FrequencyMonthly, Interval: 1}, from.AddDate(0, 1, 0)},
		{"yearly", structs.RecurrenceRule{Frequency: structs.FrequencyYearly, Interval: 1}, from.AddDate(1, 0, 0)},
		{"unknown frequency falls back to daily", structs.RecurrenceRule{Frequency: "hourly", Interval: 1}, from.AddDate(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(from, &tt.rule)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestValidateRecurrenceRule(t *testing.T) {
	one := 1
	zero := 0

	tests := []struct {
		name    string
		rule    *structs.RecurrenceRule
		wantErr bool
	}{
		{"nil rule", nil, true},
		{"valid daily", &structs.RecurrenceRule{Frequency: structs.FrequencyDaily, Interval: 1}, false},
		{"valid with count", &structs.RecurrenceRule{Frequency: structs.FrequencyMonthly, Interval: 2, Count: &one}, false},
		{"unknown frequency", &structs.RecurrenceRule{Frequency: "fortnightly", Interval: 1}, true},
		{"negative interval", &structs.RecurrenceRule{Frequency: structs.FrequencyDaily, Interval: -1}, true},
		{"zero interval", &structs.RecurrenceRule{Frequency: structs.FrequencyDaily, Interval: 0}, true},
		{"zero count", &structs.RecurrenceRule{Frequency: structs.FrequencyDaily, Interval: 1, Count: &zero}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecurrenceRule(tt.rule)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextRecurrence(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	due := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	est := 90

	base := func() *structs.Task {
		return &structs.Task{
			ID:            primitive.NewObjectID(),
			Name:          "weekly report",
			Description:   "status update",
			Priority:      structs.PriorityHigh,
			Category:      "work",
			Tags:          []string{"reporting"},
			DueDate:       &due,
			CreatedBy:     primitive.NewObjectID(),
			AssignedTo:    []primitive.ObjectID{primitive.NewObjectID()},
			IsRecurring:   true,
			EstimatedTime: &est,
			RecurrenceRule: &structs.RecurrenceRule{
				Frequency: structs.FrequencyWeekly,
				Interval:  1,
			},
		}
	}

	t.Run("spawns follow-up from due date", func(t *testing.T) {
		task := base()
		next := nextRecurrence(task, now)
		require.NotNil(t, next)
		assert.Equal(t, task.Name, next.Name)
		assert.Equal(t, task.Priority, next.Priority)
		assert.Equal(t, task.Tags, next.Tags)
		assert.Equal(t, task.AssignedTo, next.AssignedTo)
		assert.Equal(t, task.EstimatedTime, next.EstimatedTime)
		assert.True(t, next.IsRecurring)
		require.NotNil(t, next.ParentTaskID)
		assert.Equal(t, task.ID, *next.ParentTaskID)
		require.NotNil(t, next.DueDate)
		assert.True(t, next.DueDate.Equal(due.AddDate(0, 0, 7)))
		assert.False(t, next.Completed)
	})

	t.Run("falls back to now without a due date", func(t *testing.T) {
		task := base()
		task.DueDate = nil
		next := nextRecurrence(task, now)
		require.NotNil(t, next)
		assert.True(t, next.DueDate.Equal(now.AddDate(0, 0, 7)))
	})

	t.Run("decrements count", func(t *testing.T) {
		count := 3
		task := base()
		task.RecurrenceRule.Count = &count
		next := nextRecurrence(task, now)
		require.NotNil(t, next)
		require.NotNil(t, next.RecurrenceRule.Count)
		assert.Equal(t, 2, *next.RecurrenceRule.Count)
	})

	t.Run("count of one yields a final occurrence", func(t *testing.T) {
		count := 1
		task := base()
		task.RecurrenceRule.Count = &count
		next := nextRecurrence(task, now)
		require.NotNil(t, next)
		require.NotNil(t, next.RecurrenceRule.Count)
		assert.Equal(t, 0, *next.RecurrenceRule.Count)
	})

	t.Run("stops once the count reaches zero", func(t *testing.T) {
		count := 0
		task := base()
		task.RecurrenceRule.Count = &count
		assert.Nil(t, nextRecurrence(task, now))
	})

	t.Run("stops once the end date has passed", func(t *testing.T) {
		end := now.AddDate(0, 0, -1)
		task := base()
		task.RecurrenceRule.EndDate = &end
		assert.Nil(t, nextRecurrence(task, now))
	})

	t.Run("future end date keeps the series alive", func(t *testing.T) {
		end := now.AddDate(0, 0, 1)
		task := base()
		task.RecurrenceRule.EndDate = &end
		next := nextRecurrence(task, now)
		require.NotNil(t, next)
		assert.True(t, next.DueDate.Equal(due.AddDate(0, 0, 7)))
	})

	t.Run("advances the start date", func(t *testing.T) {
		start := due.AddDate(0, 0, -2)
		task := base()
		task.StartDate = &start
		next := nextRecurrence(task, now)
		require.NotNil(t, next)
		require.NotNil(t, next.StartDate)
		assert.True(t, next.StartDate.Equal(start.AddDate(0, 0, 7)))
	})

	t.Run("non-recurring task spawns nothing", func(t *testing.T) {
		task := base()
		task.IsRecurring = false
		assert.Nil(t, nextRecurrence(task, now))
	})

	t.Run("missing rule spawns nothing", func(t *testing.T) {
		task := base()
		task.RecurrenceRule = nil
		assert.Nil(t, nextRecurrence(task, now))
	})
}
