package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Analytics periods
const (
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

// CompletionStats summarizes task completion over a period.
type CompletionStats struct {
	TotalTasks           int64   `json:"total_tasks"`
	CompletedTasks       int64   `json:"completed_tasks"`
	CompletionRate       float64 `json:"completion_rate"`
	AvgCompletionHours   float64 `json:"avg_completion_hours"`
	OnTimeCompletions    int64   `json:"on_time_completions"`
	LateCompletions      int64   `json:"late_completions"`
	OnTimeCompletionRate float64 `json:"on_time_completion_rate"`
}

// CategoryStat summarizes tasks for one category.
type CategoryStat struct {
	Category       string  `bson:"_id" json:"category"`
	Total          int64   `bson:"total" json:"total"`
	Completed      int64   `bson:"completed" json:"completed"`
	CompletionRate float64 `bson:"-" json:"completion_rate"`
}

// PriorityStat summarizes tasks for one priority.
type PriorityStat struct {
	Priority       string  `bson:"_id" json:"priority"`
	Total          int64   `bson:"total" json:"total"`
	Completed      int64   `bson:"completed" json:"completed"`
	CompletionRate float64 `bson:"-" json:"completion_rate"`
}

// ProductivityStats summarizes a user's assigned-task throughput.
type ProductivityStats struct {
	TasksAssigned  int64   `json:"tasks_assigned"`
	TasksCompleted int64   `json:"tasks_completed"`
	CompletionRate float64 `json:"completion_rate"`
	TasksCreated   int64   `json:"tasks_created"`
	CommentsPosted int64   `json:"comments_posted"`
}

// DashboardAnalytics bundles the standard dashboard widgets.
type DashboardAnalytics struct {
	Completion   *CompletionStats   `json:"completion"`
	ByCategory   []*CategoryStat    `json:"by_category"`
	ByPriority   []*PriorityStat    `json:"by_priority"`
	Productivity *ProductivityStats `json:"productivity"`
	Period       string             `json:"period"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// SavedReport stores a named analytics configuration.
type SavedReport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Period      string             `bson:"period" json:"period"`
	Filters     map[string]any     `bson:"filters,omitempty" json:"filters,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// SaveReportBody represents the saved-report create / update payload.
type SaveReportBody struct {
	Name        string         `json:"name" validate:"required,min=1,max=100"`
	Description string         `json:"description,omitempty" validate:"omitempty,max=500"`
	Period      string         `json:"period" validate:"required,oneof=week month quarter year"`
	Filters     map[string]any `json:"filters,omitempty"`
}

// AnalyticsQuery represents the shared analytics query parameters.
type AnalyticsQuery struct {
	Period string `form:"period"`
}

// PeriodRange resolves the query period to a concrete date range ending now.
func (q AnalyticsQuery) PeriodRange(now time.Time) (start, end time.Time, period string) {
	period = q.Period
	switch period {
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodQuarter:
		start = now.AddDate(0, -3, 0)
	case PeriodYear:
		start = now.AddDate(-1, 0, 0)
	default:
		period = PeriodMonth
		start = now.AddDate(0, -1, 0)
	}
	return start, now, period
}
