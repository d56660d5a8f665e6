package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task limits
const (
	MaxSubtasks    = 20
	MaxAttachments = 10
	MaxTags        = 10
)

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Recurrence frequencies
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Subtask represents an embedded checklist item of a task.
type Subtask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Completed   bool               `bson:"completed" json:"completed"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Attachment represents an uploaded file linked to a task.
type Attachment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename     string             `bson:"filename" json:"filename"`
	OriginalName string             `bson:"original_name" json:"original_name"`
	MimeType     string             `bson:"mime_type" json:"mime_type"`
	Size         int64              `bson:"size" json:"size"`
	Path         string             `bson:"path" json:"path"`
	URL          string             `bson:"url" json:"url"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// RecurrenceRule describes how a recurring task repeats.
type RecurrenceRule struct {
	Frequency string     `bson:"frequency" json:"frequency"`
	Interval  int        `bson:"interval" json:"interval"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Count     *int       `bson:"count,omitempty" json:"count,omitempty"`
}

// Task represents a task document.
type Task struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Description    string               `bson:"description,omitempty" json:"description,omitempty"`
	Completed      bool                 `bson:"completed" json:"completed"`
	CompletedAt    *time.Time           `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Priority       string               `bson:"priority" json:"priority"`
	Category       string               `bson:"category,omitempty" json:"category,omitempty"`
	Tags           []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	StartDate      *time.Time           `bson:"start_date,omitempty" json:"start_date,omitempty"`
	DueDate        *time.Time           `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedBy      primitive.ObjectID   `bson:"created_by" json:"created_by"`
	AssignedTo     []primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Subtasks       []Subtask            `bson:"subtasks,omitempty" json:"subtasks,omitempty"`
	Dependencies   []primitive.ObjectID `bson:"dependencies,omitempty" json:"dependencies,omitempty"`
	Attachments    []Attachment         `bson:"attachments,omitempty" json:"attachments,omitempty"`
	IsRecurring    bool                 `bson:"is_recurring" json:"is_recurring"`
	RecurrenceRule *RecurrenceRule      `bson:"recurrence_rule,omitempty" json:"recurrence_rule,omitempty"`
	ParentTaskID   *primitive.ObjectID  `bson:"parent_task_id,omitempty" json:"parent_task_id,omitempty"`
	EstimatedTime  *int                 `bson:"estimated_time,omitempty" json:"estimated_time,omitempty"`
	ActualTime     *int                 `bson:"actual_time,omitempty" json:"actual_time,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// CreateTaskBody represents the task creation payload.
type CreateTaskBody struct {
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Description    string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Priority       string          `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Category       string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags           []string        `json:"tags,omitempty" validate:"omitempty,max=10"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	AssignedTo     []string        `json:"assigned_to,omitempty"`
	Dependencies   []string        `json:"dependencies,omitempty"`
	IsRecurring    bool            `json:"is_recurring,omitempty"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
	EstimatedTime  *int            `json:"estimated_time,omitempty" validate:"omitempty,gte=0"`
}

// UpdateTaskBody represents the task update payload.
// Nil pointers leave the stored value untouched.
type UpdateTaskBody struct {
	Name           *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description    *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Completed      *bool           `json:"completed,omitempty"`
	Priority       *string         `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Category       *string         `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags           *[]string       `json:"tags,omitempty"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	AssignedTo     *[]string       `json:"assigned_to,omitempty"`
	Dependencies   *[]string       `json:"dependencies,omitempty"`
	IsRecurring    *bool           `json:"is_recurring,omitempty"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
	EstimatedTime  *int            `json:"estimated_time,omitempty" validate:"omitempty,gte=0"`
	ActualTime     *int            `json:"actual_time,omitempty" validate:"omitempty,gte=0"`
}

// SubtaskBody represents the subtask create / update payload.
type SubtaskBody struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Completed *bool  `json:"completed,omitempty"`
}

// TaskListQuery represents task list filters.
type TaskListQuery struct {
	Category       string `form:"category"`
	Completed      string `form:"completed"`
	Priority       string `form:"priority"`
	IsRecurring    string `form:"is_recurring"`
	DueDate        string `form:"due_date"` // today | tomorrow | week | overdue
	HasAttachments string `form:"has_attachments"`
	HasSubtasks    string `form:"has_subtasks"`
	Search         string `form:"search"`
	Sort           string `form:"sort"`
	Fields         string `form:"fields"`
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
}

// TaskStats summarizes a user's tasks by status and priority.
type TaskStats struct {
	Total      int64            `json:"total"`
	Completed  int64            `json:"completed"`
	Pending    int64            `json:"pending"`
	Overdue    int64            `json:"overdue"`
	ByPriority map[string]int64 `json:"by_priority"`
	ByCategory map[string]int64 `json:"by_category"`
}
