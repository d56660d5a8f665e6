package service

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/structs"
)

// NextOccurrence computes the due date following from on the given rule.
// Unknown frequencies fall back to daily. The interval must already be
// validated, see ValidateRecurrenceRule.
func NextOccurrence(from time.Time, rule *structs.RecurrenceRule) time.Time {
	interval := rule.Interval

	switch rule.Frequency {
	case structs.FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval)
	case structs.FrequencyMonthly:
		return from.AddDate(0, interval, 0)
	case structs.FrequencyYearly:
		return from.AddDate(interval, 0, 0)
	default:
		return from.AddDate(0, 0, interval)
	}
}

// ValidateRecurrenceRule checks a recurrence rule for obvious mistakes.
func ValidateRecurrenceRule(rule *structs.RecurrenceRule) error {
	if rule == nil {
		return invalidf("recurring tasks require a recurrence rule")
	}
	switch rule.Frequency {
	case structs.FrequencyDaily, structs.FrequencyWeekly, structs.FrequencyMonthly, structs.FrequencyYearly:
	default:
		return invalidf("invalid recurrence frequency: %s", rule.Frequency)
	}
	if rule.Interval < 1 {
		return invalidf("recurrence interval must be at least 1")
	}
	if rule.Count != nil && *rule.Count < 1 {
		return invalidf("recurrence count must be at least 1")
	}
	return nil
}

// nextRecurrence builds the follow-up task of a recurring task. It returns
// nil when the rule has run out: the end date lies in the past, or the
// remaining count reached zero. A count of one still yields a final
// follow-up carrying a count of zero.
func nextRecurrence(task *structs.Task, now time.Time) *structs.Task {
	rule := task.RecurrenceRule
	if !task.IsRecurring || rule == nil {
		return nil
	}
	if rule.Count != nil && *rule.Count <= 0 {
		return nil
	}
	if rule.EndDate != nil && rule.EndDate.Before(now) {
		return nil
	}

	base := now
	if task.DueDate != nil {
		base = *task.DueDate
	}
	nextDue := NextOccurrence(base, rule)

	nextRule := &structs.RecurrenceRule{
		Frequency: rule.Frequency,
		Interval:  rule.Interval,
		EndDate:   rule.EndDate,
	}
	if rule.Count != nil {
		remaining := *rule.Count - 1
		nextRule.Count = &remaining
	}

	parent := task.ID
	next := &structs.Task{
		Name:           task.Name,
		Description:    task.Description,
		Priority:       task.Priority,
		Category:       task.Category,
		Tags:           append([]string(nil), task.Tags...),
		DueDate:        &nextDue,
		CreatedBy:      task.CreatedBy,
		AssignedTo:     append([]primitive.ObjectID(nil), task.AssignedTo...),
		IsRecurring:    true,
		RecurrenceRule: nextRule,
		ParentTaskID:   &parent,
		EstimatedTime:  task.EstimatedTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if task.StartDate != nil {
		start := NextOccurrence(*task.StartDate, rule)
		next.StartDate = &start
	}
	return next
}
