package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

// AnalyticsRepository aggregates tasks and comments for reporting.
type AnalyticsRepository interface {
	CompletionStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) (*structs.CompletionStats, error)
	CategoryStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) ([]*structs.CategoryStat, error)
	PriorityStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) ([]*structs.PriorityStat, error)
	ProductivityStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) (*structs.ProductivityStats, error)
}

type analyticsRepository struct {
	tasks    *mongo.Collection
	comments *mongo.Collection
	logger   *logger.Logger
}

// NewAnalyticsRepository creates a new analytics repository instance.
func NewAnalyticsRepository(db *mongo.Database, logger *logger.Logger) AnalyticsRepository {
	return &analyticsRepository{
		tasks:    db.Collection("tasks"),
		comments: db.Collection("comments"),
		logger:   logger,
	}
}

// ownerMatch matches tasks the user created or is assigned to, created
// within the period.
func ownerMatch(owner primitive.ObjectID, start, end time.Time) bson.M {
	return bson.M{
		"$or": []bson.M{
			{"created_by": owner},
			{"assigned_to": owner},
		},
		"created_at": bson.M{"$gte": start, "$lte": end},
	}
}

// CompletionStats aggregates completion counts, average completion time and
// on-time rate for the period.
func (r *analyticsRepository) CompletionStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) (*structs.CompletionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: ownerMatch(owner, start, end)}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"total":     bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": []any{"$completed", 1, 0}}},
			"total_completion_ms": bson.M{"$sum": bson.M{"$cond": []any{
				"$completed",
				bson.M{"$subtract": []any{"$completed_at", "$created_at"}},
				0}}},
			"on_time": bson.M{"$sum": bson.M{"$cond": []any{
				bson.M{"$and": []bson.M{
					{"$eq": []any{"$completed", true}},
					{"$ne": []any{"$due_date", nil}},
					{"$lte": []any{"$completed_at", "$due_date"}},
				}}, 1, 0}}},
			"late": bson.M{"$sum": bson.M{"$cond": []any{
				bson.M{"$and": []bson.M{
					{"$eq": []any{"$completed", true}},
					{"$ne": []any{"$due_date", nil}},
					{"$gt": []any{"$completed_at", "$due_date"}},
				}}, 1, 0}}},
		}}},
	}

	cursor, err := r.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error(ctx, "failed to aggregate completion stats", "error", err)
		return nil, fmt.Errorf("failed to aggregate completion stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total             int64 `bson:"total"`
		Completed         int64 `bson:"completed"`
		TotalCompletionMS int64 `bson:"total_completion_ms"`
		OnTime            int64 `bson:"on_time"`
		Late              int64 `bson:"late"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode completion stats: %w", err)
	}

	stats := &structs.CompletionStats{}
	if len(rows) == 0 {
		return stats, nil
	}

	row := rows[0]
	stats.TotalTasks = row.Total
	stats.CompletedTasks = row.Completed
	stats.OnTimeCompletions = row.OnTime
	stats.LateCompletions = row.Late
	if row.Total > 0 {
		stats.CompletionRate = float64(row.Completed) / float64(row.Total) * 100
	}
	if row.Completed > 0 {
		stats.AvgCompletionHours = float64(row.TotalCompletionMS) / float64(row.Completed) / float64(time.Hour.Milliseconds())
	}
	if withDue := row.OnTime + row.Late; withDue > 0 {
		stats.OnTimeCompletionRate = float64(row.OnTime) / float64(withDue) * 100
	}

	return stats, nil
}

// CategoryStats aggregates per-category totals for the period.
func (r *analyticsRepository) CategoryStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) ([]*structs.CategoryStat, error) {
	match := ownerMatch(owner, start, end)
	match["category"] = bson.M{"$nin": []any{nil, ""}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$category",
			"total":     bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": []any{"$completed", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
	}

	cursor, err := r.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error(ctx, "failed to aggregate category stats", "error", err)
		return nil, fmt.Errorf("failed to aggregate category stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []*structs.CategoryStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode category stats: %w", err)
	}

	for _, s := range stats {
		if s.Total > 0 {
			s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
		}
	}
	return stats, nil
}

// PriorityStats aggregates per-priority totals for the period.
func (r *analyticsRepository) PriorityStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) ([]*structs.PriorityStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: ownerMatch(owner, start, end)}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$priority",
			"total":     bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": []any{"$completed", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
	}

	cursor, err := r.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error(ctx, "failed to aggregate priority stats", "error", err)
		return nil, fmt.Errorf("failed to aggregate priority stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []*structs.PriorityStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode priority stats: %w", err)
	}

	for _, s := range stats {
		if s.Total > 0 {
			s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
		}
	}
	return stats, nil
}

// ProductivityStats counts the user's assigned, completed and created tasks
// plus posted comments for the period.
func (r *analyticsRepository) ProductivityStats(ctx context.Context, owner primitive.ObjectID, start, end time.Time) (*structs.ProductivityStats, error) {
	period := bson.M{"$gte": start, "$lte": end}

	assigned, err := r.tasks.CountDocuments(ctx, bson.M{"assigned_to": owner, "created_at": period})
	if err != nil {
		return nil, fmt.Errorf("failed to count assigned tasks: %w", err)
	}

	completed, err := r.tasks.CountDocuments(ctx, bson.M{"assigned_to": owner, "completed": true, "completed_at": period})
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	created, err := r.tasks.CountDocuments(ctx, bson.M{"created_by": owner, "created_at": period})
	if err != nil {
		return nil, fmt.Errorf("failed to count created tasks: %w", err)
	}

	comments, err := r.comments.CountDocuments(ctx, bson.M{"user": owner, "created_at": period})
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	stats := &structs.ProductivityStats{
		TasksAssigned:  assigned,
		TasksCompleted: completed,
		TasksCreated:   created,
		CommentsPosted: comments,
	}
	if assigned > 0 {
		stats.CompletionRate = float64(completed) / float64(assigned) * 100
	}
	return stats, nil
}
