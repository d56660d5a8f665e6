package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

// ActivityFilter narrows activity feed queries.
type ActivityFilter struct {
	User  primitive.ObjectID
	Type  structs.ActivityType
	Task  *primitive.ObjectID
	Team  *primitive.ObjectID
	Skip  int64
	Limit int64
}

// ActivityRepository defines the interface for activity log operations.
type ActivityRepository interface {
	Create(ctx context.Context, activity *structs.Activity) (*structs.Activity, error)
	Find(ctx context.Context, filter *ActivityFilter) ([]*structs.Activity, int64, error)
}

type activityRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewActivityRepository creates a new activity repository instance.
func NewActivityRepository(db *mongo.Database, logger *logger.Logger) ActivityRepository {
	collection := db.Collection("activities")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "task", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "team", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn(ctx, "failed to create activity indexes", "error", err)
	}

	return &activityRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create appends an activity to the log.
func (r *activityRepository) Create(ctx context.Context, activity *structs.Activity) (*structs.Activity, error) {
	activity.ID = primitive.NewObjectID()
	activity.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, activity)
	if err != nil {
		r.logger.Error(ctx, "failed to create activity", "type", activity.Type, "error", err)
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	return activity, nil
}

// Find retrieves activities matching the filter, newest first, with the
// total match count.
func (r *activityRepository) Find(ctx context.Context, filter *ActivityFilter) ([]*structs.Activity, int64, error) {
	query := bson.M{}
	if filter.Task != nil {
		query["task"] = *filter.Task
	} else if filter.Team != nil {
		query["team"] = *filter.Team
	} else {
		query["user"] = filter.User
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Skip).
		SetLimit(filter.Limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list activities", "error", err)
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []*structs.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, 0, fmt.Errorf("failed to decode activities: %w", err)
	}

	return activities, total, nil
}
