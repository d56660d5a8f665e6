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

// PreferenceRepository defines the interface for notification preferences.
type PreferenceRepository interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*structs.NotificationPreference, error)
	Save(ctx context.Context, pref *structs.NotificationPreference) (*structs.NotificationPreference, error)
}

type preferenceRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewPreferenceRepository creates a new preference repository instance.
func NewPreferenceRepository(db *mongo.Database, logger *logger.Logger) PreferenceRepository {
	collection := db.Collection("notification_preferences")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn(ctx, "failed to create preference index", "error", err)
	}

	return &preferenceRepository{
		collection: collection,
		logger:     logger,
	}
}

// FindByUser retrieves the user's stored preferences.
func (r *preferenceRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*structs.NotificationPreference, error) {
	var pref structs.NotificationPreference
	err := r.collection.FindOne(ctx, bson.M{"user": userID}).Decode(&pref)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find preferences", "user", userID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}
	return &pref, nil
}

// Save upserts the user's preferences.
func (r *preferenceRepository) Save(ctx context.Context, pref *structs.NotificationPreference) (*structs.NotificationPreference, error) {
	now := time.Now()
	pref.UpdatedAt = now

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"user": pref.User},
		bson.M{
			"$set": bson.M{
				"preferences": pref.Preferences,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"user":       pref.User,
				"created_at": now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		r.logger.Error(ctx, "failed to save preferences", "user", pref.User.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to save preferences: %w", result.Err())
	}

	var saved structs.NotificationPreference
	if err := result.Decode(&saved); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return &saved, nil
}
