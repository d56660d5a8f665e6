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

// NotificationRepository defines the interface for notification operations.
type NotificationRepository interface {
	Create(ctx context.Context, n *structs.Notification) (*structs.Notification, error)
	Find(ctx context.Context, recipient primitive.ObjectID, read *bool, skip, limit int64) ([]*structs.Notification, int64, error)
	CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*structs.Notification, error)
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, recipient primitive.ObjectID) error
}

type notificationRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewNotificationRepository creates a new notification repository instance.
func NewNotificationRepository(db *mongo.Database, logger *logger.Logger) NotificationRepository {
	collection := db.Collection("notifications")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn(ctx, "failed to create notification indexes", "error", err)
	}

	return &notificationRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new notification.
func (r *notificationRepository) Create(ctx context.Context, n *structs.Notification) (*structs.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		r.logger.Error(ctx, "failed to create notification", "error", err)
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// Find retrieves the recipient's notifications, newest first, optionally
// filtered by read state.
func (r *notificationRepository) Find(ctx context.Context, recipient primitive.ObjectID, read *bool, skip, limit int64) ([]*structs.Notification, int64, error) {
	query := bson.M{"recipient": recipient}
	if read != nil {
		query["read"] = *read
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list notifications", "error", err)
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*structs.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, total, nil
}

// CountUnread counts the recipient's unread notifications.
func (r *notificationRepository) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a notification read. Marking an already-read notification
// keeps the original read timestamp.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*structs.Notification, error) {
	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			// Already read, or not theirs. Fetch to tell apart.
			var existing structs.Notification
			err := r.collection.FindOne(ctx, bson.M{"_id": id, "recipient": recipient}).Decode(&existing)
			if err == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			if err != nil {
				return nil, fmt.Errorf("failed to mark notification read: %w", err)
			}
			return &existing, nil
		}
		r.logger.Error(ctx, "failed to mark notification read", "id", id.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to mark notification read: %w", result.Err())
	}

	var updated structs.Notification
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	return &updated, nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now()}},
	)
	if err != nil {
		r.logger.Error(ctx, "failed to mark all notifications read", "error", err)
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

// Delete deletes the recipient's notification.
func (r *notificationRepository) Delete(ctx context.Context, id, recipient primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipient})
	if err != nil {
		r.logger.Error(ctx, "failed to delete notification", "id", id.Hex(), "error", err)
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
