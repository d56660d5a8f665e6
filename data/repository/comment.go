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

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *structs.Comment) (*structs.Comment, error)
	FindByID(ctx context.Context, id string) (*structs.Comment, error)
	FindByTask(ctx context.Context, taskID primitive.ObjectID, skip, limit int64) ([]*structs.Comment, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*structs.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteReplies(ctx context.Context, parentID primitive.ObjectID) (int64, error)
	DeleteByTask(ctx context.Context, taskID primitive.ObjectID) (int64, error)
}

type commentRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewCommentRepository creates a new comment repository instance.
func NewCommentRepository(db *mongo.Database, logger *logger.Logger) CommentRepository {
	collection := db.Collection("comments")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "task", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "parent_comment", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn(ctx, "failed to create comment indexes", "error", err)
	}

	return &commentRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *structs.Comment) (*structs.Comment, error) {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt

	_, err := r.collection.InsertOne(ctx, comment)
	if err != nil {
		r.logger.Error(ctx, "failed to create comment", "error", err)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	r.logger.Info(ctx, "comment created", "id", comment.ID.Hex(), "task", comment.Task.Hex())
	return comment, nil
}

// FindByID retrieves a comment by ID.
func (r *commentRepository) FindByID(ctx context.Context, id string) (*structs.Comment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var comment structs.Comment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find comment", "id", id, "error", err)
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return &comment, nil
}

// FindByTask retrieves the comments of a task, oldest first, with the total count.
func (r *commentRepository) FindByTask(ctx context.Context, taskID primitive.ObjectID, skip, limit int64) ([]*structs.Comment, int64, error) {
	query := bson.M{"task": taskID}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list comments", "task", taskID.Hex(), "error", err)
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	defer cursor.Close(ctx)

	var comments []*structs.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("failed to decode comments: %w", err)
	}

	return comments, total, nil
}

// Update applies $set to a comment and returns the updated document.
func (r *commentRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*structs.Comment, error) {
	set["updated_at"] = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to update comment", "id", id.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to update comment: %w", result.Err())
	}

	var updated structs.Comment
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated comment: %w", err)
	}

	return &updated, nil
}

// Delete deletes a comment by ID.
func (r *commentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error(ctx, "failed to delete comment", "id", id.Hex(), "error", err)
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	r.logger.Info(ctx, "comment deleted", "id", id.Hex())
	return nil
}

// DeleteReplies deletes every reply of a parent comment.
func (r *commentRepository) DeleteReplies(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"parent_comment": parentID})
	if err != nil {
		r.logger.Error(ctx, "failed to delete replies", "parent", parentID.Hex(), "error", err)
		return 0, fmt.Errorf("failed to delete replies: %w", err)
	}
	return result.DeletedCount, nil
}

// DeleteByTask deletes every comment of a task.
func (r *commentRepository) DeleteByTask(ctx context.Context, taskID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"task": taskID})
	if err != nil {
		r.logger.Error(ctx, "failed to delete task comments", "task", taskID.Hex(), "error", err)
		return 0, fmt.Errorf("failed to delete task comments: %w", err)
	}
	return result.DeletedCount, nil
}
