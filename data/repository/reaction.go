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

// ReactionRepository defines the interface for comment reaction operations.
type ReactionRepository interface {
	Upsert(ctx context.Context, commentID, userID primitive.ObjectID, reaction string) (*structs.CommentReaction, error)
	Remove(ctx context.Context, commentID, userID primitive.ObjectID) error
	FindByComment(ctx context.Context, commentID primitive.ObjectID) ([]*structs.CommentReaction, error)
	DeleteByComments(ctx context.Context, commentIDs []primitive.ObjectID) (int64, error)
}

type reactionRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewReactionRepository creates a new reaction repository instance.
func NewReactionRepository(db *mongo.Database, logger *logger.Logger) ReactionRepository {
	collection := db.Collection("comment_reactions")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One reaction per (comment, user); upserts replace the previous one.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "comment", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn(ctx, "failed to create reaction index", "error", err)
	}

	return &reactionRepository{
		collection: collection,
		logger:     logger,
	}
}

// Upsert stores the user's reaction to a comment, replacing any previous one.
func (r *reactionRepository) Upsert(ctx context.Context, commentID, userID primitive.ObjectID, reaction string) (*structs.CommentReaction, error) {
	filter := bson.M{"comment": commentID, "user": userID}
	update := bson.M{
		"$set": bson.M{
			"reaction":   reaction,
			"created_at": time.Now(),
		},
		"$setOnInsert": bson.M{
			"comment": commentID,
			"user":    userID,
		},
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		r.logger.Error(ctx, "failed to upsert reaction", "comment", commentID.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to upsert reaction: %w", result.Err())
	}

	var stored structs.CommentReaction
	if err := result.Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to decode reaction: %w", err)
	}
	return &stored, nil
}

// Remove deletes the user's reaction to a comment.
func (r *reactionRepository) Remove(ctx context.Context, commentID, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"comment": commentID, "user": userID})
	if err != nil {
		r.logger.Error(ctx, "failed to remove reaction", "comment", commentID.Hex(), "error", err)
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByComment retrieves all reactions for a comment.
func (r *reactionRepository) FindByComment(ctx context.Context, commentID primitive.ObjectID) ([]*structs.CommentReaction, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"comment": commentID})
	if err != nil {
		r.logger.Error(ctx, "failed to list reactions", "comment", commentID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer cursor.Close(ctx)

	var reactions []*structs.CommentReaction
	if err := cursor.All(ctx, &reactions); err != nil {
		return nil, fmt.Errorf("failed to decode reactions: %w", err)
	}
	return reactions, nil
}

// DeleteByComments deletes all reactions attached to the given comments.
func (r *reactionRepository) DeleteByComments(ctx context.Context, commentIDs []primitive.ObjectID) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"comment": bson.M{"$in": commentIDs}})
	if err != nil {
		r.logger.Error(ctx, "failed to delete reactions", "error", err)
		return 0, fmt.Errorf("failed to delete reactions: %w", err)
	}
	return result.DeletedCount, nil
}
