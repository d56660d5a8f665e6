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

// SharedListRepository defines the interface for shared list data operations.
type SharedListRepository interface {
	Create(ctx context.Context, list *structs.SharedList) (*structs.SharedList, error)
	FindByID(ctx context.Context, id string) (*structs.SharedList, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*structs.SharedList, error)
	FindByInvitationToken(ctx context.Context, token string) (*structs.SharedList, error)
	FindByAccessCode(ctx context.Context, code string) (*structs.SharedList, error)
	FindPublic(ctx context.Context) ([]*structs.SharedList, error)
	Replace(ctx context.Context, list *structs.SharedList) (*structs.SharedList, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type sharedListRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewSharedListRepository creates a new shared list repository instance.
func NewSharedListRepository(db *mongo.Database, logger *logger.Logger) SharedListRepository {
	collection := db.Collection("shared_lists")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "members.user", Value: 1}}},
		{Keys: bson.D{{Key: "invitations.token", Value: 1}}},
		{
			Keys: bson.D{{Key: "public_access_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"public_access_code": bson.M{"$type": "string"}},
			),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn(ctx, "failed to create shared list indexes", "error", err)
	}

	return &sharedListRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new shared list.
func (r *sharedListRepository) Create(ctx context.Context, list *structs.SharedList) (*structs.SharedList, error) {
	list.ID = primitive.NewObjectID()
	list.CreatedAt = time.Now()
	list.UpdatedAt = list.CreatedAt

	_, err := r.collection.InsertOne(ctx, list)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		r.logger.Error(ctx, "failed to create shared list", "error", err)
		return nil, fmt.Errorf("failed to create shared list: %w", err)
	}

	r.logger.Info(ctx, "shared list created", "id", list.ID.Hex())
	return list, nil
}

// FindByID retrieves a shared list by ID.
func (r *sharedListRepository) FindByID(ctx context.Context, id string) (*structs.SharedList, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByUser retrieves every list the user owns or belongs to.
func (r *sharedListRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*structs.SharedList, error) {
	query := bson.M{
		"$or": []bson.M{
			{"owner": userID},
			{"members.user": userID},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list shared lists", "user", userID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to list shared lists: %w", err)
	}
	defer cursor.Close(ctx)

	var lists []*structs.SharedList
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode shared lists: %w", err)
	}
	return lists, nil
}

// FindByInvitationToken retrieves the list holding the invitation token.
func (r *sharedListRepository) FindByInvitationToken(ctx context.Context, token string) (*structs.SharedList, error) {
	return r.findOne(ctx, bson.M{"invitations.token": token})
}

// FindByAccessCode retrieves a public list by its access code.
func (r *sharedListRepository) FindByAccessCode(ctx context.Context, code string) (*structs.SharedList, error) {
	return r.findOne(ctx, bson.M{"public_access_code": code, "is_public": true})
}

// FindPublic retrieves every public list, newest first.
func (r *sharedListRepository) FindPublic(ctx context.Context) ([]*structs.SharedList, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"is_public": true}, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list public lists", "error", err)
		return nil, fmt.Errorf("failed to list public lists: %w", err)
	}
	defer cursor.Close(ctx)

	var lists []*structs.SharedList
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode public lists: %w", err)
	}
	return lists, nil
}

func (r *sharedListRepository) findOne(ctx context.Context, filter bson.M) (*structs.SharedList, error) {
	var list structs.SharedList
	err := r.collection.FindOne(ctx, filter).Decode(&list)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find shared list", "error", err)
		return nil, fmt.Errorf("failed to find shared list: %w", err)
	}
	return &list, nil
}

// Replace stores the full list document. Members, invitations and task
// references are embedded, so a single replace keeps changes atomic.
func (r *sharedListRepository) Replace(ctx context.Context, list *structs.SharedList) (*structs.SharedList, error) {
	list.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": list.ID}, list)
	if err != nil {
		r.logger.Error(ctx, "failed to replace shared list", "id", list.ID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to replace shared list: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return list, nil
}

// Delete deletes a shared list by ID.
func (r *sharedListRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error(ctx, "failed to delete shared list", "id", id.Hex(), "error", err)
		return fmt.Errorf("failed to delete shared list: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	r.logger.Info(ctx, "shared list deleted", "id", id.Hex())
	return nil
}
