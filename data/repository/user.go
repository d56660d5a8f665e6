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

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *structs.User) (*structs.User, error)
	FindByID(ctx context.Context, id string) (*structs.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*structs.User, error)
	FindByEmail(ctx context.Context, email string) (*structs.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*structs.User, error)
	FindByResetToken(ctx context.Context, token string) (*structs.User, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset ...bson.M) (*structs.User, error)
}

type userRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewUserRepository creates a new user repository instance.
func NewUserRepository(db *mongo.Database, logger *logger.Logger) UserRepository {
	collection := db.Collection("users")

	// Create unique index on email
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		logger.Warn(ctx, "failed to create index on email", "error", err)
	}

	return &userRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *structs.User) (*structs.User, error) {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		r.logger.Error(ctx, "failed to create user", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info(ctx, "user created", "id", user.ID.Hex())
	return user, nil
}

// FindByID retrieves a user by ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*structs.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByIDs retrieves users by their ids.
func (r *userRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*structs.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		r.logger.Error(ctx, "failed to find users", "error", err)
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*structs.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// FindByEmail retrieves a user by email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*structs.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByVerificationToken retrieves a user by a live email verification token.
func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (*structs.User, error) {
	return r.findOne(ctx, bson.M{
		"email_verification_token": token,
		"email_verification_exp":   bson.M{"$gt": time.Now()},
	})
}

// FindByResetToken retrieves a user by a live password reset token.
func (r *userRepository) FindByResetToken(ctx context.Context, token string) (*structs.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_password_token": token,
		"reset_password_exp":   bson.M{"$gt": time.Now()},
	})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*structs.User, error) {
	var user structs.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find user", "error", err)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// Update applies $set (and optional $unset) to a user and returns the
// updated document.
func (r *userRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset ...bson.M) (*structs.User, error) {
	set["updated_at"] = time.Now()
	update := bson.M{"$set": set}
	if len(unset) > 0 && len(unset[0]) > 0 {
		update["$unset"] = unset[0]
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(result.Err()) {
			return nil, ErrDuplicate
		}
		r.logger.Error(ctx, "failed to update user", "id", id.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to update user: %w", result.Err())
	}

	var updated structs.User
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated user: %w", err)
	}

	r.logger.Info(ctx, "user updated", "id", id.Hex())
	return &updated, nil
}
