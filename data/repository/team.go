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

// TeamRepository defines the interface for team data operations.
type TeamRepository interface {
	Create(ctx context.Context, team *structs.Team) (*structs.Team, error)
	FindByID(ctx context.Context, id string) (*structs.Team, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*structs.Team, error)
	FindByInvitationToken(ctx context.Context, token string) (*structs.Team, error)
	Replace(ctx context.Context, team *structs.Team) (*structs.Team, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type teamRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewTeamRepository creates a new team repository instance.
func NewTeamRepository(db *mongo.Database, logger *logger.Logger) TeamRepository {
	collection := db.Collection("teams")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "members.user", Value: 1}}},
		{Keys: bson.D{{Key: "invitations.token", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn(ctx, "failed to create team indexes", "error", err)
	}

	return &teamRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new team.
func (r *teamRepository) Create(ctx context.Context, team *structs.Team) (*structs.Team, error) {
	team.ID = primitive.NewObjectID()
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt

	_, err := r.collection.InsertOne(ctx, team)
	if err != nil {
		r.logger.Error(ctx, "failed to create team", "error", err)
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	r.logger.Info(ctx, "team created", "id", team.ID.Hex())
	return team, nil
}

// FindByID retrieves a team by ID.
func (r *teamRepository) FindByID(ctx context.Context, id string) (*structs.Team, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var team structs.Team
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find team", "id", id, "error", err)
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	return &team, nil
}

// FindByUser retrieves every team the user owns or belongs to.
func (r *teamRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*structs.Team, error) {
	query := bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"created_by": userID},
			{"members.user": userID},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list teams", "user", userID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer cursor.Close(ctx)

	var teams []*structs.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return teams, nil
}

// FindByInvitationToken retrieves the team holding the invitation token.
func (r *teamRepository) FindByInvitationToken(ctx context.Context, token string) (*structs.Team, error) {
	var team structs.Team
	err := r.collection.FindOne(ctx, bson.M{"invitations.token": token}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find team by invitation", "error", err)
		return nil, fmt.Errorf("failed to find team by invitation: %w", err)
	}
	return &team, nil
}

// Replace stores the full team document. Members and invitations are
// embedded, so a single replace keeps membership changes atomic.
func (r *teamRepository) Replace(ctx context.Context, team *structs.Team) (*structs.Team, error) {
	team.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": team.ID}, team)
	if err != nil {
		r.logger.Error(ctx, "failed to replace team", "id", team.ID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to replace team: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return team, nil
}

// Delete deletes a team by ID.
func (r *teamRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error(ctx, "failed to delete team", "id", id.Hex(), "error", err)
		return fmt.Errorf("failed to delete team: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	r.logger.Info(ctx, "team deleted", "id", id.Hex())
	return nil
}
