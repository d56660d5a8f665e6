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

// ReportRepository defines the interface for saved analytics reports.
type ReportRepository interface {
	Create(ctx context.Context, report *structs.SavedReport) (*structs.SavedReport, error)
	FindByID(ctx context.Context, id string) (*structs.SavedReport, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*structs.SavedReport, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*structs.SavedReport, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type reportRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewReportRepository creates a new report repository instance.
func NewReportRepository(db *mongo.Database, logger *logger.Logger) ReportRepository {
	collection := db.Collection("saved_reports")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn(ctx, "failed to create report index", "error", err)
	}

	return &reportRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new saved report.
func (r *reportRepository) Create(ctx context.Context, report *structs.SavedReport) (*structs.SavedReport, error) {
	report.ID = primitive.NewObjectID()
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt

	_, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		r.logger.Error(ctx, "failed to create report", "error", err)
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return report, nil
}

// FindByID retrieves a saved report by ID.
func (r *reportRepository) FindByID(ctx context.Context, id string) (*structs.SavedReport, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var report structs.SavedReport
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find report", "id", id, "error", err)
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

// FindByUser retrieves the user's saved reports, newest first.
func (r *reportRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*structs.SavedReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list reports", "user", userID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*structs.SavedReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

// Update applies $set to a saved report and returns the updated document.
func (r *reportRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*structs.SavedReport, error) {
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
		r.logger.Error(ctx, "failed to update report", "id", id.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to update report: %w", result.Err())
	}

	var updated structs.SavedReport
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated report: %w", err)
	}
	return &updated, nil
}

// Delete deletes a saved report by ID.
func (r *reportRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error(ctx, "failed to delete report", "id", id.Hex(), "error", err)
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
