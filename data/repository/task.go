package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

// TaskFilter narrows task list queries. Owner is always required: a task
// matches when the user created it or is assigned to it.
type TaskFilter struct {
	Owner          primitive.ObjectID
	Category       string
	Completed      *bool
	Priority       string
	IsRecurring    *bool
	DueFrom        *time.Time
	DueTo          *time.Time
	OverdueOnly    bool
	HasAttachments *bool
	HasSubtasks    *bool
	Search         string
	Sort           string
	Fields         []string
	Skip           int64
	Limit          int64
}

// TaskRepository defines the interface for task data operations.
type TaskRepository interface {
	Create(ctx context.Context, task *structs.Task) (*structs.Task, error)
	FindByID(ctx context.Context, id string) (*structs.Task, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*structs.Task, error)
	Find(ctx context.Context, filter *TaskFilter) ([]*structs.Task, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset ...bson.M) (*structs.Task, error)
	Replace(ctx context.Context, task *structs.Task) (*structs.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context, owner primitive.ObjectID) (*structs.TaskStats, error)
}

type taskRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewTaskRepository creates a new task repository instance.
func NewTaskRepository(db *mongo.Database, logger *logger.Logger) TaskRepository {
	collection := db.Collection("tasks")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "due_date", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn(ctx, "failed to create task indexes", "error", err)
	}

	return &taskRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *structs.Task) (*structs.Task, error) {
	task.ID = primitive.NewObjectID()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt

	_, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		r.logger.Error(ctx, "failed to create task", "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Info(ctx, "task created", "id", task.ID.Hex())
	return task, nil
}

// FindByID retrieves a task by ID.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*structs.Task, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var task structs.Task
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error(ctx, "failed to find task", "id", id, "error", err)
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return &task, nil
}

// FindByIDs retrieves tasks by their ids.
func (r *taskRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*structs.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		r.logger.Error(ctx, "failed to find tasks", "error", err)
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*structs.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// buildQuery translates a TaskFilter to a MongoDB query document.
func buildQuery(filter *TaskFilter) bson.M {
	query := bson.M{
		"$or": []bson.M{
			{"created_by": filter.Owner},
			{"assigned_to": filter.Owner},
		},
	}

	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.IsRecurring != nil {
		query["is_recurring"] = *filter.IsRecurring
	}
	if filter.OverdueOnly {
		query["due_date"] = bson.M{"$lt": time.Now()}
		query["completed"] = false
	} else if filter.DueFrom != nil || filter.DueTo != nil {
		due := bson.M{}
		if filter.DueFrom != nil {
			due["$gte"] = *filter.DueFrom
		}
		if filter.DueTo != nil {
			due["$lt"] = *filter.DueTo
		}
		query["due_date"] = due
	}
	if filter.HasAttachments != nil {
		if *filter.HasAttachments {
			query["attachments.0"] = bson.M{"$exists": true}
		} else {
			query["attachments.0"] = bson.M{"$exists": false}
		}
	}
	if filter.HasSubtasks != nil {
		if *filter.HasSubtasks {
			query["subtasks.0"] = bson.M{"$exists": true}
		} else {
			query["subtasks.0"] = bson.M{"$exists": false}
		}
	}
	if filter.Search != "" {
		// Case-insensitive substring match over name and description. The
		// search term is quoted so regex metacharacters match literally.
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$and"] = []bson.M{
			{"$or": []bson.M{
				{"name": pattern},
				{"description": pattern},
			}},
		}
	}

	return query
}

// sortSpec maps the public sort keys to index-friendly sorts.
func sortSpec(sort string) bson.D {
	switch sort {
	case "due_date":
		return bson.D{{Key: "due_date", Value: 1}}
	case "-due_date":
		return bson.D{{Key: "due_date", Value: -1}}
	case "priority":
		return bson.D{{Key: "priority", Value: 1}}
	case "-priority":
		return bson.D{{Key: "priority", Value: -1}}
	case "name":
		return bson.D{{Key: "name", Value: 1}}
	case "-name":
		return bson.D{{Key: "name", Value: -1}}
	case "created_at":
		return bson.D{{Key: "created_at", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// Find retrieves tasks matching the filter plus the total match count.
func (r *taskRepository) Find(ctx context.Context, filter *TaskFilter) ([]*structs.Task, int64, error) {
	query := buildQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		r.logger.Error(ctx, "failed to count tasks", "error", err)
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	opts := options.Find().
		SetSort(sortSpec(filter.Sort)).
		SetSkip(filter.Skip).
		SetLimit(filter.Limit)

	if len(filter.Fields) > 0 {
		projection := bson.M{}
		for _, f := range filter.Fields {
			projection[f] = 1
		}
		opts.SetProjection(projection)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error(ctx, "failed to list tasks", "error", err)
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*structs.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tasks: %w", err)
	}

	return tasks, total, nil
}

// Update applies $set (and optional $unset) to a task and returns the
// updated document.
func (r *taskRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset ...bson.M) (*structs.Task, error) {
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
		r.logger.Error(ctx, "failed to update task", "id", id.Hex(), "error", result.Err())
		return nil, fmt.Errorf("failed to update task: %w", result.Err())
	}

	var updated structs.Task
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated task: %w", err)
	}

	r.logger.Info(ctx, "task updated", "id", id.Hex())
	return &updated, nil
}

// Replace stores the full task document.
func (r *taskRepository) Replace(ctx context.Context, task *structs.Task) (*structs.Task, error) {
	task.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		r.logger.Error(ctx, "failed to replace task", "id", task.ID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to replace task: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return task, nil
}

// Delete deletes a task by ID.
func (r *taskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error(ctx, "failed to delete task", "id", id.Hex(), "error", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	r.logger.Info(ctx, "task deleted", "id", id.Hex())
	return nil
}

// Stats aggregates the user's tasks by status, priority and category.
func (r *taskRepository) Stats(ctx context.Context, owner primitive.ObjectID) (*structs.TaskStats, error) {
	match := bson.M{
		"$or": []bson.M{
			{"created_by": owner},
			{"assigned_to": owner},
		},
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"totals": []bson.M{
				{"$group": bson.M{
					"_id":       nil,
					"total":     bson.M{"$sum": 1},
					"completed": bson.M{"$sum": bson.M{"$cond": []any{"$completed", 1, 0}}},
					"overdue": bson.M{"$sum": bson.M{"$cond": []any{
						bson.M{"$and": []bson.M{
							{"$eq": []any{"$completed", false}},
							{"$lt": []any{"$due_date", time.Now()}},
						}}, 1, 0}}},
				}},
			},
			"by_priority": []bson.M{
				{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}},
			},
			"by_category": []bson.M{
				{"$match": bson.M{"category": bson.M{"$nin": []any{nil, ""}}}},
				{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error(ctx, "failed to aggregate task stats", "error", err)
		return nil, fmt.Errorf("failed to aggregate task stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Totals []struct {
			Total     int64 `bson:"total"`
			Completed int64 `bson:"completed"`
			Overdue   int64 `bson:"overdue"`
		} `bson:"totals"`
		ByPriority []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"by_priority"`
		ByCategory []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"by_category"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode task stats: %w", err)
	}

	stats := &structs.TaskStats{
		ByPriority: make(map[string]int64),
		ByCategory: make(map[string]int64),
	}
	if len(results) == 0 {
		return stats, nil
	}

	if len(results[0].Totals) > 0 {
		t := results[0].Totals[0]
		stats.Total = t.Total
		stats.Completed = t.Completed
		stats.Pending = t.Total - t.Completed
		stats.Overdue = t.Overdue
	}
	for _, p := range results[0].ByPriority {
		stats.ByPriority[p.ID] = p.Count
	}
	for _, c := range results[0].ByCategory {
		stats.ByCategory[c.ID] = c.Count
	}

	return stats, nil
}
