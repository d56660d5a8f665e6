// Package data manages MongoDB and Redis connections for the API.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/logger"
)

// Data encapsulates all data layer dependencies.
type Data struct {
	client *mongo.Client
	db     *mongo.Database
	rc     *redis.Client

	UserRepo         repository.UserRepository
	TaskRepo         repository.TaskRepository
	CommentRepo      repository.CommentRepository
	ReactionRepo     repository.ReactionRepository
	TeamRepo         repository.TeamRepository
	SharedListRepo   repository.SharedListRepository
	ActivityRepo     repository.ActivityRepository
	NotificationRepo repository.NotificationRepository
	PreferenceRepo   repository.PreferenceRepository
	ReportRepo       repository.ReportRepository
	AnalyticsRepo    repository.AnalyticsRepository
}

// New creates a new Data instance with MongoDB (and optional Redis)
// connections.
func New(cfg *config.Data, log *logger.Logger) (*Data, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info(ctx, "Connected to MongoDB successfully", "database", cfg.Mongo.Database)

	db := client.Database(cfg.Mongo.Database)

	d := &Data{
		client:           client,
		db:               db,
		UserRepo:         repository.NewUserRepository(db, log),
		TaskRepo:         repository.NewTaskRepository(db, log),
		CommentRepo:      repository.NewCommentRepository(db, log),
		ReactionRepo:     repository.NewReactionRepository(db, log),
		TeamRepo:         repository.NewTeamRepository(db, log),
		SharedListRepo:   repository.NewSharedListRepository(db, log),
		ActivityRepo:     repository.NewActivityRepository(db, log),
		NotificationRepo: repository.NewNotificationRepository(db, log),
		PreferenceRepo:   repository.NewPreferenceRepository(db, log),
		ReportRepo:       repository.NewReportRepository(db, log),
		AnalyticsRepo:    repository.NewAnalyticsRepository(db, log),
	}

	// Redis is optional; without it realtime events stay in-process.
	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
		log.Info(ctx, "Connected to Redis successfully", "addr", cfg.Redis.Addr)
		d.rc = rc
	}

	return d, nil
}

// Close closes the data layer connections.
func (d *Data) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if d.rc != nil {
		_ = d.rc.Close()
	}
	return d.client.Disconnect(ctx)
}

// DB returns the MongoDB database instance.
func (d *Data) DB() *mongo.Database {
	return d.db
}

// Redis returns the Redis client, or nil when Redis is not configured.
func (d *Data) Redis() *redis.Client {
	return d.rc
}
