package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

// AnalyticsService computes dashboard analytics and manages saved reports.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	reports   repository.ReportRepository
	logger    *logger.Logger
}

// NewAnalyticsService creates a new analytics service instance.
func NewAnalyticsService(d *data.Data, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		analytics: d.AnalyticsRepo,
		reports:   d.ReportRepo,
		logger:    log,
	}
}

// Dashboard composes the standard dashboard widgets for the period.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID string, q *structs.AnalyticsQuery) (*structs.DashboardAnalytics, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	start, end, period := q.PeriodRange(time.Now())

	completion, err := s.analytics.CompletionStats(ctx, user, start, end)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.analytics.CategoryStats(ctx, user, start, end)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.analytics.PriorityStats(ctx, user, start, end)
	if err != nil {
		return nil, err
	}
	productivity, err := s.analytics.ProductivityStats(ctx, user, start, end)
	if err != nil {
		return nil, err
	}

	if byCategory == nil {
		byCategory = []*structs.CategoryStat{}
	}
	if byPriority == nil {
		byPriority = []*structs.PriorityStat{}
	}

	return &structs.DashboardAnalytics{
		Completion:   completion,
		ByCategory:   byCategory,
		ByPriority:   byPriority,
		Productivity: productivity,
		Period:       period,
		StartDate:    start,
		EndDate:      end,
		GeneratedAt:  time.Now(),
	}, nil
}

// Completion returns completion stats for the period.
func (s *AnalyticsService) Completion(ctx context.Context, userID string, q *structs.AnalyticsQuery) (*structs.CompletionStats, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	start, end, _ := q.PeriodRange(time.Now())
	return s.analytics.CompletionStats(ctx, user, start, end)
}

// Categories returns per-category stats for the period.
func (s *AnalyticsService) Categories(ctx context.Context, userID string, q *structs.AnalyticsQuery) ([]*structs.CategoryStat, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	start, end, _ := q.PeriodRange(time.Now())
	stats, err := s.analytics.CategoryStats(ctx, user, start, end)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []*structs.CategoryStat{}
	}
	return stats, nil
}

// Priorities returns per-priority stats for the period.
func (s *AnalyticsService) Priorities(ctx context.Context, userID string, q *structs.AnalyticsQuery) ([]*structs.PriorityStat, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	start, end, _ := q.PeriodRange(time.Now())
	stats, err := s.analytics.PriorityStats(ctx, user, start, end)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []*structs.PriorityStat{}
	}
	return stats, nil
}

// Productivity returns throughput stats for the period.
func (s *AnalyticsService) Productivity(ctx context.Context, userID string, q *structs.AnalyticsQuery) (*structs.ProductivityStats, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	start, end, _ := q.PeriodRange(time.Now())
	return s.analytics.ProductivityStats(ctx, user, start, end)
}

// SaveReport stores a named analytics configuration.
func (s *AnalyticsService) SaveReport(ctx context.Context, userID string, body *structs.SaveReportBody) (*structs.SavedReport, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	return s.reports.Create(ctx, &structs.SavedReport{
		User:        user,
		Name:        body.Name,
		Description: body.Description,
		Period:      body.Period,
		Filters:     body.Filters,
	})
}

// Reports returns the user's saved reports.
func (s *AnalyticsService) Reports(ctx context.Context, userID string) ([]*structs.SavedReport, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.FindByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []*structs.SavedReport{}
	}
	return reports, nil
}

// loadReport fetches a report and checks ownership.
func (s *AnalyticsService) loadReport(ctx context.Context, user primitive.ObjectID, reportID string) (*structs.SavedReport, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, notFoundf("no report with id %s", reportID)
		}
		return nil, err
	}
	if report.User != user {
		return nil, forbiddenf("you do not have access to this report")
	}
	return report, nil
}

// GetReport returns one saved report.
func (s *AnalyticsService) GetReport(ctx context.Context, userID, reportID string) (*structs.SavedReport, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	return s.loadReport(ctx, user, reportID)
}

// RunReport executes a saved report's period against the dashboard.
func (s *AnalyticsService) RunReport(ctx context.Context, userID, reportID string) (*structs.DashboardAnalytics, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	report, err := s.loadReport(ctx, user, reportID)
	if err != nil {
		return nil, err
	}
	return s.Dashboard(ctx, userID, &structs.AnalyticsQuery{Period: report.Period})
}

// UpdateReport updates a saved report.
func (s *AnalyticsService) UpdateReport(ctx context.Context, userID, reportID string, body *structs.SaveReportBody) (*structs.SavedReport, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	report, err := s.loadReport(ctx, user, reportID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":        body.Name,
		"description": body.Description,
		"period":      body.Period,
		"filters":     body.Filters,
	}
	updated, err := s.reports.Update(ctx, report.ID, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("no report with id %s", reportID)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteReport deletes a saved report.
func (s *AnalyticsService) DeleteReport(ctx context.Context, userID, reportID string) error {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return err
	}
	report, err := s.loadReport(ctx, user, reportID)
	if err != nil {
		return err
	}

	if err := s.reports.Delete(ctx, report.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no report with id %s", reportID)
		}
		return err
	}
	return nil
}
