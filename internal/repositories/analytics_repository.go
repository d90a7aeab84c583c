package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// AnalyticsRepository stores per-learner aggregates
type AnalyticsRepository interface {
	Get(ctx context.Context, learnerID string) (*models.LearnerAnalytics, error)

	// Update applies fn under a per-learner lock, creating the row if missing
	Update(ctx context.Context, learnerID string, fn func(*models.LearnerAnalytics) error) (*models.LearnerAnalytics, error)
}
