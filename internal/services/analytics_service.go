package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// AnalyticsService keeps per-learner assessment aggregates
type AnalyticsService interface {
	RecordSessionStarted(ctx context.Context, session *models.Session) error
	RecordSessionEnded(ctx context.Context, summary *SessionSummary) error

	GetLearnerAnalytics(ctx context.Context, learnerID string) (*LearnerAnalyticsView, error)
}

type analyticsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger,
	}
}

// ===== DATA STRUCTURES =====

type LearnerAnalyticsView struct {
	*models.LearnerAnalytics
	Accuracy  float64                       `json:"overall_accuracy"`
	Estimates []*models.ProficiencyEstimate `json:"estimates"`
}

// ===== OPERATIONS =====

func (s *analyticsService) RecordSessionStarted(ctx context.Context, session *models.Session) error {
	_, err := s.repo.Analytics().Update(ctx, session.LearnerID, func(a *models.LearnerAnalytics) error {
		a.SessionsStarted++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update learner analytics: %w", err)
	}
	return nil
}

func (s *analyticsService) RecordSessionEnded(ctx context.Context, summary *SessionSummary) error {
	s.logger.Debug("Recording session outcome",
		"session_id", summary.SessionID,
		"learner_id", summary.LearnerID,
		"state", summary.State)

	_, err := s.repo.Analytics().Update(ctx, summary.LearnerID, func(a *models.LearnerAnalytics) error {
		ApplySessionOutcome(a, summary)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update learner analytics: %w", err)
	}
	return nil
}

// ApplySessionOutcome folds one finished session into the aggregates.
// Accuracy averages only count completed sessions.
func ApplySessionOutcome(a *models.LearnerAnalytics, summary *SessionSummary) {
	switch summary.State {
	case models.SessionCompleted:
		a.SessionsCompleted++
		n := float64(a.SessionsCompleted)
		a.AverageAccuracy = (a.AverageAccuracy*(n-1) + summary.Accuracy) / n
		if summary.Accuracy > a.BestAccuracy {
			a.BestAccuracy = summary.Accuracy
		}
	case models.SessionAborted:
		a.SessionsAborted++
	default:
		return
	}

	a.ItemsAnswered += summary.ExposureCount
	a.CorrectAnswers += summary.CorrectCount
	a.TotalTimeSeconds += summary.TimeSpentSeconds
	a.ProficiencyLevel = models.LevelForAccuracy(a.AverageAccuracy)

	if summary.CompletedAt != nil {
		at := *summary.CompletedAt
		a.LastSessionAt = &at
	}
}

func (s *analyticsService) GetLearnerAnalytics(ctx context.Context, learnerID string) (*LearnerAnalyticsView, error) {
	if learnerID == "" {
		return nil, NewValidationError("learner_id", "is required", learnerID)
	}

	analytics, err := s.repo.Analytics().Get(ctx, learnerID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get learner analytics: %w", err)
		}
		// No history yet
		analytics = &models.LearnerAnalytics{
			LearnerID:        learnerID,
			ProficiencyLevel: models.ProficiencyBeginner,
		}
	}

	estimates, err := s.repo.Proficiency().ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}

	return &LearnerAnalyticsView{
		LearnerAnalytics: analytics,
		Accuracy:         analytics.OverallAccuracy(),
		Estimates:        estimates,
	}, nil
}
