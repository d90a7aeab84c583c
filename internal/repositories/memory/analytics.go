package memory

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

type AnalyticsStore struct {
	mu   sync.Mutex
	rows map[string]models.LearnerAnalytics
}

func NewAnalyticsStore() *AnalyticsStore {
	return &AnalyticsStore{rows: map[string]models.LearnerAnalytics{}}
}

func (s *AnalyticsStore) Get(ctx context.Context, learnerID string) (*models.LearnerAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[learnerID]
	if !ok {
		return nil, apperrors.NewNotFoundError(repositories.ResourceAnalytic, learnerID)
	}
	return copyAnalytics(row), nil
}

func (s *AnalyticsStore) Update(ctx context.Context, learnerID string, fn func(*models.LearnerAnalytics) error) (*models.LearnerAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	row, ok := s.rows[learnerID]
	if !ok {
		row = models.LearnerAnalytics{
			LearnerID:        learnerID,
			ProficiencyLevel: models.ProficiencyBeginner,
			CreatedAt:        now,
		}
	}

	working := copyAnalytics(row)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.LearnerID = learnerID
	working.UpdatedAt = now
	s.rows[learnerID] = *working

	return copyAnalytics(*working), nil
}

func copyAnalytics(row models.LearnerAnalytics) *models.LearnerAnalytics {
	out := row
	if row.LastSessionAt != nil {
		t := *row.LastSessionAt
		out.LastSessionAt = &t
	}
	return &out
}
