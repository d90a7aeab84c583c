package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// ProficiencyRepository stores one estimate per (learner, topic)
type ProficiencyRepository interface {
	Get(ctx context.Context, learnerID, topic string) (*models.ProficiencyEstimate, error)
	ListByLearner(ctx context.Context, learnerID string) ([]*models.ProficiencyEstimate, error)

	// UpdateAtomic runs mutate as a serialized read-modify-write on the key of
	// seed. When no estimate exists yet, mutate receives a copy of seed.
	UpdateAtomic(ctx context.Context, seed *models.ProficiencyEstimate, mutate func(*models.ProficiencyEstimate) error) (*models.ProficiencyEstimate, error)
}
