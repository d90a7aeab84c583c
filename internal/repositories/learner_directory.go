package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// LearnerDirectory is read-only access to the identity provider. The engine is
// not the owner of user data.
type LearnerDirectory interface {
	GetLearner(ctx context.Context, id string) (*models.Learner, error)
}
