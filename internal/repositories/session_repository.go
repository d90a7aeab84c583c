package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// SessionRepository persists sessions and their append-only exposure log
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByIDWithExposures(ctx context.Context, id string) (*models.Session, error) // exposures ordered by sequence
	Update(ctx context.Context, session *models.Session) error

	// AppendExposure stores the record and the session's updated running
	// totals in one unit of work.
	AppendExposure(ctx context.Context, session *models.Session, record *models.ExposureRecord) error
	ListExposures(ctx context.Context, sessionID string) ([]*models.ExposureRecord, error)

	List(ctx context.Context, filters SessionFilters) ([]*models.Session, int64, error)
}
