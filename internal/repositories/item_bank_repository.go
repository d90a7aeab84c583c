package repositories

import (
	"context"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// ItemBankRepository is read access to the external item bank
type ItemBankRepository interface {
	// FetchCandidates returns every item whose topic is in topicScope and whose
	// ID is not excluded. Order is unspecified. Returns a NotFoundError when the
	// scope is empty or no item exists for any topic in it.
	FetchCandidates(ctx context.Context, topicScope []string, excludeItemIDs []uint) ([]*models.Item, error)
	GetByID(ctx context.Context, id uint) (*models.Item, error)
}

// ItemImporter loads items into a bank owned by this deployment
type ItemImporter interface {
	ImportItems(ctx context.Context, items []*models.Item) error
}
