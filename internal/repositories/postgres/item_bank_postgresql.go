package postgres

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemBankPostgreSQL struct {
	db *gorm.DB
}

func NewItemBankPostgreSQL(db *gorm.DB) *ItemBankPostgreSQL {
	return &ItemBankPostgreSQL{db: db}
}

func (r *ItemBankPostgreSQL) FetchCandidates(ctx context.Context, topicScope []string, excludeItemIDs []uint) ([]*models.Item, error) {
	if len(topicScope) == 0 {
		return nil, apperrors.NewNotFoundError(repositories.ResourceScope, "[]")
	}

	var items []*models.Item
	query := r.db.WithContext(ctx).Where("topic IN ?", topicScope)
	if len(excludeItemIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeItemIDs)
	}
	if err := query.Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(items) > 0 {
		return items, nil
	}

	// Nothing left: tell an exhausted scope apart from an unknown one
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("topic IN ?", topicScope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count scope items: %w", err)
	}
	if total == 0 {
		return nil, apperrors.NewNotFoundError(repositories.ResourceScope, strings.Join(topicScope, ","))
	}
	return items, nil
}

func (r *ItemBankPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, repositories.ResourceItem, id)
	}
	return &item, nil
}

// ImportItems inserts new items in one transaction. Items already stored
// must be repeated unchanged; any difference fails the whole batch with
// ErrItemChanged.
func (r *ItemBankPostgreSQL) ImportItems(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}

		var stored []*models.Item
		if err := tx.Where("id IN ?", ids).Find(&stored).Error; err != nil {
			return fmt.Errorf("load existing items: %w", err)
		}
		known := make(map[uint]*models.Item, len(stored))
		for _, it := range stored {
			known[it.ID] = it
		}

		fresh := make([]*models.Item, 0, len(items))
		for _, it := range items {
			if existing, ok := known[it.ID]; ok {
				if !existing.SameContent(it) {
					return fmt.Errorf("%w: item %d", repositories.ErrItemChanged, it.ID)
				}
				continue
			}
			known[it.ID] = it
			fresh = append(fresh, it)
		}
		if len(fresh) == 0 {
			return nil
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(fresh, 100).Error
	})
}
