package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// ItemBank is an in-memory item bank keyed by item ID
type ItemBank struct {
	mu    sync.RWMutex
	items map[uint]models.Item
}

func NewItemBank(items ...*models.Item) *ItemBank {
	b := &ItemBank{items: map[uint]models.Item{}}
	for _, it := range items {
		b.items[it.ID] = *it
	}
	return b
}

func (b *ItemBank) FetchCandidates(ctx context.Context, topicScope []string, excludeItemIDs []uint) ([]*models.Item, error) {
	if len(topicScope) == 0 {
		return nil, apperrors.NewNotFoundError(repositories.ResourceScope, "[]")
	}

	inScope := make(map[string]bool, len(topicScope))
	for _, t := range topicScope {
		inScope[t] = true
	}
	excluded := make(map[uint]bool, len(excludeItemIDs))
	for _, id := range excludeItemIDs {
		excluded[id] = true
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	known := false
	out := make([]*models.Item, 0)
	for id, it := range b.items {
		if !inScope[it.Topic] {
			continue
		}
		known = true
		if excluded[id] {
			continue
		}
		item := it
		out = append(out, &item)
	}
	if !known {
		return nil, apperrors.NewNotFoundError(repositories.ResourceScope, strings.Join(topicScope, ","))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *ItemBank) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	it, ok := b.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(repositories.ResourceItem, id)
	}
	return &it, nil
}

// ImportItems adds new items. Repeating a stored item unchanged is a no-op;
// changing one fails the batch with ErrItemChanged and stores nothing.
func (b *ItemBank) ImportItems(ctx context.Context, items []*models.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fresh := make(map[uint]models.Item, len(items))
	for _, it := range items {
		existing, ok := b.items[it.ID]
		if !ok {
			existing, ok = fresh[it.ID]
		}
		if ok {
			if !existing.SameContent(it) {
				return fmt.Errorf("%w: item %d", repositories.ErrItemChanged, it.ID)
			}
			continue
		}
		item := *it
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		fresh[item.ID] = item
	}
	for id, item := range fresh {
		b.items[id] = item
	}
	return nil
}
