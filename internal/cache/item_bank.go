package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const itemKeyPrefix = "engine:items:"

// cachedItem carries the answer key, which Item hides from JSON
type cachedItem struct {
	ID         uint             `json:"id"`
	Topic      string           `json:"topic"`
	Difficulty float64          `json:"difficulty"`
	Payload    datatypes.JSON   `json:"payload"`
	AnswerKey  models.AnswerKey `json:"answer_key"`
	MaxScore   float64          `json:"max_score"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toCached(it *models.Item) cachedItem {
	return cachedItem{
		ID:         it.ID,
		Topic:      it.Topic,
		Difficulty: it.Difficulty,
		Payload:    it.Payload,
		AnswerKey:  it.Key(),
		MaxScore:   it.MaxScore,
		CreatedAt:  it.CreatedAt,
	}
}

func (c cachedItem) toItem() *models.Item {
	return &models.Item{
		ID:         c.ID,
		Topic:      c.Topic,
		Difficulty: c.Difficulty,
		Payload:    c.Payload,
		AnswerKey:  datatypes.NewJSONType(c.AnswerKey),
		MaxScore:   c.MaxScore,
		CreatedAt:  c.CreatedAt,
	}
}

// CachedItemBank caches scope listings and single items in front of the item
// bank. Items are immutable, so entries only expire by TTL or Invalidate.
type CachedItemBank struct {
	inner  repositories.ItemBankRepository
	cache  CacheService
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCachedItemBank(inner repositories.ItemBankRepository, cache CacheService, ttl time.Duration, logger *slog.Logger) *CachedItemBank {
	return &CachedItemBank{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "cached_item_bank"),
	}
}

func (b *CachedItemBank) FetchCandidates(ctx context.Context, topicScope []string, excludeItemIDs []uint) ([]*models.Item, error) {
	all, err := b.scopeItems(ctx, topicScope)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uint]bool, len(excludeItemIDs))
	for _, id := range excludeItemIDs {
		excluded[id] = true
	}

	out := make([]*models.Item, 0, len(all))
	for _, c := range all {
		if excluded[c.ID] {
			continue
		}
		out = append(out, c.toItem())
	}
	return out, nil
}

func (b *CachedItemBank) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	key := fmt.Sprintf("%sid:%d", itemKeyPrefix, id)

	var cached cachedItem
	if err := b.cache.Get(ctx, key, &cached); err == nil {
		return cached.toItem(), nil
	} else if !errors.Is(err, ErrCacheMiss) {
		b.logger.WarnContext(ctx, "Item cache read failed, falling back to store", "item_id", id, "error", err)
	}

	item, err := b.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.cache.Set(ctx, key, toCached(item), b.ttl); err != nil {
		b.logger.WarnContext(ctx, "Item cache write failed", "item_id", id, "error", err)
	}
	return item, nil
}

// Invalidate drops every cached item and scope listing
func (b *CachedItemBank) Invalidate(ctx context.Context) error {
	return b.cache.DeletePattern(ctx, itemKeyPrefix+"*")
}

func (b *CachedItemBank) scopeItems(ctx context.Context, topicScope []string) ([]cachedItem, error) {
	if len(topicScope) == 0 {
		// Let the store produce its own NotFoundError
		if _, err := b.inner.FetchCandidates(ctx, topicScope, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}

	key := scopeKey(topicScope)

	var cached []cachedItem
	if err := b.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		b.logger.WarnContext(ctx, "Scope cache read failed, falling back to store", "key", key, "error", err)
	}

	v, err, _ := b.group.Do(key, func() (interface{}, error) {
		items, err := b.inner.FetchCandidates(ctx, topicScope, nil)
		if err != nil {
			return nil, err
		}
		out := make([]cachedItem, 0, len(items))
		for _, it := range items {
			out = append(out, toCached(it))
		}
		if err := b.cache.Set(ctx, key, out, b.ttl); err != nil {
			b.logger.WarnContext(ctx, "Scope cache write failed", "key", key, "error", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]cachedItem), nil
}

func scopeKey(topicScope []string) string {
	topics := append([]string(nil), topicScope...)
	sort.Strings(topics)

	unique := topics[:0]
	for i, t := range topics {
		if i > 0 && t == topics[i-1] {
			continue
		}
		unique = append(unique, t)
	}
	return itemKeyPrefix + "scope:" + strings.Join(unique, ",")
}

var _ repositories.ItemBankRepository = (*CachedItemBank)(nil)

type cachedRepository struct {
	repositories.Repository
	bank *CachedItemBank
}

func (r *cachedRepository) ItemBank() repositories.ItemBankRepository { return r.bank }

// WrapRepository serves repo's item bank reads through bank
func WrapRepository(repo repositories.Repository, bank *CachedItemBank) repositories.Repository {
	return &cachedRepository{Repository: repo, bank: bank}
}
