package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
)

type estimateKey struct {
	learnerID string
	topic     string
}

// ProficiencyStore serializes updates per (learner, topic) with a keyed mutex
type ProficiencyStore struct {
	mu        sync.RWMutex
	estimates map[estimateKey]models.ProficiencyEstimate
	locks     *utils.KeyedMutex
}

func NewProficiencyStore() *ProficiencyStore {
	return &ProficiencyStore{
		estimates: map[estimateKey]models.ProficiencyEstimate{},
		locks:     utils.NewKeyedMutex(),
	}
}

func (s *ProficiencyStore) Get(ctx context.Context, learnerID, topic string) (*models.ProficiencyEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	est, ok := s.estimates[estimateKey{learnerID, topic}]
	if !ok {
		return nil, apperrors.NewNotFoundError(repositories.ResourceEstimate, learnerID+"/"+topic)
	}
	return &est, nil
}

func (s *ProficiencyStore) ListByLearner(ctx context.Context, learnerID string) ([]*models.ProficiencyEstimate, error) {
	s.mu.RLock()
	out := make([]*models.ProficiencyEstimate, 0)
	for key, est := range s.estimates {
		if key.learnerID != learnerID {
			continue
		}
		e := est
		out = append(out, &e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out, nil
}

func (s *ProficiencyStore) UpdateAtomic(ctx context.Context, seed *models.ProficiencyEstimate, mutate func(*models.ProficiencyEstimate) error) (*models.ProficiencyEstimate, error) {
	key := estimateKey{seed.LearnerID, seed.Topic}
	unlock := s.locks.Lock(key.learnerID + "\x00" + key.topic)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	current, ok := s.estimates[key]
	s.mu.RUnlock()

	now := time.Now().UTC()
	if !ok {
		current = *seed
		current.CreatedAt = now
	}

	working := current
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.LearnerID, working.Topic = key.learnerID, key.topic
	working.UpdatedAt = now

	s.mu.Lock()
	s.estimates[key] = working
	s.mu.Unlock()

	return &working, nil
}
