package identity

import (
	"context"
	"sync"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// StaticDirectory is an in-process learner directory. With allowUnknown set,
// any ID not registered resolves to an active student, which suits local runs
// where no identity provider is wired.
type StaticDirectory struct {
	mu           sync.RWMutex
	learners     map[string]models.Learner
	allowUnknown bool
}

func NewStaticDirectory(allowUnknown bool, learners ...models.Learner) *StaticDirectory {
	d := &StaticDirectory{
		learners:     make(map[string]models.Learner, len(learners)),
		allowUnknown: allowUnknown,
	}
	for _, l := range learners {
		d.learners[l.ID] = l
	}
	return d
}

func (d *StaticDirectory) GetLearner(ctx context.Context, id string) (*models.Learner, error) {
	d.mu.RLock()
	learner, ok := d.learners[id]
	d.mu.RUnlock()

	if ok {
		return &learner, nil
	}
	if d.allowUnknown && id != "" {
		return &models.Learner{ID: id, DisplayName: id, Role: models.RoleStudent, IsActive: true}, nil
	}
	return nil, apperrors.NewNotFoundError(repositories.ResourceLearner, id)
}

// Put registers or replaces a learner
func (d *StaticDirectory) Put(learner models.Learner) {
	d.mu.Lock()
	d.learners[learner.ID] = learner
	d.mu.Unlock()
}

var _ repositories.LearnerDirectory = (*StaticDirectory)(nil)
