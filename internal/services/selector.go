package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// scoreEpsilon is the margin under which two candidate scores count as tied
const scoreEpsilon = 1e-9

// Selector picks the next item for a session
type Selector struct {
	bank      repositories.ItemBankRepository
	estimator *Estimator
	cfg       config.EngineConfig
}

func NewSelector(bank repositories.ItemBankRepository, estimator *Estimator, cfg config.EngineConfig) *Selector {
	return &Selector{
		bank:      bank,
		estimator: estimator,
		cfg:       cfg,
	}
}

// SelectNext returns the best unexposed in-scope item, or ErrNoMoreItems.
// session must carry its exposures.
func (s *Selector) SelectNext(ctx context.Context, session *models.Session) (*models.Item, error) {
	exclude := session.ExposedItemIDs()
	if session.CurrentItemID != nil {
		exclude = append(exclude, *session.CurrentItemID)
	}

	candidates, err := s.bank.FetchCandidates(ctx, session.Topics(), exclude)
	if err != nil {
		return nil, wrapNotFound(err, ErrScopeNotFound)
	}

	// Guard the scope invariant even if the bank over-returns
	excluded := make(map[uint]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	inScope := candidates[:0:0]
	for _, c := range candidates {
		if session.InScope(c.Topic) && !excluded[c.ID] {
			inScope = append(inScope, c)
		}
	}
	if len(inScope) == 0 {
		return nil, ErrNoMoreItems
	}

	estimates, err := s.estimator.Snapshot(ctx, session.LearnerID, session.Topics())
	if err != nil {
		return nil, err
	}
	abilities := make(map[string]float64, len(estimates))
	for topic, est := range estimates {
		abilities[topic] = est.Ability
	}

	return ChooseItem(inScope, abilities, topicExposures(session), s.cfg.CoverageWeight), nil
}

// CheckScope fails with a NotFoundError naming every topic in scope that has no
// items. A topic without items would never reach the confidence threshold.
func (s *Selector) CheckScope(ctx context.Context, topics []string) error {
	candidates, err := s.bank.FetchCandidates(ctx, topics, nil)
	if err != nil {
		return wrapNotFound(err, ErrScopeNotFound)
	}

	present := make(map[string]bool, len(topics))
	for _, c := range candidates {
		present[c.Topic] = true
	}
	var missing []string
	for _, topic := range topics {
		if !present[topic] {
			missing = append(missing, topic)
		}
	}
	if len(missing) > 0 {
		return wrapNotFound(apperrors.NewNotFoundError(repositories.ResourceScope, strings.Join(missing, ",")), ErrScopeNotFound)
	}
	return nil
}

// ScoreCandidate is -|difficulty - ability| plus a coverage bonus that shrinks
// as the item's topic is exposed more in this session.
func ScoreCandidate(item *models.Item, ability float64, exposuresInTopic int, coverageWeight float64) float64 {
	return -math.Abs(item.Difficulty-ability) + coverageWeight/(1+float64(exposuresInTopic))
}

// ChooseItem returns the highest-scoring candidate. Scores within scoreEpsilon
// tie and the lowest item ID wins, so the result does not depend on input
// order.
func ChooseItem(candidates []*models.Item, abilities map[string]float64, exposures map[string]int, coverageWeight float64) *models.Item {
	if len(candidates) == 0 {
		return nil
	}

	ordered := append([]*models.Item(nil), candidates...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	best := ordered[0]
	bestScore := ScoreCandidate(best, abilities[best.Topic], exposures[best.Topic], coverageWeight)
	for _, c := range ordered[1:] {
		score := ScoreCandidate(c, abilities[c.Topic], exposures[c.Topic], coverageWeight)
		if score > bestScore+scoreEpsilon {
			best, bestScore = c, score
		}
	}
	return best
}

func topicExposures(session *models.Session) map[string]int {
	counts := make(map[string]int)
	for _, e := range session.Exposures {
		counts[e.Topic]++
	}
	return counts
}
