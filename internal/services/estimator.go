package services

import (
	"context"
	"math"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// Sigmoid is the logistic function, written to avoid overflow for large |x|
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// ApplyObservation performs one estimator step in place. observed is the
// graded fraction in [0, 1].
//
//	p        = sigmoid(ability - difficulty)
//	ability += (observed - p) / (1 + exposureCount)
//	variance = max(floor, variance * decay)
func ApplyObservation(est *models.ProficiencyEstimate, difficulty, observed float64, cfg config.EngineConfig) {
	p := Sigmoid(est.Ability - difficulty)
	learningRate := 1 / (1 + float64(est.ExposureCount))

	est.Ability += learningRate * (observed - p)
	est.Variance = math.Max(cfg.VarianceFloor, est.Variance*cfg.VarianceDecay)
	est.ExposureCount++
}

// Estimator maintains per-(learner, topic) ability estimates
type Estimator struct {
	repo repositories.ProficiencyRepository
	cfg  config.EngineConfig
}

func NewEstimator(repo repositories.ProficiencyRepository, cfg config.EngineConfig) *Estimator {
	return &Estimator{repo: repo, cfg: cfg}
}

// ColdStart is the estimate used before a learner's first exposure to a topic
func (e *Estimator) ColdStart(learnerID, topic string) *models.ProficiencyEstimate {
	return &models.ProficiencyEstimate{
		LearnerID: learnerID,
		Topic:     topic,
		Ability:   0,
		Variance:  e.cfg.InitialVariance,
	}
}

// GetEstimate returns the stored estimate or the cold-start default
func (e *Estimator) GetEstimate(ctx context.Context, learnerID, topic string) (*models.ProficiencyEstimate, error) {
	est, err := e.repo.Get(ctx, learnerID, topic)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return e.ColdStart(learnerID, topic), nil
		}
		return nil, err
	}
	return est, nil
}

// Snapshot returns the current estimate for every topic, cold-starting the
// missing ones.
func (e *Estimator) Snapshot(ctx context.Context, learnerID string, topics []string) (map[string]*models.ProficiencyEstimate, error) {
	stored, err := e.repo.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	byTopic := make(map[string]*models.ProficiencyEstimate, len(stored))
	for _, est := range stored {
		byTopic[est.Topic] = est
	}

	out := make(map[string]*models.ProficiencyEstimate, len(topics))
	for _, t := range topics {
		if est, ok := byTopic[t]; ok {
			out[t] = est
		} else {
			out[t] = e.ColdStart(learnerID, t)
		}
	}
	return out, nil
}

// Observe folds a verdict into the learner's estimate for topic as one atomic
// read-modify-write.
func (e *Estimator) Observe(ctx context.Context, learnerID, topic string, difficulty float64, verdict *Verdict) (*models.ProficiencyEstimate, error) {
	observed := verdict.Observed()
	return e.repo.UpdateAtomic(ctx, e.ColdStart(learnerID, topic), func(est *models.ProficiencyEstimate) error {
		ApplyObservation(est, difficulty, observed, e.cfg)
		return nil
	})
}
