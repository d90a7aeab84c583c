package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// ===== SESSION FLOW HELPERS =====

func sessionLockKey(sessionID string) string {
	return "engine:lock:session:" + sessionID
}

// uniqueTopics drops repeated topics, keeping first-seen order
func uniqueTopics(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// checkAnswerable verifies the session accepts a response for itemID
func (s *sessionService) checkAnswerable(session *models.Session, itemID uint) error {
	if session.State != models.SessionInProgress {
		invalid := apperrors.NewInvalidStateError(session.ID, string(session.State), "submit to", "")
		if session.State.IsTerminal() {
			return fmt.Errorf("%w: %w", ErrSessionTerminal, invalid)
		}
		return invalid
	}
	if session.CurrentItemID == nil {
		return fmt.Errorf("%w: %w", ErrNoItemPresented,
			apperrors.NewInvalidStateError(session.ID, string(session.State), "submit to", "no item is awaiting a response"))
	}
	if *session.CurrentItemID != itemID {
		return fmt.Errorf("%w: %w", ErrItemNotPresented,
			apperrors.NewInvalidStateError(session.ID, string(session.State), "submit to",
				fmt.Sprintf("item %d is not the presented item", itemID)))
	}
	return nil
}

func applyVerdict(session *models.Session, verdict *Verdict) {
	session.ExposureCount++
	if verdict.IsCorrect {
		session.CorrectCount++
	}
	session.TotalScore += verdict.Score
	session.MaxScore += verdict.MaxScore
}

// advance evaluates the stopping rule. It returns a termination reason when
// the session should end, otherwise it presents and persists the next item.
func (s *sessionService) advance(ctx context.Context, session *models.Session) (*models.Item, models.TerminationReason, error) {
	if session.ExposureCount >= s.cfg.MaxExposures {
		return nil, models.TerminationMaxExposures, nil
	}

	if session.ExposureCount >= s.cfg.MinExposures {
		confident, err := s.confidenceReached(ctx, session)
		if err != nil {
			return nil, "", err
		}
		if confident {
			return nil, models.TerminationConfidenceReached, nil
		}
	}

	next, err := s.selector.SelectNext(ctx, session)
	if err != nil {
		if errors.Is(err, ErrNoMoreItems) {
			return nil, models.TerminationNoMoreItems, nil
		}
		return nil, "", fmt.Errorf("failed to select next item: %w", err)
	}

	session.CurrentItemID = &next.ID
	if err := s.repo.Session().Update(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to present next item: %w", err)
	}
	return next, "", nil
}

// confidenceReached reports whether every topic in scope has its variance
// under the configured threshold.
func (s *sessionService) confidenceReached(ctx context.Context, session *models.Session) (bool, error) {
	estimates, err := s.estimator.Snapshot(ctx, session.LearnerID, session.Topics())
	if err != nil {
		return false, fmt.Errorf("failed to load estimates: %w", err)
	}
	for _, est := range estimates {
		if est.Variance >= s.cfg.ConfidenceThreshold {
			return false, nil
		}
	}
	return len(estimates) > 0, nil
}

func (s *sessionService) complete(ctx context.Context, session *models.Session, reason models.TerminationReason) (*SessionSummary, error) {
	from := session.State
	completedAt := s.now()
	session.State = models.SessionCompleted
	session.TerminationReason = &reason
	session.CompletedAt = &completedAt
	session.CurrentItemID = nil

	if err := s.repo.Session().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	s.opLogger.LogTransition(ctx, session.ID, session.LearnerID, string(from), string(session.State), string(reason))

	summary, err := s.buildSummary(ctx, session)
	if err != nil {
		return nil, err
	}

	s.events.NotifySessionCompleted(ctx, summary)
	s.recordEnded(ctx, summary)
	return summary, nil
}

// recordEnded folds a finished session into learner analytics. Failures are
// logged and swallowed.
func (s *sessionService) recordEnded(ctx context.Context, summary *SessionSummary) {
	if err := s.analytics.RecordSessionEnded(ctx, summary); err != nil {
		s.logger.Warn("Failed to update learner analytics",
			"session_id", summary.SessionID,
			"learner_id", summary.LearnerID,
			"error", err)
	}
}

func (s *sessionService) progress(session *models.Session) float64 {
	if s.cfg.MaxExposures <= 0 {
		return 0
	}
	return math.Min(100, float64(session.ExposureCount)/float64(s.cfg.MaxExposures)*100)
}

// ===== SUMMARY =====

// buildSummary aggregates the session's exposures per topic. session must
// carry its exposures.
func (s *sessionService) buildSummary(ctx context.Context, session *models.Session) (*SessionSummary, error) {
	estimates, err := s.estimator.Snapshot(ctx, session.LearnerID, session.Topics())
	if err != nil {
		return nil, fmt.Errorf("failed to load estimates: %w", err)
	}

	summary := &SessionSummary{
		SessionID:         session.ID,
		LearnerID:         session.LearnerID,
		State:             session.State,
		TerminationReason: session.TerminationReason,
		ExposureCount:     session.ExposureCount,
		CorrectCount:      session.CorrectCount,
		TotalScore:        session.TotalScore,
		MaxScore:          session.MaxScore,
		StartedAt:         session.StartedAt,
		CompletedAt:       session.CompletedAt,
	}

	byTopic := make(map[string]*TopicBreakdown, len(session.TopicScope))
	for _, topic := range session.Topics() {
		est := estimates[topic]
		byTopic[topic] = &TopicBreakdown{
			Topic:    topic,
			Ability:  est.Ability,
			Variance: est.Variance,
		}
	}

	for _, e := range session.Exposures {
		summary.TimeSpentSeconds += e.ResponseTimeSeconds
		tb, ok := byTopic[e.Topic]
		if !ok {
			continue
		}
		tb.Exposures++
		if e.IsCorrect {
			tb.Correct++
		}
		tb.Score += e.Score
		tb.MaxScore += e.MaxScore
	}

	var weighted, weights, plain float64
	for _, topic := range session.Topics() {
		tb := byTopic[topic]
		if tb.Exposures > 0 {
			tb.Accuracy = float64(tb.Correct) / float64(tb.Exposures) * 100
		}
		weighted += tb.Ability * float64(tb.Exposures)
		weights += float64(tb.Exposures)
		plain += tb.Ability
		summary.Topics = append(summary.Topics, *tb)
	}

	switch {
	case weights > 0:
		summary.FinalAbility = weighted / weights
	case len(summary.Topics) > 0:
		summary.FinalAbility = plain / float64(len(summary.Topics))
	}

	if summary.ExposureCount > 0 {
		summary.Accuracy = float64(summary.CorrectCount) / float64(summary.ExposureCount) * 100
	}
	summary.ProficiencyLevel = models.LevelForAccuracy(summary.Accuracy)

	return summary, nil
}
