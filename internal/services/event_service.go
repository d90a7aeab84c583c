package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// AssessmentEventService publishes session lifecycle events. Delivery is best
// effort: the session flow never fails because a publish failed.
type AssessmentEventService interface {
	NotifySessionStarted(ctx context.Context, session *models.Session) error
	NotifyItemGraded(ctx context.Context, session *models.Session, record *models.ExposureRecord, estimate *models.ProficiencyEstimate) error
	NotifySessionCompleted(ctx context.Context, summary *SessionSummary) error
	NotifySessionAborted(ctx context.Context, session *models.Session) error
}

type assessmentEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewAssessmentEventService(eventPublisher events.EventPublisher, logger *slog.Logger) AssessmentEventService {
	return &assessmentEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *assessmentEventService) NotifySessionStarted(ctx context.Context, session *models.Session) error {
	s.logger.Debug("Publishing session started event", "session_id", session.ID)

	data := events.SessionStartedEvent{
		TopicScope: session.Topics(),
		StartedAt:  session.StartedAt,
	}
	if session.CurrentItemID != nil {
		data.FirstItemID = *session.CurrentItemID
	}

	return s.publish(ctx, events.NewEvent(events.EventSessionStarted, session.ID, session.LearnerID, data))
}

func (s *assessmentEventService) NotifyItemGraded(ctx context.Context, session *models.Session, record *models.ExposureRecord, estimate *models.ProficiencyEstimate) error {
	s.logger.Debug("Publishing item graded event",
		"session_id", session.ID,
		"item_id", record.ItemID)

	data := events.ItemGradedEvent{
		ItemID:        record.ItemID,
		Topic:         record.Topic,
		Sequence:      record.Sequence,
		IsCorrect:     record.IsCorrect,
		Score:         record.Score,
		MaxScore:      record.MaxScore,
		AbilityBefore: record.AbilityBefore,
		AbilityAfter:  record.AbilityAfter,
	}
	if estimate != nil {
		data.AbilityAfter = estimate.Ability
		data.Variance = estimate.Variance
	}

	return s.publish(ctx, events.NewEvent(events.EventSessionItemGraded, session.ID, session.LearnerID, data))
}

func (s *assessmentEventService) NotifySessionCompleted(ctx context.Context, summary *SessionSummary) error {
	s.logger.Debug("Publishing session completed event", "session_id", summary.SessionID)

	data := events.SessionCompletedEvent{
		ExposureCount: summary.ExposureCount,
		CorrectCount:  summary.CorrectCount,
		TotalScore:    summary.TotalScore,
		MaxScore:      summary.MaxScore,
		FinalAbility:  summary.FinalAbility,
		CompletedAt:   time.Now().UTC(),
	}
	if summary.TerminationReason != nil {
		data.Reason = *summary.TerminationReason
	}
	if summary.CompletedAt != nil {
		data.CompletedAt = *summary.CompletedAt
	}

	return s.publish(ctx, events.NewEvent(events.EventSessionCompleted, summary.SessionID, summary.LearnerID, data))
}

func (s *assessmentEventService) NotifySessionAborted(ctx context.Context, session *models.Session) error {
	s.logger.Debug("Publishing session aborted event", "session_id", session.ID)

	data := events.SessionAbortedEvent{
		ExposureCount: session.ExposureCount,
		AbortedAt:     time.Now().UTC(),
	}
	if session.CompletedAt != nil {
		data.AbortedAt = *session.CompletedAt
	}

	return s.publish(ctx, events.NewEvent(events.EventSessionAborted, session.ID, session.LearnerID, data))
}

func (s *assessmentEventService) publish(ctx context.Context, event *events.AssessmentEvent) error {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish assessment event",
			"event_type", event.Type,
			"session_id", event.SessionID,
			"error", err)
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}
