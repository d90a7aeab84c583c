package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, event *events.AssessmentEvent) error {
	return errors.New("broker unavailable")
}

func (failingPublisher) Close() error { return nil }

func TestAssessmentEventService_ItemGraded(t *testing.T) {
	publisher := events.NewMockEventPublisher(discardLogger())
	svc := NewAssessmentEventService(publisher, discardLogger())

	session := &models.Session{ID: "s-1", LearnerID: "learner-1", TopicScope: []string{"algebra"}}
	record := &models.ExposureRecord{ItemID: 7, Topic: "algebra", Sequence: 1, IsCorrect: true, Score: 1, MaxScore: 1, AbilityAfter: 0.5}
	estimate := &models.ProficiencyEstimate{Ability: 0.5, Variance: 0.85}

	require.NoError(t, svc.NotifyItemGraded(context.Background(), session, record, estimate))

	published := publisher.EventsOfType(events.EventSessionItemGraded)
	require.Len(t, published, 1)
	assert.Equal(t, "s-1", published[0].SessionID)
	assert.Equal(t, "learner-1", published[0].LearnerID)

	data, ok := published[0].Data.(events.ItemGradedEvent)
	require.True(t, ok)
	assert.Equal(t, uint(7), data.ItemID)
	assert.Equal(t, 0.85, data.Variance)
}

func TestAssessmentEventService_Completed(t *testing.T) {
	publisher := events.NewMockEventPublisher(discardLogger())
	svc := NewAssessmentEventService(publisher, discardLogger())

	reason := models.TerminationMaxExposures
	completedAt := time.Now().UTC()
	require.NoError(t, svc.NotifySessionCompleted(context.Background(), &SessionSummary{
		SessionID:         "s-1",
		LearnerID:         "learner-1",
		TerminationReason: &reason,
		ExposureCount:     20,
		CompletedAt:       &completedAt,
	}))

	published := publisher.EventsOfType(events.EventSessionCompleted)
	require.Len(t, published, 1)
	data := published[0].Data.(events.SessionCompletedEvent)
	assert.Equal(t, reason, data.Reason)
	assert.Equal(t, completedAt, data.CompletedAt)
}

func TestAssessmentEventService_PublishFailure(t *testing.T) {
	svc := NewAssessmentEventService(failingPublisher{}, discardLogger())

	err := svc.NotifySessionAborted(context.Background(), &models.Session{ID: "s-1"})
	assert.ErrorContains(t, err, "broker unavailable")
}
