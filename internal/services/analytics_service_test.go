package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories/memory"
)

func TestApplySessionOutcome(t *testing.T) {
	completedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &models.LearnerAnalytics{LearnerID: "learner-1"}

	ApplySessionOutcome(a, &SessionSummary{
		State:            models.SessionCompleted,
		ExposureCount:    10,
		CorrectCount:     9,
		Accuracy:         90,
		TimeSpentSeconds: 300,
		CompletedAt:      &completedAt,
	})
	ApplySessionOutcome(a, &SessionSummary{
		State:         models.SessionCompleted,
		ExposureCount: 10,
		CorrectCount:  5,
		Accuracy:      50,
		CompletedAt:   &completedAt,
	})

	assert.Equal(t, 2, a.SessionsCompleted)
	assert.Equal(t, 20, a.ItemsAnswered)
	assert.Equal(t, 14, a.CorrectAnswers)
	assert.InDelta(t, 70, a.AverageAccuracy, 1e-9)
	assert.Equal(t, 90.0, a.BestAccuracy)
	assert.Equal(t, models.ProficiencyIntermediate, a.ProficiencyLevel)
	assert.Equal(t, 300.0, a.TotalTimeSeconds)
	require.NotNil(t, a.LastSessionAt)
	assert.Equal(t, completedAt, *a.LastSessionAt)

	ApplySessionOutcome(a, &SessionSummary{State: models.SessionAborted, ExposureCount: 2, CorrectCount: 0})
	assert.Equal(t, 1, a.SessionsAborted)
	assert.Equal(t, 22, a.ItemsAnswered)
	assert.InDelta(t, 70, a.AverageAccuracy, 1e-9, "aborted sessions do not move accuracy")

	ApplySessionOutcome(a, &SessionSummary{State: models.SessionInProgress, ExposureCount: 5})
	assert.Equal(t, 22, a.ItemsAnswered, "unfinished sessions are ignored")
}

func TestAnalyticsService_GetLearnerAnalyticsWithoutHistory(t *testing.T) {
	svc := NewAnalyticsService(memory.NewRepository(), discardLogger())

	view, err := svc.GetLearnerAnalytics(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Equal(t, "newcomer", view.LearnerID)
	assert.Equal(t, models.ProficiencyBeginner, view.ProficiencyLevel)
	assert.Zero(t, view.Accuracy)
	assert.Empty(t, view.Estimates)

	_, err = svc.GetLearnerAnalytics(context.Background(), "")
	assert.True(t, IsValidation(err))
}
