package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func numericItem(id uint, topic string, difficulty float64) *models.Item {
	v := 4.0
	return &models.Item{
		ID:         id,
		Topic:      topic,
		Difficulty: difficulty,
		AnswerKey:  datatypes.NewJSONType(models.AnswerKey{Kind: models.AnswerNumeric, Value: &v}),
		MaxScore:   1,
	}
}

func TestItemBank_FetchCandidates(t *testing.T) {
	bank := NewItemBank(
		numericItem(3, "algebra", 1),
		numericItem(1, "algebra", -1),
		numericItem(2, "geometry", 0),
	)
	ctx := context.Background()

	items, err := bank.FetchCandidates(ctx, []string{"algebra"}, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].ID)
	assert.Equal(t, uint(3), items[1].ID)

	items, err = bank.FetchCandidates(ctx, []string{"algebra"}, []uint{1, 3})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = bank.FetchCandidates(ctx, []string{"history"}, nil)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = bank.FetchCandidates(ctx, []string{}, nil)
	assert.True(t, apperrors.IsNotFound(err))

	// returned items are copies
	items, _ = bank.FetchCandidates(ctx, []string{"geometry"}, nil)
	items[0].Difficulty = 99
	again, _ := bank.GetByID(ctx, 2)
	assert.Equal(t, 0.0, again.Difficulty)
}

func TestItemBank_ImportKeepsItemsImmutable(t *testing.T) {
	ctx := context.Background()
	bank := NewItemBank(numericItem(1, "algebra", 0))

	require.NoError(t, bank.ImportItems(ctx, []*models.Item{numericItem(1, "algebra", 0), numericItem(2, "algebra", 1)}))
	_, err := bank.GetByID(ctx, 2)
	require.NoError(t, err)

	err = bank.ImportItems(ctx, []*models.Item{numericItem(3, "algebra", 2), numericItem(1, "geometry", 0)})
	assert.ErrorIs(t, err, repositories.ErrItemChanged)

	item, err := bank.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "algebra", item.Topic)
	_, err = bank.GetByID(ctx, 3)
	assert.True(t, apperrors.IsNotFound(err))

	err = bank.ImportItems(ctx, []*models.Item{numericItem(4, "algebra", 0), numericItem(4, "algebra", 0.5)})
	assert.ErrorIs(t, err, repositories.ErrItemChanged, "conflicting duplicates within one batch")
}

func TestSessionStore_AppendAndList(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	current := uint(1)
	session := &models.Session{
		ID:            "s-1",
		LearnerID:     "learner-1",
		TopicScope:    datatypes.JSONSlice[string]{"algebra"},
		State:         models.SessionInProgress,
		CurrentItemID: &current,
		StartedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, session))
	assert.Error(t, store.Create(ctx, session))

	session.ExposureCount = 1
	require.NoError(t, store.AppendExposure(ctx, session, &models.ExposureRecord{SessionID: "s-1", ItemID: 1, Sequence: 1}))
	assert.Error(t, store.AppendExposure(ctx, session, &models.ExposureRecord{SessionID: "s-1", ItemID: 1, Sequence: 2}))

	loaded, err := store.GetByIDWithExposures(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ExposureCount)
	require.Len(t, loaded.Exposures, 1)
	assert.Equal(t, []uint{1}, loaded.ExposedItemIDs())

	// mutating the caller's copy does not leak into the store
	*session.CurrentItemID = 42
	stored, err := store.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), *stored.CurrentItemID)

	require.NoError(t, store.Create(ctx, &models.Session{ID: "s-2", LearnerID: "learner-2", State: models.SessionAborted, StartedAt: time.Now().UTC()}))

	list, total, err := store.List(ctx, repositories.SessionFilters{LearnerID: "learner-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "s-1", list[0].ID)

	_, err = store.GetByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProficiencyStore_UpdateAtomic(t *testing.T) {
	store := NewProficiencyStore()
	ctx := context.Background()
	seed := &models.ProficiencyEstimate{LearnerID: "l", Topic: "algebra", Variance: 1}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateAtomic(ctx, seed, func(est *models.ProficiencyEstimate) error {
				est.ExposureCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	est, err := store.Get(ctx, "l", "algebra")
	require.NoError(t, err)
	assert.Equal(t, 100, est.ExposureCount)
	assert.Equal(t, 1.0, est.Variance)

	list, err := store.ListByLearner(ctx, "l")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAnalyticsStore_Update(t *testing.T) {
	store := NewAnalyticsStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "l")
	assert.True(t, apperrors.IsNotFound(err))

	row, err := store.Update(ctx, "l", func(a *models.LearnerAnalytics) error {
		a.SessionsStarted++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, row.SessionsStarted)
	assert.Equal(t, models.ProficiencyBeginner, row.ProficiencyLevel)
}
