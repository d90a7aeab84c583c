package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func choiceItem(id uint, topic string, difficulty float64, correct int) *models.Item {
	return &models.Item{
		ID:         id,
		Topic:      topic,
		Difficulty: difficulty,
		Payload:    datatypes.JSON(`{"prompt":"pick one","options":["a","b","c","d"]}`),
		AnswerKey: datatypes.NewJSONType(models.AnswerKey{
			Kind:        models.AnswerSingleChoice,
			Choice:      &correct,
			OptionCount: 4,
		}),
		MaxScore: 1,
	}
}

func seedItems(t *testing.T, repo *Repository) {
	t.Helper()
	items := []*models.Item{
		choiceItem(1, "algebra", -1, 0),
		choiceItem(2, "algebra", 0, 1),
		choiceItem(3, "algebra", 1, 2),
		choiceItem(4, "geometry", 0.5, 3),
	}
	require.NoError(t, repo.Importer().ImportItems(context.Background(), items))
}

func TestItemBankPostgreSQL_FetchCandidates(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	seedItems(t, repo)
	ctx := context.Background()

	t.Run("filters by scope and exclusions", func(t *testing.T) {
		items, err := repo.ItemBank().FetchCandidates(ctx, []string{"algebra"}, []uint{2})
		require.NoError(t, err)

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
			assert.Equal(t, "algebra", it.Topic)
		}
		assert.ElementsMatch(t, []uint{1, 3}, ids)
	})

	t.Run("multi topic scope", func(t *testing.T) {
		items, err := repo.ItemBank().FetchCandidates(ctx, []string{"algebra", "geometry"}, nil)
		require.NoError(t, err)
		assert.Len(t, items, 4)
	})

	t.Run("exhausted scope is empty not missing", func(t *testing.T) {
		items, err := repo.ItemBank().FetchCandidates(ctx, []string{"geometry"}, []uint{4})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unknown scope", func(t *testing.T) {
		_, err := repo.ItemBank().FetchCandidates(ctx, []string{"calculus"}, nil)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("empty scope", func(t *testing.T) {
		_, err := repo.ItemBank().FetchCandidates(ctx, nil, nil)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("answer key round trips", func(t *testing.T) {
		item, err := repo.ItemBank().GetByID(ctx, 3)
		require.NoError(t, err)
		key := item.Key()
		assert.Equal(t, models.AnswerSingleChoice, key.Kind)
		require.NotNil(t, key.Choice)
		assert.Equal(t, 2, *key.Choice)

		_, err = repo.ItemBank().GetByID(ctx, 99)
		assert.True(t, repositories.IsNotFoundError(err))
	})
}

func TestItemBankPostgreSQL_ImportKeepsItemsImmutable(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	seedItems(t, repo)
	ctx := context.Background()

	// repeating stored items unchanged alongside a new one is fine
	require.NoError(t, repo.Importer().ImportItems(ctx, []*models.Item{
		choiceItem(1, "algebra", -1, 0),
		choiceItem(5, "geometry", 1, 2),
	}))
	added, err := repo.ItemBank().GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "geometry", added.Topic)

	err = repo.Importer().ImportItems(ctx, []*models.Item{
		choiceItem(6, "geometry", 0, 1),
		choiceItem(1, "algebra", -2, 3),
	})
	assert.ErrorIs(t, err, repositories.ErrItemChanged)

	item, err := repo.ItemBank().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, -1.0, item.Difficulty)
	assert.Equal(t, 0, *item.Key().Choice)

	_, err = repo.ItemBank().GetByID(ctx, 6)
	assert.True(t, repositories.IsNotFoundError(err), "a rejected batch stores nothing")
}

func newSession(learnerID string, topics ...string) *models.Session {
	first := uint(2)
	return &models.Session{
		ID:            uuid.NewString(),
		LearnerID:     learnerID,
		TopicScope:    datatypes.JSONSlice[string](topics),
		State:         models.SessionInProgress,
		CurrentItemID: &first,
		StartedAt:     time.Now().UTC(),
	}
}

func TestSessionPostgreSQL_Lifecycle(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	session := newSession("learner-1", "algebra")
	require.NoError(t, repo.Session().Create(ctx, session))

	choice := 1
	record := &models.ExposureRecord{
		SessionID:  session.ID,
		ItemID:     2,
		LearnerID:  "learner-1",
		Sequence:   1,
		Topic:      "algebra",
		Difficulty: 0,
		Response:   datatypes.NewJSONType(models.Response{Choice: &choice}),
		IsCorrect:  true,
		Score:      1,
		MaxScore:   1,
		AnsweredAt: time.Now().UTC(),
	}
	session.ExposureCount = 1
	session.CorrectCount = 1
	session.TotalScore = 1
	session.MaxScore = 1
	require.NoError(t, repo.Session().AppendExposure(ctx, session, record))
	assert.NotZero(t, record.ID)

	loaded, err := repo.Session().GetByIDWithExposures(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ExposureCount)
	require.Len(t, loaded.Exposures, 1)
	assert.Equal(t, uint(2), loaded.Exposures[0].ItemID)
	assert.Equal(t, 1, *loaded.Exposures[0].Response.Data().Choice)
	assert.Equal(t, []string{"algebra"}, loaded.Topics())

	t.Run("same item twice is rejected", func(t *testing.T) {
		dup := *record
		dup.ID = 0
		dup.Sequence = 2
		assert.Error(t, repo.Session().AppendExposure(ctx, session, &dup))

		exposures, err := repo.Session().ListExposures(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, exposures, 1)
	})

	t.Run("update state", func(t *testing.T) {
		now := time.Now().UTC()
		reason := models.TerminationMaxExposures
		session.State = models.SessionCompleted
		session.CurrentItemID = nil
		session.CompletedAt = &now
		session.TerminationReason = &reason
		require.NoError(t, repo.Session().Update(ctx, session))

		got, err := repo.Session().GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, got.State)
		assert.Nil(t, got.CurrentItemID)
		require.NotNil(t, got.TerminationReason)
		assert.Equal(t, models.TerminationMaxExposures, *got.TerminationReason)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := repo.Session().GetByID(ctx, "nope")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSessionPostgreSQL_List(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := newSession("learner-a", "algebra")
		s.StartedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Session().Create(ctx, s))
	}
	other := newSession("learner-b", "geometry")
	other.State = models.SessionAborted
	require.NoError(t, repo.Session().Create(ctx, other))

	sessions, total, err := repo.Session().List(ctx, repositories.SessionFilters{LearnerID: "learner-a", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sessions, 2)
	assert.True(t, sessions[0].StartedAt.After(sessions[1].StartedAt))

	aborted := models.SessionAborted
	sessions, total, err = repo.Session().List(ctx, repositories.SessionFilters{State: &aborted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "learner-b", sessions[0].LearnerID)
}

func TestProficiencyPostgreSQL_UpdateAtomic(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	seed := &models.ProficiencyEstimate{LearnerID: "learner-1", Topic: "algebra", Variance: 1}

	_, err := repo.Proficiency().Get(ctx, "learner-1", "algebra")
	assert.True(t, apperrors.IsNotFound(err))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Proficiency().UpdateAtomic(ctx, seed, func(est *models.ProficiencyEstimate) error {
				est.ExposureCount++
				est.Variance *= 0.9
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	est, err := repo.Proficiency().Get(ctx, "learner-1", "algebra")
	require.NoError(t, err)
	assert.Equal(t, workers, est.ExposureCount)
	assert.Less(t, est.Variance, 1.0)

	t.Run("mutate error rolls back", func(t *testing.T) {
		_, err := repo.Proficiency().UpdateAtomic(ctx, seed, func(est *models.ProficiencyEstimate) error {
			est.ExposureCount = 1000
			return fmt.Errorf("boom")
		})
		assert.Error(t, err)

		again, err := repo.Proficiency().Get(ctx, "learner-1", "algebra")
		require.NoError(t, err)
		assert.Equal(t, workers, again.ExposureCount)
	})

	t.Run("list by learner", func(t *testing.T) {
		_, err := repo.Proficiency().UpdateAtomic(ctx, &models.ProficiencyEstimate{LearnerID: "learner-1", Topic: "geometry", Variance: 1}, func(est *models.ProficiencyEstimate) error {
			est.ExposureCount++
			return nil
		})
		require.NoError(t, err)

		list, err := repo.Proficiency().ListByLearner(ctx, "learner-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "algebra", list[0].Topic)
		assert.Equal(t, "geometry", list[1].Topic)
	})
}

func TestAnalyticsPostgreSQL_Update(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Analytics().Get(ctx, "learner-1")
	assert.True(t, apperrors.IsNotFound(err))

	for i := 0; i < 2; i++ {
		_, err := repo.Analytics().Update(ctx, "learner-1", func(a *models.LearnerAnalytics) error {
			a.SessionsStarted++
			return nil
		})
		require.NoError(t, err)
	}

	got, err := repo.Analytics().Get(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.SessionsStarted)
	assert.Equal(t, models.ProficiencyBeginner, got.ProficiencyLevel)
}
