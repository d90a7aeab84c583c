package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/identity"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories/memory"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
)

func choiceItem(id uint, difficulty float64) *models.Item {
	answer := 1
	return &models.Item{
		ID:         id,
		Topic:      "algebra",
		Difficulty: difficulty,
		Payload:    datatypes.JSON(`{"prompt":"pick one"}`),
		AnswerKey:  datatypes.NewJSONType(models.AnswerKey{Kind: models.AnswerSingleChoice, Choice: &answer, OptionCount: 4}),
		MaxScore:   1,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	manager := services.NewServiceManager(services.Dependencies{
		Repo:      memory.NewRepository(choiceItem(1, -1), choiceItem(2, 0), choiceItem(3, 1)),
		Directory: identity.NewStaticDirectory(true, models.Learner{ID: "banned", IsActive: false}),
		Locker:    cache.NewLocalLocker(),
		Publisher: events.NewMockEventPublisher(slogger),
		Engine:    config.DefaultEngineConfig(),
		Logger:    slogger,
		Validator: v,
	})

	logger := utils.NewSlogLogger(slogger)
	return NewRouter(NewHandlerManager(manager, v, logger), logger, []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func startSession(t *testing.T, router *gin.Engine) services.SessionView {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", gin.H{
		"learner_id": "learner-1",
		"topics":     []string{"algebra"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.SessionView](t, w)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)
	view := startSession(t, router)
	require.NotNil(t, view.CurrentItem)
	assert.Equal(t, uint(2), view.CurrentItem.ID)
	assert.NotContains(t, doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+view.Session.ID+"/item", nil).Body.String(), "answer_key")

	base := "/api/v1/sessions/" + view.Session.ID
	w := doJSON(t, router, http.MethodPost, base+"/responses", gin.H{
		"item_id":               view.CurrentItem.ID,
		"response":              gin.H{"choice": 1},
		"response_time_seconds": 12.5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[services.SubmitResult](t, w)
	assert.True(t, result.Verdict.IsCorrect)
	require.NotNil(t, result.NextItem)

	w = doJSON(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := decode[services.SessionView](t, w)
	assert.Len(t, current.Session.Exposures, 1)

	w = doJSON(t, router, http.MethodGet, base+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[services.SessionSummary](t, w).ExposureCount)

	w = doJSON(t, router, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), view.Session.ID)

	w = doJSON(t, router, http.MethodPost, base+"/abort", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SessionAborted, decode[services.SessionView](t, w).Session.State)

	w = doJSON(t, router, http.MethodPost, base+"/responses", gin.H{
		"item_id":  result.NextItem.ID,
		"response": gin.H{"choice": 1},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", decode[ErrorResponse](t, w).Code)
}

func TestSubmitResponse_Errors(t *testing.T) {
	router := newTestRouter(t)
	view := startSession(t, router)
	base := "/api/v1/sessions/" + view.Session.ID

	w := doJSON(t, router, http.MethodPost, base+"/responses", gin.H{
		"item_id":  view.CurrentItem.ID,
		"response": gin.H{"text": "one"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed_response", decode[ErrorResponse](t, w).Code)

	w = doJSON(t, router, http.MethodPost, base+"/responses", gin.H{"response": gin.H{"choice": 1}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "item_id is required")

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/missing/responses", gin.H{
		"item_id":  1,
		"response": gin.H{"choice": 1},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartSession_Errors(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", gin.H{"learner_id": "learner-1", "topics": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions", gin.H{"learner_id": "banned", "topics": []string{"algebra"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions", gin.H{"learner_id": "learner-1", "topics": []string{"calculus"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLearnerRoutes(t *testing.T) {
	router := newTestRouter(t)
	view := startSession(t, router)
	doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+view.Session.ID+"/responses", gin.H{
		"item_id":  view.CurrentItem.ID,
		"response": gin.H{"choice": 0},
	})

	w := doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/estimates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	estimates := decode[[]models.ProficiencyEstimate](t, w)
	require.Len(t, estimates, 1)
	assert.InDelta(t, -0.5, estimates[0].Ability, 1e-9)

	w = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/estimates/geometry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cold := decode[models.ProficiencyEstimate](t, w)
	assert.Zero(t, cold.ExposureCount)
	assert.Equal(t, 1.0, cold.Variance)

	w = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.LearnerAnalytics](t, w).SessionsStarted)

	w = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/sessions?state=in_progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items []models.Session `json:"items"`
		Total int64            `json:"total"`
	}](t, w)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, page.Items, 1)
}
