package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
)

type LearnerHandler struct {
	BaseHandler
	sessionService   services.SessionService
	analyticsService services.AnalyticsService
}

func NewLearnerHandler(
	sessionService services.SessionService,
	analyticsService services.AnalyticsService,
	logger utils.Logger,
) *LearnerHandler {
	return &LearnerHandler{
		BaseHandler:      NewBaseHandler(logger),
		sessionService:   sessionService,
		analyticsService: analyticsService,
	}
}

// ListEstimates returns every stored proficiency estimate of a learner
// @Summary List estimates
// @Tags learners
// @Produce json
// @Param learner_id path string true "Learner ID"
// @Success 200 {array} models.ProficiencyEstimate
// @Router /learners/{learner_id}/estimates [get]
func (h *LearnerHandler) ListEstimates(c *gin.Context) {
	learnerID := ParseStringIDParam(c, "learner_id")
	if learnerID == "" {
		return
	}

	estimates, err := h.sessionService.ListEstimates(c.Request.Context(), learnerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, estimates)
}

// GetEstimate returns one topic estimate, or the cold-start default
// @Summary Get estimate
// @Tags learners
// @Produce json
// @Param learner_id path string true "Learner ID"
// @Param topic path string true "Topic"
// @Success 200 {object} models.ProficiencyEstimate
// @Router /learners/{learner_id}/estimates/{topic} [get]
func (h *LearnerHandler) GetEstimate(c *gin.Context) {
	learnerID := ParseStringIDParam(c, "learner_id")
	if learnerID == "" {
		return
	}
	topic := ParseStringIDParam(c, "topic")
	if topic == "" {
		return
	}

	estimate, err := h.sessionService.GetEstimate(c.Request.Context(), learnerID, topic)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// GetAnalytics returns the learner's aggregate results
// @Summary Get learner analytics
// @Tags learners
// @Produce json
// @Param learner_id path string true "Learner ID"
// @Success 200 {object} services.LearnerAnalyticsView
// @Router /learners/{learner_id}/analytics [get]
func (h *LearnerHandler) GetAnalytics(c *gin.Context) {
	learnerID := ParseStringIDParam(c, "learner_id")
	if learnerID == "" {
		return
	}

	analytics, err := h.analyticsService.GetLearnerAnalytics(c.Request.Context(), learnerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// ListSessions pages through a learner's sessions
// @Summary List learner sessions
// @Tags learners
// @Produce json
// @Param learner_id path string true "Learner ID"
// @Param state query string false "Session state"
// @Param page query int false "Page" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} ListResponse
// @Router /learners/{learner_id}/sessions [get]
func (h *LearnerHandler) ListSessions(c *gin.Context) {
	learnerID := ParseStringIDParam(c, "learner_id")
	if learnerID == "" {
		return
	}

	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	filters := repositories.SessionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if state := c.Query("state"); state != "" {
		s := models.SessionState(state)
		filters.State = &s
	}

	sessions, total, err := h.sessionService.ListSessions(c.Request.Context(), learnerID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items: sessions,
		Total: total,
		Page:  page,
		Size:  size,
	})
}
