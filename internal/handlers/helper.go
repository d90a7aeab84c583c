package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/services"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 1 {
		return defaultValue
	}
	return value
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "adaptive-assessment-engine",
	})
}

// handleServiceError maps service errors onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrors)
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, services.ValidationErrors{*validationError})
		return
	}

	var malformed *services.MalformedResponseError
	if errors.As(err, &malformed) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Response does not match the item",
			Details: malformed,
			Code:    "malformed_response",
		})
		return
	}

	var invalidState *services.InvalidStateError
	if errors.As(err, &invalidState) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: invalidState.Error(),
			Details: invalidState,
			Code:    "invalid_state",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrLearnerInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Learner cannot be assessed",
			Code:    "learner_inactive",
		})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Session not found", Code: "not_found"})
	case errors.Is(err, services.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Item not found", Code: "not_found"})
	case errors.Is(err, services.ErrScopeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No items exist for the requested topics", Code: "not_found"})
	case errors.Is(err, services.ErrLearnerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Learner not found", Code: "not_found"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found", Code: "not_found"})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
