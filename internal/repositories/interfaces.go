package repositories

import (
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	LearnerID string               `json:"learner_id"`
	State     *models.SessionState `json:"state"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "started_at", "completed_at", "total_score"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY BUNDLE =====

// Repository groups the stores the engine talks to. Adapters for gorm and
// in-memory storage both satisfy it.
type Repository interface {
	ItemBank() ItemBankRepository
	Session() SessionRepository
	Proficiency() ProficiencyRepository
	Analytics() AnalyticsRepository
}
