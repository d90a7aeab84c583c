package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// SessionService drives adaptive assessment sessions
type SessionService interface {
	// Core flow
	Start(ctx context.Context, req *StartSessionRequest) (*SessionView, error)
	Submit(ctx context.Context, sessionID string, req *SubmitResponseRequest) (*SubmitResult, error)
	Abort(ctx context.Context, sessionID string) (*SessionView, error)

	// Queries
	GetSession(ctx context.Context, sessionID string) (*SessionView, error)
	CurrentItem(ctx context.Context, sessionID string) (*models.PresentedItem, error)
	GetSummary(ctx context.Context, sessionID string) (*SessionSummary, error)
	ListSessions(ctx context.Context, learnerID string, filters repositories.SessionFilters) ([]*models.Session, int64, error)

	// Proficiency
	GetEstimate(ctx context.Context, learnerID, topic string) (*models.ProficiencyEstimate, error)
	ListEstimates(ctx context.Context, learnerID string) ([]*models.ProficiencyEstimate, error)
}

// ===== REQUEST TYPES =====

type StartSessionRequest struct {
	LearnerID string   `json:"learner_id" validate:"required,max=255"`
	Topics    []string `json:"topics" validate:"required,min=1,max=50,dive,topic_tag"`
}

type SubmitResponseRequest struct {
	ItemID              uint            `json:"item_id" validate:"required"`
	Response            models.Response `json:"response"`
	ResponseTimeSeconds float64         `json:"response_time_seconds" validate:"min=0"`
}

// ===== RESPONSE TYPES =====

// SessionView is a session together with the item awaiting a response
type SessionView struct {
	Session     *models.Session       `json:"session"`
	CurrentItem *models.PresentedItem `json:"item,omitempty"`
	Progress    float64               `json:"progress"` // percentage of the exposure cap used
}

// SubmitResult is returned for every graded response. Exactly one of NextItem
// and Summary is set.
type SubmitResult struct {
	SessionID string                      `json:"session_id"`
	State     models.SessionState         `json:"state"`
	Verdict   *Verdict                    `json:"verdict"`
	Feedback  Feedback                    `json:"feedback"`
	Estimate  *models.ProficiencyEstimate `json:"estimate"`
	Progress  float64                     `json:"progress"`
	NextItem  *models.PresentedItem       `json:"next_item,omitempty"`
	Summary   *SessionSummary             `json:"summary,omitempty"`
}

type SessionSummary struct {
	SessionID         string                    `json:"session_id"`
	LearnerID         string                    `json:"learner_id"`
	State             models.SessionState       `json:"state"`
	TerminationReason *models.TerminationReason `json:"termination_reason,omitempty"`
	ExposureCount     int                       `json:"exposure_count"`
	CorrectCount      int                       `json:"correct_count"`
	TotalScore        float64                   `json:"total_score"`
	MaxScore          float64                   `json:"max_score"`
	Accuracy          float64                   `json:"accuracy"` // percentage
	ProficiencyLevel  models.ProficiencyLevel   `json:"proficiency_level"`
	FinalAbility      float64                   `json:"final_ability"`
	TimeSpentSeconds  float64                   `json:"time_spent_seconds"`
	StartedAt         time.Time                 `json:"started_at"`
	CompletedAt       *time.Time                `json:"completed_at,omitempty"`
	Topics            []TopicBreakdown          `json:"topics"`
}

type TopicBreakdown struct {
	Topic     string  `json:"topic"`
	Exposures int     `json:"exposures"`
	Correct   int     `json:"correct"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Accuracy  float64 `json:"accuracy"`
	Ability   float64 `json:"ability"`
	Variance  float64 `json:"variance"`
}
