package events

import (
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the engine emits
type EventType string

const (
	EventSessionStarted    EventType = "session.started"
	EventSessionItemGraded EventType = "session.item_graded"
	EventSessionCompleted  EventType = "session.completed"
	EventSessionAborted    EventType = "session.aborted"
)

const (
	eventSource  = "adaptive-assessment-engine"
	eventVersion = "1.0"
)

// AssessmentEvent is the envelope for every published event
type AssessmentEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	SessionID string                 `json:"session_id"`
	LearnerID string                 `json:"learner_id"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps a payload in an envelope with a fresh ID
func NewEvent(eventType EventType, sessionID, learnerID string, data interface{}) *AssessmentEvent {
	return &AssessmentEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		SessionID: sessionID,
		LearnerID: learnerID,
		Data:      data,
	}
}

// Event payloads

type SessionStartedEvent struct {
	TopicScope  []string  `json:"topic_scope"`
	FirstItemID uint      `json:"first_item_id"`
	StartedAt   time.Time `json:"started_at"`
}

type ItemGradedEvent struct {
	ItemID        uint    `json:"item_id"`
	Topic         string  `json:"topic"`
	Sequence      int     `json:"sequence"`
	IsCorrect     bool    `json:"is_correct"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	AbilityBefore float64 `json:"ability_before"`
	AbilityAfter  float64 `json:"ability_after"`
	Variance      float64 `json:"variance"`
}

type SessionCompletedEvent struct {
	Reason        models.TerminationReason `json:"reason"`
	ExposureCount int                      `json:"exposure_count"`
	CorrectCount  int                      `json:"correct_count"`
	TotalScore    float64                  `json:"total_score"`
	MaxScore      float64                  `json:"max_score"`
	FinalAbility  float64                  `json:"final_ability"`
	CompletedAt   time.Time                `json:"completed_at"`
}

type SessionAbortedEvent struct {
	ExposureCount int       `json:"exposure_count"`
	AbortedAt     time.Time `json:"aborted_at"`
}
