package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
	SessionAborted    SessionState = "aborted"
)

var sessionTransitions = map[SessionState][]SessionState{
	SessionNotStarted: {SessionInProgress, SessionAborted},
	SessionInProgress: {SessionCompleted, SessionAborted},
}

// IsTerminal reports whether no further transitions are possible.
func (s SessionState) IsTerminal() bool {
	return s == SessionCompleted || s == SessionAborted
}

func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TerminationReason string

const (
	TerminationMaxExposures      TerminationReason = "max_exposures"
	TerminationConfidenceReached TerminationReason = "confidence_reached"
	TerminationNoMoreItems       TerminationReason = "no_more_items"
	TerminationAborted           TerminationReason = "aborted"
)

// Session is one adaptive assessment run for a single learner.
type Session struct {
	ID         string                      `json:"id" gorm:"primaryKey;size:36"`
	LearnerID  string                      `json:"learner_id" gorm:"not null;size:255;index"`
	TopicScope datatypes.JSONSlice[string] `json:"topic_scope" gorm:"type:jsonb;not null"`
	State      SessionState                `json:"state" gorm:"not null;size:20;index"`

	// Item presented and awaiting a response, nil once terminal
	CurrentItemID *uint `json:"current_item_id"`

	// Running totals, kept in step with Exposures
	ExposureCount int     `json:"exposure_count" gorm:"not null;default:0"`
	CorrectCount  int     `json:"correct_count" gorm:"not null;default:0"`
	TotalScore    float64 `json:"total_score" gorm:"not null;default:0"`
	MaxScore      float64 `json:"max_score" gorm:"not null;default:0"`

	StartedAt         time.Time          `json:"started_at"`
	CompletedAt       *time.Time         `json:"completed_at"`
	TerminationReason *TerminationReason `json:"termination_reason" gorm:"size:32"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exposures []ExposureRecord `json:"exposures,omitempty" gorm:"foreignKey:SessionID"`
}

func (Session) TableName() string {
	return "assessment_sessions"
}

// Topics returns the topic scope as a plain slice.
func (s *Session) Topics() []string {
	return []string(s.TopicScope)
}

func (s *Session) InScope(topic string) bool {
	for _, t := range s.TopicScope {
		if t == topic {
			return true
		}
	}
	return false
}

// ExposedItemIDs lists every item already answered in this session.
func (s *Session) ExposedItemIDs() []uint {
	ids := make([]uint, 0, len(s.Exposures))
	for _, e := range s.Exposures {
		ids = append(ids, e.ItemID)
	}
	return ids
}

// Response is a learner's submitted answer. Exactly one field must be set and
// it must match the item's answer kind.
type Response struct {
	Choice  *int     `json:"choice,omitempty"`
	Choices []int    `json:"choices,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Text    *string  `json:"text,omitempty"`
}

// Shape returns the answer kind implied by the populated field and how many
// fields were populated.
func (r Response) Shape() (AnswerKind, int) {
	var kind AnswerKind
	count := 0
	if r.Choice != nil {
		kind = AnswerSingleChoice
		count++
	}
	if r.Choices != nil {
		kind = AnswerMultiChoice
		count++
	}
	if r.Number != nil {
		kind = AnswerNumeric
		count++
	}
	if r.Text != nil {
		kind = AnswerExactText
		count++
	}
	return kind, count
}

// ExposureRecord is the append-only log entry for one presented and answered
// item.
type ExposureRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"not null;size:36;uniqueIndex:idx_exposure_session_item;index"`
	ItemID    uint   `json:"item_id" gorm:"not null;uniqueIndex:idx_exposure_session_item"`
	LearnerID string `json:"learner_id" gorm:"not null;size:255;index"`
	Sequence  int    `json:"sequence" gorm:"not null"`

	Topic      string  `json:"topic" gorm:"not null;size:100"`
	Difficulty float64 `json:"difficulty"`

	Response  datatypes.JSONType[Response] `json:"response" gorm:"type:jsonb"`
	IsCorrect bool                         `json:"is_correct"`
	Score     float64                      `json:"score"`
	MaxScore  float64                      `json:"max_score"`

	AbilityBefore       float64   `json:"ability_before"`
	AbilityAfter        float64   `json:"ability_after"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`
	AnsweredAt          time.Time `json:"answered_at" gorm:"not null;index"`
}

func (ExposureRecord) TableName() string {
	return "exposure_records"
}
