package models

import "time"

// LearnerAnalytics aggregates a learner's assessment history across sessions.
type LearnerAnalytics struct {
	LearnerID string `json:"learner_id" gorm:"primaryKey;size:255"`

	SessionsStarted   int `json:"sessions_started" gorm:"not null;default:0"`
	SessionsCompleted int `json:"sessions_completed" gorm:"not null;default:0"`
	SessionsAborted   int `json:"sessions_aborted" gorm:"not null;default:0"`

	ItemsAnswered  int `json:"items_answered" gorm:"not null;default:0"`
	CorrectAnswers int `json:"correct_answers" gorm:"not null;default:0"`

	// Accuracy figures are percentages over completed sessions
	AverageAccuracy float64 `json:"average_accuracy" gorm:"not null;default:0"`
	BestAccuracy    float64 `json:"best_accuracy" gorm:"not null;default:0"`

	TotalTimeSeconds float64          `json:"total_time_seconds" gorm:"not null;default:0"`
	ProficiencyLevel ProficiencyLevel `json:"proficiency_level" gorm:"size:20"`
	LastSessionAt    *time.Time       `json:"last_session_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearnerAnalytics) TableName() string {
	return "learner_analytics"
}

// OverallAccuracy is the percentage of correct answers across all sessions.
func (a *LearnerAnalytics) OverallAccuracy() float64 {
	if a.ItemsAnswered == 0 {
		return 0
	}
	return float64(a.CorrectAnswers) / float64(a.ItemsAnswered) * 100
}
