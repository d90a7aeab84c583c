package models

import "time"

// ProficiencyEstimate is the ability estimate for one (learner, topic) pair.
// It persists across sessions and is only mutated by the estimator.
type ProficiencyEstimate struct {
	LearnerID     string    `json:"learner_id" gorm:"primaryKey;size:255"`
	Topic         string    `json:"topic" gorm:"primaryKey;size:100"`
	Ability       float64   `json:"ability" gorm:"not null;default:0"`
	Variance      float64   `json:"variance" gorm:"not null"`
	ExposureCount int       `json:"exposure_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (ProficiencyEstimate) TableName() string {
	return "proficiency_estimates"
}

type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "beginner"
	ProficiencyIntermediate ProficiencyLevel = "intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "advanced"
	ProficiencyExpert       ProficiencyLevel = "expert"
)

// LevelForAccuracy maps an accuracy percentage (0-100) to a proficiency band.
func LevelForAccuracy(accuracy float64) ProficiencyLevel {
	switch {
	case accuracy >= 90:
		return ProficiencyExpert
	case accuracy >= 75:
		return ProficiencyAdvanced
	case accuracy >= 60:
		return ProficiencyIntermediate
	default:
		return ProficiencyBeginner
	}
}
