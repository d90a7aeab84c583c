package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProficiencyPostgreSQL struct {
	db *gorm.DB
}

func NewProficiencyPostgreSQL(db *gorm.DB) *ProficiencyPostgreSQL {
	return &ProficiencyPostgreSQL{db: db}
}

func (r *ProficiencyPostgreSQL) Get(ctx context.Context, learnerID, topic string) (*models.ProficiencyEstimate, error) {
	var est models.ProficiencyEstimate
	if err := r.db.WithContext(ctx).
		Where("learner_id = ? AND topic = ?", learnerID, topic).
		First(&est).Error; err != nil {
		return nil, notFound(err, repositories.ResourceEstimate, learnerID+"/"+topic)
	}
	return &est, nil
}

func (r *ProficiencyPostgreSQL) ListByLearner(ctx context.Context, learnerID string) ([]*models.ProficiencyEstimate, error) {
	var estimates []*models.ProficiencyEstimate
	if err := r.db.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("topic ASC").
		Find(&estimates).Error; err != nil {
		return nil, err
	}
	return estimates, nil
}

func (r *ProficiencyPostgreSQL) UpdateAtomic(ctx context.Context, seed *models.ProficiencyEstimate, mutate func(*models.ProficiencyEstimate) error) (*models.ProficiencyEstimate, error) {
	var out models.ProficiencyEstimate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		est, err := r.lockEstimate(tx, seed.LearnerID, seed.Topic)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Concurrent first exposures race on the insert; the loser re-reads
			row := *seed
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
			est, err = r.lockEstimate(tx, seed.LearnerID, seed.Topic)
		}
		if err != nil {
			return err
		}

		if err := mutate(est); err != nil {
			return err
		}
		if err := tx.Save(est).Error; err != nil {
			return err
		}
		out = *est
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProficiencyPostgreSQL) lockEstimate(tx *gorm.DB, learnerID, topic string) (*models.ProficiencyEstimate, error) {
	var est models.ProficiencyEstimate
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("learner_id = ? AND topic = ?", learnerID, topic).
		First(&est).Error; err != nil {
		return nil, err
	}
	return &est, nil
}
