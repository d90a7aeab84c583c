package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalyticsPostgreSQL struct {
	db *gorm.DB
}

func NewAnalyticsPostgreSQL(db *gorm.DB) *AnalyticsPostgreSQL {
	return &AnalyticsPostgreSQL{db: db}
}

func (r *AnalyticsPostgreSQL) Get(ctx context.Context, learnerID string) (*models.LearnerAnalytics, error) {
	var analytics models.LearnerAnalytics
	if err := r.db.WithContext(ctx).Where("learner_id = ?", learnerID).First(&analytics).Error; err != nil {
		return nil, notFound(err, repositories.ResourceAnalytic, learnerID)
	}
	return &analytics, nil
}

func (r *AnalyticsPostgreSQL) Update(ctx context.Context, learnerID string, fn func(*models.LearnerAnalytics) error) (*models.LearnerAnalytics, error) {
	var out models.LearnerAnalytics

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lock := func() (*models.LearnerAnalytics, error) {
			var row models.LearnerAnalytics
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("learner_id = ?", learnerID).
				First(&row).Error
			return &row, err
		}

		row, err := lock()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seed := models.LearnerAnalytics{LearnerID: learnerID, ProficiencyLevel: models.ProficiencyBeginner}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return err
			}
			row, err = lock()
		}
		if err != nil {
			return err
		}

		if err := fn(row); err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		out = *row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
