package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sessionSortColumns = map[string]bool{
	"started_at":     true,
	"completed_at":   true,
	"total_score":    true,
	"exposure_count": true,
}

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) *SessionPostgreSQL {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *SessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (r *SessionPostgreSQL) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFound(err, repositories.ResourceSession, id)
	}
	return &session, nil
}

func (r *SessionPostgreSQL) GetByIDWithExposures(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).
		Preload("Exposures", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("id = ?", id).
		First(&session).Error; err != nil {
		return nil, notFound(err, repositories.ResourceSession, id)
	}
	return &session, nil
}

func (r *SessionPostgreSQL) Update(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(session).Error
}

func (r *SessionPostgreSQL) AppendExposure(ctx context.Context, session *models.Session, record *models.ExposureRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("insert exposure: %w", err)
		}
		if err := tx.Omit(clause.Associations).Save(session).Error; err != nil {
			return fmt.Errorf("update session totals: %w", err)
		}
		return nil
	})
}

func (r *SessionPostgreSQL) ListExposures(ctx context.Context, sessionID string) ([]*models.ExposureRecord, error) {
	var records []*models.ExposureRecord
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sequence ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	var sessions []*models.Session
	var total int64

	// apply filter first
	query := r.db.WithContext(ctx).Model(&models.Session{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, sessionSortColumns, "started_at")

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *SessionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.LearnerID != "" {
		query = query.Where("learner_id = ?", filters.LearnerID)
	}
	if filters.State != nil {
		query = query.Where("state = ?", *filters.State)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}
