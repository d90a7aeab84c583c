package postgres

import (
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

// Repository bundles the gorm-backed stores
type Repository struct {
	db          *gorm.DB
	itemBank    *ItemBankPostgreSQL
	session     *SessionPostgreSQL
	proficiency *ProficiencyPostgreSQL
	analytics   *AnalyticsPostgreSQL
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		itemBank:    NewItemBankPostgreSQL(db),
		session:     NewSessionPostgreSQL(db),
		proficiency: NewProficiencyPostgreSQL(db),
		analytics:   NewAnalyticsPostgreSQL(db),
	}
}

func (r *Repository) ItemBank() repositories.ItemBankRepository       { return r.itemBank }
func (r *Repository) Session() repositories.SessionRepository         { return r.session }
func (r *Repository) Proficiency() repositories.ProficiencyRepository { return r.proficiency }
func (r *Repository) Analytics() repositories.AnalyticsRepository     { return r.analytics }

// Importer exposes item loading for the migrate command
func (r *Repository) Importer() repositories.ItemImporter {
	return r.itemBank
}

// AutoMigrate creates or updates every table the engine owns. Items are
// migrated too so a standalone deployment can host its own bank.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Item{},
		&models.Session{},
		&models.ExposureRecord{},
		&models.ProficiencyEstimate{},
		&models.LearnerAnalytics{},
	)
}

var _ repositories.Repository = (*Repository)(nil)
