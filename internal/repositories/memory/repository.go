package memory

import (
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// Repository is the in-memory storage bundle used by tests and the
// single-process demo mode.
type Repository struct {
	itemBank    *ItemBank
	session     *SessionStore
	proficiency *ProficiencyStore
	analytics   *AnalyticsStore
}

func NewRepository(items ...*models.Item) *Repository {
	return &Repository{
		itemBank:    NewItemBank(items...),
		session:     NewSessionStore(),
		proficiency: NewProficiencyStore(),
		analytics:   NewAnalyticsStore(),
	}
}

func (r *Repository) ItemBank() repositories.ItemBankRepository       { return r.itemBank }
func (r *Repository) Session() repositories.SessionRepository         { return r.session }
func (r *Repository) Proficiency() repositories.ProficiencyRepository { return r.proficiency }
func (r *Repository) Analytics() repositories.AnalyticsRepository     { return r.analytics }

// Importer exposes item loading
func (r *Repository) Importer() repositories.ItemImporter {
	return r.itemBank
}

var _ repositories.Repository = (*Repository)(nil)
