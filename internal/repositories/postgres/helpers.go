package postgres

import (
	"errors"
	"strings"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SharedHelpers holds query helpers used by every PostgreSQL repository
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyPaginationAndSort applies ordering and paging. Unknown sort columns
// fall back to defaultSort.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, allowed map[string]bool, defaultSort string) *gorm.DB {
	column := defaultSort
	if allowed[sortBy] {
		column = sortBy
	}

	desc := !strings.EqualFold(sortOrder, "asc")
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return query.Limit(limit).Offset(offset)
}

// notFound maps gorm.ErrRecordNotFound onto the engine's NotFoundError
func notFound(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return err
}
