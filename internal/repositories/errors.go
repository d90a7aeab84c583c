package repositories

import (
	"errors"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
)

// Resource names used in NotFoundError
const (
	ResourceItem     = "item"
	ResourceScope    = "topic scope"
	ResourceSession  = "session"
	ResourceEstimate = "proficiency estimate"
	ResourceLearner  = "learner"
	ResourceAnalytic = "learner analytics"
)

// IsNotFoundError reports whether a repository call missed
func IsNotFoundError(err error) bool {
	return apperrors.IsNotFound(err)
}

// ErrItemChanged is returned when an import would alter an item already in
// the bank
var ErrItemChanged = errors.New("item already exists with different content")
