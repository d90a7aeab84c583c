package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// userGetter is the slice of the Casdoor client the directory needs
type userGetter interface {
	GetUser(name string) (*casdoorsdk.User, error)
}

// CasdoorDirectory resolves learners against a Casdoor organization
type CasdoorDirectory struct {
	client userGetter
	logger *slog.Logger
}

func NewCasdoorDirectory(cfg config.IdentityConfig, logger *slog.Logger) *CasdoorDirectory {
	client := casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return newCasdoorDirectory(client, logger)
}

func newCasdoorDirectory(client userGetter, logger *slog.Logger) *CasdoorDirectory {
	return &CasdoorDirectory{
		client: client,
		logger: logger.With("component", "casdoor_directory"),
	}
}

func (d *CasdoorDirectory) GetLearner(ctx context.Context, id string) (*models.Learner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := d.client.GetUser(id)
	if err != nil {
		d.logger.ErrorContext(ctx, "Casdoor user lookup failed", "learner_id", id, "error", err)
		return nil, fmt.Errorf("casdoor lookup %s: %w", id, err)
	}
	if user == nil || user.Name == "" {
		return nil, apperrors.NewNotFoundError(repositories.ResourceLearner, id)
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Name
	}

	return &models.Learner{
		ID:          user.Name,
		DisplayName: displayName,
		Role:        roleFor(user),
		IsActive:    !user.IsForbidden && !user.IsDeleted,
	}, nil
}

func roleFor(user *casdoorsdk.User) models.UserRole {
	if user.IsAdmin {
		return models.RoleAdmin
	}
	switch models.UserRole(strings.ToLower(user.Tag)) {
	case models.RoleTeacher:
		return models.RoleTeacher
	case models.RoleProctor:
		return models.RoleProctor
	default:
		return models.RoleStudent
	}
}

// NewDirectory builds the learner directory selected by configuration
func NewDirectory(cfg config.IdentityConfig, logger *slog.Logger) repositories.LearnerDirectory {
	if cfg.Provider == "casdoor" {
		logger.Info("Using Casdoor learner directory", "endpoint", cfg.CasdoorEndpoint, "organization", cfg.CasdoorOrganization)
		return NewCasdoorDirectory(cfg, logger)
	}
	logger.Info("Using static learner directory")
	return NewStaticDirectory(true)
}

var _ repositories.LearnerDirectory = (*CasdoorDirectory)(nil)
