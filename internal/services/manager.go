package services

import (
	"log/slog"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
)

// ServiceManager exposes the wired service graph to the transport layer
type ServiceManager interface {
	Session() SessionService
	Analytics() AnalyticsService
	Report() ReportService
	Events() AssessmentEventService
}

type serviceManager struct {
	session   SessionService
	analytics AnalyticsService
	report    ReportService
	events    AssessmentEventService
}

// Dependencies carries the infrastructure the services are built on
type Dependencies struct {
	Repo      repositories.Repository
	Directory repositories.LearnerDirectory
	Locker    cache.Locker
	Publisher events.EventPublisher
	Engine    config.EngineConfig
	Logger    *slog.Logger
	Validator *validator.Validator
}

func NewServiceManager(deps Dependencies) ServiceManager {
	eventService := NewAssessmentEventService(deps.Publisher, deps.Logger)
	analytics := NewAnalyticsService(deps.Repo, deps.Logger)
	session := NewSessionService(deps.Repo, deps.Directory, deps.Locker, eventService, analytics, deps.Engine, deps.Logger, deps.Validator)

	return &serviceManager{
		session:   session,
		analytics: analytics,
		report:    NewReportService(session, deps.Logger),
		events:    eventService,
	}
}

func (m *serviceManager) Session() SessionService        { return m.session }
func (m *serviceManager) Analytics() AnalyticsService    { return m.analytics }
func (m *serviceManager) Report() ReportService          { return m.report }
func (m *serviceManager) Events() AssessmentEventService { return m.events }
