package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
)

type sessionService struct {
	repo      repositories.Repository
	directory repositories.LearnerDirectory
	locker    cache.Locker
	events    AssessmentEventService
	analytics AnalyticsService

	grader    *Grader
	estimator *Estimator
	selector  *Selector

	cfg       config.EngineConfig
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewSessionService(
	repo repositories.Repository,
	directory repositories.LearnerDirectory,
	locker cache.Locker,
	eventService AssessmentEventService,
	analytics AnalyticsService,
	cfg config.EngineConfig,
	logger *slog.Logger,
	validator *validator.Validator,
) SessionService {
	estimator := NewEstimator(repo.Proficiency(), cfg)
	return &sessionService{
		repo:      repo,
		directory: directory,
		locker:    locker,
		events:    eventService,
		analytics: analytics,
		grader:    NewGrader(validator.AnswerKey()),
		estimator: estimator,
		selector:  NewSelector(repo.ItemBank(), estimator, cfg),
		cfg:       cfg,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "adaptive-assessment-engine", Component: "session"}),
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ===== CORE SESSION OPERATIONS =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest) (view *SessionView, err error) {
	op := s.opLogger.WithOperation(ctx, "start_session", req.LearnerID)
	defer func() {
		var sessionID string
		if view != nil {
			sessionID = view.Session.ID
		}
		op.LogResult(sessionID, "session", err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	learner, err := s.directory.GetLearner(ctx, req.LearnerID)
	if err != nil {
		return nil, wrapNotFound(err, ErrLearnerNotFound)
	}
	if !learner.CanBeAssessed() {
		return nil, ErrLearnerInactive
	}

	topics := uniqueTopics(req.Topics)
	if err := s.selector.CheckScope(ctx, topics); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:         uuid.NewString(),
		LearnerID:  learner.ID,
		TopicScope: datatypes.JSONSlice[string](topics),
		State:      models.SessionNotStarted,
		StartedAt:  s.now(),
	}

	item, err := s.selector.SelectNext(ctx, session)
	if err != nil {
		if errors.Is(err, ErrNoMoreItems) {
			return nil, wrapNotFound(apperrors.NewNotFoundError(repositories.ResourceScope, session.Topics()), ErrScopeNotFound)
		}
		return nil, fmt.Errorf("failed to select first item: %w", err)
	}

	session.State = models.SessionInProgress
	session.CurrentItemID = &item.ID

	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.opLogger.LogTransition(ctx, session.ID, session.LearnerID,
		string(models.SessionNotStarted), string(models.SessionInProgress), "")

	s.events.NotifySessionStarted(ctx, session)
	if err := s.analytics.RecordSessionStarted(ctx, session); err != nil {
		s.logger.Warn("Failed to record session start", "session_id", session.ID, "error", err)
	}

	return &SessionView{
		Session:     session,
		CurrentItem: item.Present(),
		Progress:    s.progress(session),
	}, nil
}

func (s *sessionService) Submit(ctx context.Context, sessionID string, req *SubmitResponseRequest) (result *SubmitResult, err error) {
	op := s.opLogger.WithOperation(ctx, "submit_response", "")
	defer func() { op.LogResult(sessionID, "session", err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	unlock, err := s.locker.Lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	session, err := s.repo.Session().GetByIDWithExposures(ctx, sessionID)
	if err != nil {
		return nil, wrapNotFound(err, ErrSessionNotFound)
	}
	op.SetLearner(session.LearnerID)

	if err := s.checkAnswerable(session, req.ItemID); err != nil {
		return nil, err
	}

	item, err := s.repo.ItemBank().GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, wrapNotFound(err, ErrItemNotFound)
	}
	if !session.InScope(item.Topic) {
		return nil, fmt.Errorf("item %d topic %q is outside session scope", item.ID, item.Topic)
	}

	verdict, err := s.grader.Grade(item, req.Response)
	if err != nil {
		return nil, err
	}

	before, err := s.estimator.GetEstimate(ctx, session.LearnerID, item.Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	projected := *before
	ApplyObservation(&projected, item.Difficulty, verdict.Observed(), s.cfg)

	record := &models.ExposureRecord{
		SessionID:           session.ID,
		ItemID:              item.ID,
		LearnerID:           session.LearnerID,
		Sequence:            session.ExposureCount + 1,
		Topic:               item.Topic,
		Difficulty:          item.Difficulty,
		Response:            datatypes.NewJSONType(req.Response),
		IsCorrect:           verdict.IsCorrect,
		Score:               verdict.Score,
		MaxScore:            verdict.MaxScore,
		AbilityBefore:       before.Ability,
		AbilityAfter:        projected.Ability,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		AnsweredAt:          s.now(),
	}

	applyVerdict(session, verdict)
	session.CurrentItemID = nil

	if err := s.repo.Session().AppendExposure(ctx, session, record); err != nil {
		return nil, fmt.Errorf("failed to record exposure: %w", err)
	}
	session.Exposures = append(session.Exposures, *record)

	estimate, err := s.estimator.Observe(ctx, session.LearnerID, item.Topic, item.Difficulty, verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}

	s.logger.Info("Response graded",
		"session_id", session.ID,
		"item_id", item.ID,
		"sequence", record.Sequence,
		"is_correct", verdict.IsCorrect,
		"ability", estimate.Ability,
		"variance", estimate.Variance)
	s.events.NotifyItemGraded(ctx, session, record, estimate)

	result = &SubmitResult{
		SessionID: session.ID,
		Verdict:   verdict,
		Feedback:  BuildFeedback(verdict, req.ResponseTimeSeconds),
		Estimate:  estimate,
	}

	next, reason, err := s.advance(ctx, session)
	if err != nil {
		return nil, err
	}

	if reason != "" {
		summary, err := s.complete(ctx, session, reason)
		if err != nil {
			return nil, err
		}
		result.Summary = summary
	} else {
		result.NextItem = next.Present()
	}

	result.State = session.State
	result.Progress = s.progress(session)
	return result, nil
}

func (s *sessionService) Abort(ctx context.Context, sessionID string) (view *SessionView, err error) {
	op := s.opLogger.WithOperation(ctx, "abort_session", "")
	defer func() { op.LogResult(sessionID, "session", err) }()

	unlock, err := s.locker.Lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	session, err := s.repo.Session().GetByIDWithExposures(ctx, sessionID)
	if err != nil {
		return nil, wrapNotFound(err, ErrSessionNotFound)
	}
	op.SetLearner(session.LearnerID)

	switch session.State {
	case models.SessionAborted:
		return &SessionView{Session: session, Progress: s.progress(session)}, nil
	case models.SessionCompleted:
		return nil, fmt.Errorf("%w: %w", ErrSessionTerminal,
			apperrors.NewInvalidStateError(session.ID, string(session.State), "abort", "session already completed"))
	}

	from := session.State
	reason := models.TerminationAborted
	completedAt := s.now()
	session.State = models.SessionAborted
	session.TerminationReason = &reason
	session.CompletedAt = &completedAt
	session.CurrentItemID = nil

	if err := s.repo.Session().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to abort session: %w", err)
	}

	s.opLogger.LogTransition(ctx, session.ID, session.LearnerID, string(from), string(session.State), string(reason))
	s.events.NotifySessionAborted(ctx, session)
	if summary, err := s.buildSummary(ctx, session); err == nil {
		s.recordEnded(ctx, summary)
	} else {
		s.logger.Warn("Failed to summarize aborted session", "session_id", session.ID, "error", err)
	}

	return &SessionView{Session: session, Progress: s.progress(session)}, nil
}

// ===== QUERIES =====

func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	session, err := s.repo.Session().GetByIDWithExposures(ctx, sessionID)
	if err != nil {
		return nil, wrapNotFound(err, ErrSessionNotFound)
	}

	view := &SessionView{Session: session, Progress: s.progress(session)}
	if session.CurrentItemID != nil {
		item, err := s.repo.ItemBank().GetByID(ctx, *session.CurrentItemID)
		if err != nil {
			return nil, wrapNotFound(err, ErrItemNotFound)
		}
		view.CurrentItem = item.Present()
	}
	return view, nil
}

// CurrentItem returns the item awaiting a response. An in-progress session
// left without one, after a failure between recording an exposure and
// selecting the next item, is repaired here.
func (s *sessionService) CurrentItem(ctx context.Context, sessionID string) (*models.PresentedItem, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		return nil, wrapNotFound(err, ErrSessionNotFound)
	}
	if session.State != models.SessionInProgress {
		return nil, fmt.Errorf("%w: %w", ErrNoItemPresented,
			apperrors.NewInvalidStateError(session.ID, string(session.State), "present item for", ""))
	}
	if session.CurrentItemID != nil {
		item, err := s.repo.ItemBank().GetByID(ctx, *session.CurrentItemID)
		if err != nil {
			return nil, wrapNotFound(err, ErrItemNotFound)
		}
		return item.Present(), nil
	}

	unlock, err := s.locker.Lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	session, err = s.repo.Session().GetByIDWithExposures(ctx, sessionID)
	if err != nil {
		return nil, wrapNotFound(err, ErrSessionNotFound)
	}
	if session.State != models.SessionInProgress {
		return nil, fmt.Errorf("%w: %w", ErrNoItemPresented,
			apperrors.NewInvalidStateError(session.ID, string(session.State), "present item for", ""))
	}

	s.logger.Warn("Recovering session without a presented item", "session_id", session.ID)

	next, reason, err := s.advance(ctx, session)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		if _, err := s.complete(ctx, session, reason); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrNoItemPresented,
			apperrors.NewInvalidStateError(session.ID, string(session.State), "present item for", string(reason)))
	}
	return next.Present(), nil
}

func (s *sessionService) GetSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	session, err := s.repo.Session().GetByIDWithExposures(ctx, sessionID)
	if err != nil {
		return nil, wrapNotFound(err, ErrSessionNotFound)
	}
	return s.buildSummary(ctx, session)
}

func (s *sessionService) ListSessions(ctx context.Context, learnerID string, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	filters.LearnerID = learnerID
	sessions, total, err := s.repo.Session().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

// ===== PROFICIENCY =====

func (s *sessionService) GetEstimate(ctx context.Context, learnerID, topic string) (*models.ProficiencyEstimate, error) {
	if learnerID == "" {
		return nil, NewValidationError("learner_id", "is required", learnerID)
	}
	if topic == "" {
		return nil, NewValidationError("topic", "is required", topic)
	}
	return s.estimator.GetEstimate(ctx, learnerID, topic)
}

func (s *sessionService) ListEstimates(ctx context.Context, learnerID string) ([]*models.ProficiencyEstimate, error) {
	if learnerID == "" {
		return nil, NewValidationError("learner_id", "is required", learnerID)
	}
	estimates, err := s.repo.Proficiency().ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	return estimates, nil
}
