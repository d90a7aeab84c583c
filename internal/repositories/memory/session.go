package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
)

// SessionStore keeps sessions and their exposure logs in memory
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]models.Session
	exposures map[string][]models.ExposureRecord
	nextID    uint
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  map[string]models.Session{},
		exposures: map[string][]models.ExposureRecord{},
	}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(repositories.ResourceSession, id)
	}
	out := copySession(&stored)
	return &out, nil
}

func (s *SessionStore) GetByIDWithExposures(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(repositories.ResourceSession, id)
	}
	out := copySession(&stored)
	out.Exposures = append([]models.ExposureRecord(nil), s.exposures[id]...)
	return &out, nil
}

func (s *SessionStore) Update(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return apperrors.NewNotFoundError(repositories.ResourceSession, session.ID)
	}
	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *SessionStore) AppendExposure(ctx context.Context, session *models.Session, record *models.ExposureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return apperrors.NewNotFoundError(repositories.ResourceSession, session.ID)
	}
	for _, e := range s.exposures[session.ID] {
		if e.ItemID == record.ItemID {
			return fmt.Errorf("item %d already exposed in session %s", record.ItemID, session.ID)
		}
	}

	s.nextID++
	record.ID = s.nextID
	s.exposures[session.ID] = append(s.exposures[session.ID], *record)

	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *SessionStore) ListExposures(ctx context.Context, sessionID string) ([]*models.ExposureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.exposures[sessionID]
	out := make([]*models.ExposureRecord, 0, len(records))
	for i := range records {
		r := records[i]
		out = append(out, &r)
	}
	return out, nil
}

func (s *SessionStore) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	s.mu.RLock()
	matched := make([]*models.Session, 0)
	for _, stored := range s.sessions {
		if !matches(&stored, filters) {
			continue
		}
		out := copySession(&stored)
		matched = append(matched, &out)
	}
	s.mu.RUnlock()

	asc := strings.EqualFold(filters.SortOrder, "asc")
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch filters.SortBy {
		case "total_score":
			less = a.TotalScore < b.TotalScore
		case "exposure_count":
			less = a.ExposureCount < b.ExposureCount
		default:
			less = a.StartedAt.Before(b.StartedAt)
		}
		if asc {
			return less
		}
		return !less && !equalSortKey(a, b, filters.SortBy)
	})

	total := int64(len(matched))
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	start := filters.Offset
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matches(s *models.Session, f repositories.SessionFilters) bool {
	if f.LearnerID != "" && s.LearnerID != f.LearnerID {
		return false
	}
	if f.State != nil && s.State != *f.State {
		return false
	}
	if f.DateFrom != nil && s.StartedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && s.StartedAt.After(*f.DateTo) {
		return false
	}
	return true
}

func equalSortKey(a, b *models.Session, sortBy string) bool {
	switch sortBy {
	case "total_score":
		return a.TotalScore == b.TotalScore
	case "exposure_count":
		return a.ExposureCount == b.ExposureCount
	default:
		return a.StartedAt.Equal(b.StartedAt)
	}
}

// copySession detaches the stored value from the caller's pointers
func copySession(in *models.Session) models.Session {
	out := *in
	out.TopicScope = append(out.TopicScope[:0:0], in.TopicScope...)
	if in.CurrentItemID != nil {
		id := *in.CurrentItemID
		out.CurrentItemID = &id
	}
	if in.CompletedAt != nil {
		t := *in.CompletedAt
		out.CompletedAt = &t
	}
	if in.TerminationReason != nil {
		r := *in.TerminationReason
		out.TerminationReason = &r
	}
	out.Exposures = nil
	return out
}
