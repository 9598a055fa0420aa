package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrEventTypeEmpty    = errors.New("event_type is required")
	ErrSessionStyleEmpty = errors.New("style is required")
	ErrProjectNameEmpty  = errors.New("name is required")
)

// ActivityService records the events, sessions and projects that the
// temporal and pattern engines read.
type ActivityService struct {
	activity domain.ActivityStore
	archive  domain.ArchiveStore
	clock    domain.Clock
	logger   *zap.Logger
}

func NewActivityService(as domain.ActivityStore, archive domain.ArchiveStore, clock domain.Clock, logger *zap.Logger) *ActivityService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ActivityService{activity: as, archive: archive, clock: clock, logger: logger}
}

func (s *ActivityService) RecordEvent(ctx context.Context, e *domain.Event) error {
	if strings.TrimSpace(e.EventType) == "" {
		return ErrEventTypeEmpty
	}
	if e.Created.IsZero() {
		e.Created = s.clock.Now()
	}
	return s.activity.CreateEvent(ctx, e)
}

func (s *ActivityService) RecordSession(ctx context.Context, sess *domain.Session) error {
	if strings.TrimSpace(sess.Style) == "" {
		return ErrSessionStyleEmpty
	}
	if sess.Started.IsZero() {
		sess.Started = s.clock.Now()
	}
	return s.activity.CreateSession(ctx, sess)
}

func (s *ActivityService) UpsertProject(ctx context.Context, p *domain.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProjectNameEmpty
	}
	now := s.clock.Now()
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Started.IsZero() {
		p.Started = now
	}
	if p.LastActive.IsZero() {
		p.LastActive = now
	}
	return s.activity.UpsertProject(ctx, p)
}

func (s *ActivityService) ListArchive(ctx context.Context, limit int) ([]domain.ArchiveEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	entries, err := s.archive.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.ArchiveEntry{}
	}
	return entries, nil
}
