package service

import (
	"context"
	"fmt"
	"math"

	"smartclass/internal/model"
	"smartclass/internal/repository"
)

const defaultHistoryLimit = 50

// HistoryService serves a teacher's past lecture sessions
type HistoryService struct {
	sessionRepo repository.SessionRepo
	lectureRepo repository.LectureRepo
	groupRepo   repository.GroupRepo
}

// NewHistoryService creates a new history service
func NewHistoryService(
	sessionRepo repository.SessionRepo,
	lectureRepo repository.LectureRepo,
	groupRepo repository.GroupRepo,
) *HistoryService {
	return &HistoryService{
		sessionRepo: sessionRepo,
		lectureRepo: lectureRepo,
		groupRepo:   groupRepo,
	}
}

// List returns the teacher's sessions, newest first, without transcripts
func (s *HistoryService) List(ctx context.Context, teacherID string, limit int64) ([]*model.SessionOverview, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	sessions, err := s.sessionRepo.GetByTeacherID(ctx, teacherID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	// Sessions of the same lecture or group share lookups
	lectures := map[string]*model.Lecture{}
	groups := map[string]*model.Group{}

	out := make([]*model.SessionOverview, 0, len(sessions))
	for _, session := range sessions {
		overview, err := s.overview(ctx, session, lectures, groups)
		if err != nil {
			return nil, err
		}
		out = append(out, overview)
	}
	return out, nil
}

// Get returns one session with its transcript, summary and suggestion log
func (s *HistoryService) Get(ctx context.Context, teacherID, id string) (*model.SessionOverview, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.TeacherID != teacherID {
		return nil, ErrSessionNotFound
	}
	return s.overview(ctx, session, map[string]*model.Lecture{}, map[string]*model.Group{})
}

func (s *HistoryService) overview(ctx context.Context, session *model.LectureSession, lectures map[string]*model.Lecture, groups map[string]*model.Group) (*model.SessionOverview, error) {
	overview := &model.SessionOverview{Session: session}

	if session.EndedAt != nil {
		overview.DurationMinutes = int(math.Round(session.EndedAt.Sub(session.StartedAt).Minutes()))
	}

	if id := session.LectureID; id != "" {
		lecture, ok := lectures[id]
		if !ok {
			var err error
			if lecture, err = s.lectureRepo.GetByID(ctx, id); err != nil {
				return nil, fmt.Errorf("failed to get lecture: %w", err)
			}
			lectures[id] = lecture
		}
		if lecture != nil {
			overview.LectureTitle = lecture.Title
			overview.LectureSubject = lecture.Subject
		}
	}

	if id := session.GroupID; id != "" {
		group, ok := groups[id]
		if !ok {
			var err error
			if group, err = s.groupRepo.GetByID(ctx, id); err != nil {
				return nil, fmt.Errorf("failed to get group: %w", err)
			}
			groups[id] = group
		}
		if group != nil {
			overview.GroupName = group.Name
		}
	}

	return overview, nil
}
