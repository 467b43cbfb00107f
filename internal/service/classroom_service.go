package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smartclass/internal/board"
	"smartclass/internal/cache"
	"smartclass/internal/config"
	"smartclass/internal/model"
	"smartclass/internal/repository"
)

var (
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrClassroomNotLive  = errors.New("classroom is not live")
)

const defaultKeywordLimit = 10

// ClassroomService handles the classroom lifecycle and routes input to the
// live classroom runtimes.
type ClassroomService struct {
	logger         *zap.Logger
	sessionRepo    repository.SessionRepo
	lectureRepo    repository.LectureRepo
	classroomCache cache.ClassroomCache
	contextCache   cache.ContextCache
	keywordCache   cache.KeywordCache
	recorder       *Recorder
	pipeline       config.PipelineConfig
	catalog        []model.DiagramData
	loader         board.ImageLoader
	broadcaster    Broadcaster
	now            func() time.Time

	mu   sync.RWMutex
	live map[string]*Runtime
}

// NewClassroomService creates a new classroom service
func NewClassroomService(
	logger *zap.Logger,
	sessionRepo repository.SessionRepo,
	lectureRepo repository.LectureRepo,
	classroomCache cache.ClassroomCache,
	contextCache cache.ContextCache,
	keywordCache cache.KeywordCache,
	recorder *Recorder,
	pipeline config.PipelineConfig,
	catalog []model.DiagramData,
) *ClassroomService {
	return &ClassroomService{
		logger:         logger,
		sessionRepo:    sessionRepo,
		lectureRepo:    lectureRepo,
		classroomCache: classroomCache,
		contextCache:   contextCache,
		keywordCache:   keywordCache,
		recorder:       recorder,
		pipeline:       pipeline,
		catalog:        catalog,
		now:            time.Now,
		live:           make(map[string]*Runtime),
	}
}

// SetBroadcaster sets the WebSocket broadcaster (hub is built after services)
func (s *ClassroomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetImageLoader overrides how diagram images are fetched
func (s *ClassroomService) SetImageLoader(l board.ImageLoader) {
	s.loader = l
}

// Create opens a live classroom, records its lecture session and starts
// the classroom runtime.
func (s *ClassroomService) Create(ctx context.Context, teacherID string, req *model.CreateClassroomRequest) (*model.Classroom, error) {
	title := req.Title
	if req.LectureID != "" {
		lecture, err := s.lectureRepo.GetByID(ctx, req.LectureID)
		if err != nil {
			return nil, fmt.Errorf("failed to get lecture: %w", err)
		}
		if lecture == nil {
			return nil, ErrLectureNotFound
		}
		if lecture.TeacherID != teacherID {
			return nil, ErrForbidden
		}
		if title == "" {
			title = lecture.Title
		}
	}
	if title == "" {
		title = "Untitled lecture"
	}

	code, err := s.generateClassroomCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate classroom code: %w", err)
	}

	now := s.now()
	session := &model.LectureSession{
		TeacherID: teacherID,
		LectureID: req.LectureID,
		GroupID:   req.GroupID,
		Title:     title,
		Status:    model.SessionActive,
		StartedAt: now,
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create lecture session: %w", err)
	}

	classroom := &model.Classroom{
		ID:        code,
		TeacherID: teacherID,
		LectureID: req.LectureID,
		GroupID:   req.GroupID,
		SessionID: sessionID,
		Status:    model.ClassroomLive,
		CreatedAt: now,
	}
	if err := s.classroomCache.SetMeta(ctx, classroom); err != nil {
		return nil, fmt.Errorf("failed to cache classroom: %w", err)
	}

	rt := NewRuntime(s.logger, *classroom, RuntimeOptions{
		Pipeline:    s.pipeline,
		Catalog:     s.catalog,
		Broadcaster: s.broadcaster,
		Recorder:    s.recorder,
		Loader:      s.loader,
	})
	rt.Start()

	s.mu.Lock()
	s.live[code] = rt
	s.mu.Unlock()

	s.logger.Info("classroom started",
		zap.String("classroom", code),
		zap.String("session", sessionID),
		zap.String("teacher", teacherID))
	return classroom, nil
}

// Get returns a classroom the teacher owns, live or recently ended
func (s *ClassroomService) Get(ctx context.Context, teacherID, id string) (*model.Classroom, error) {
	var classroom *model.Classroom
	if rt := s.runtime(id); rt != nil {
		meta := rt.Meta()
		classroom = &meta
	} else {
		cached, err := s.classroomCache.GetMeta(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get classroom: %w", err)
		}
		classroom = cached
	}
	if classroom == nil {
		return nil, ErrClassroomNotFound
	}
	if classroom.TeacherID != teacherID {
		return nil, ErrForbidden
	}
	return classroom, nil
}

// State returns the live board state of a classroom
func (s *ClassroomService) State(ctx context.Context, teacherID, id string) (*model.ClassroomState, error) {
	rt, err := s.ownedRuntime(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	return rt.State(ctx)
}

// Canvas returns the live board display list
func (s *ClassroomService) Canvas(ctx context.Context, teacherID, id string) ([]board.Op, error) {
	rt, err := s.ownedRuntime(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	return rt.Canvas(ctx)
}

// End stops the classroom runtime and closes its lecture session
func (s *ClassroomService) End(ctx context.Context, teacherID, id string) error {
	classroom, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return err
	}
	if classroom.Status == model.ClassroomEnded {
		return nil
	}

	s.mu.Lock()
	rt := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if rt != nil {
		rt.Stop()
	}

	if err := s.sessionRepo.End(ctx, classroom.SessionID, s.now()); err != nil {
		return fmt.Errorf("failed to end lecture session: %w", err)
	}
	if err := s.classroomCache.SetStatus(ctx, id, model.ClassroomEnded); err != nil {
		return fmt.Errorf("failed to update classroom status: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.DisconnectClassroom(id)
	}

	s.logger.Info("classroom ended", zap.String("classroom", id))
	return nil
}

// HandleMessage routes a board client message to the live classroom
func (s *ClassroomService) HandleMessage(ctx context.Context, classroomID, msgType string, payload json.RawMessage) error {
	rt := s.runtime(classroomID)
	if rt == nil {
		return ErrClassroomNotLive
	}
	return rt.Dispatch(ctx, msgType, payload)
}

// Context returns the latest fused context; after the classroom ends the
// last cached snapshot is served until it expires.
func (s *ClassroomService) Context(ctx context.Context, teacherID, id string) (*model.FusedContext, error) {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return nil, err
	}
	if rt := s.runtime(id); rt != nil {
		return rt.Context(ctx)
	}
	return s.contextCache.GetContext(ctx, id)
}

// Suggestions returns the active suggestions of a classroom
func (s *ClassroomService) Suggestions(ctx context.Context, teacherID, id string) ([]model.SuggestionAction, error) {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return nil, err
	}
	if rt := s.runtime(id); rt != nil {
		return rt.Suggestions(ctx)
	}
	cached, err := s.contextCache.GetSuggestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return nonNil(cached), nil
}

// Keywords returns the most frequent keywords heard in a classroom
func (s *ClassroomService) Keywords(ctx context.Context, teacherID, id string, limit int) ([]model.KeywordCount, error) {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultKeywordLimit
	}
	return s.keywordCache.GetTop(ctx, id, limit)
}

// Dismiss removes an active suggestion
func (s *ClassroomService) Dismiss(ctx context.Context, teacherID, id, suggestionID string) error {
	rt, err := s.ownedRuntime(ctx, teacherID, id)
	if err != nil {
		return err
	}
	return rt.Dismiss(ctx, suggestionID)
}

// Act applies a suggestion button press
func (s *ClassroomService) Act(ctx context.Context, teacherID, id, suggestionID, action string) error {
	rt, err := s.ownedRuntime(ctx, teacherID, id)
	if err != nil {
		return err
	}
	return rt.Act(ctx, suggestionID, action)
}

// Shutdown stops every live runtime without ending their sessions
func (s *ClassroomService) Shutdown() {
	s.mu.Lock()
	live := s.live
	s.live = make(map[string]*Runtime)
	s.mu.Unlock()

	for id, rt := range live {
		rt.Stop()
		s.logger.Debug("classroom runtime stopped", zap.String("classroom", id))
	}
}

func (s *ClassroomService) runtime(id string) *Runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live[id]
}

func (s *ClassroomService) ownedRuntime(ctx context.Context, teacherID, id string) (*Runtime, error) {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return nil, err
	}
	rt := s.runtime(id)
	if rt == nil {
		return nil, ErrClassroomNotLive
	}
	return rt, nil
}

// generateClassroomCode creates a 6-char join code
func (s *ClassroomService) generateClassroomCode(ctx context.Context) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		exists, err := s.classroomCache.Exists(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if !exists {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique classroom code")
}
