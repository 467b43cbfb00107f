package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"smartclass/internal/board"
	"smartclass/internal/model"
)

type sentMessage struct {
	classroomID string
	msgType     string
	payload     interface{}
}

// recordingBroadcaster captures everything a runtime pushes to clients
type recordingBroadcaster struct {
	mu           sync.Mutex
	messages     []sentMessage
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToClassroom(classroomID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, sentMessage{classroomID, msgType, payload})
}

func (b *recordingBroadcaster) DisconnectClassroom(classroomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, classroomID)
}

func (b *recordingBroadcaster) ofType(msgType string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []interface{}
	for _, m := range b.messages {
		if m.msgType == msgType {
			out = append(out, m.payload)
		}
	}
	return out
}

func (b *recordingBroadcaster) last(msgType string) (interface{}, bool) {
	all := b.ofType(msgType)
	if len(all) == 0 {
		return nil, false
	}
	return all[len(all)-1], true
}

type stubLoader struct{}

func (stubLoader) Load(_ context.Context, url string) (board.ImageRef, error) {
	return board.ImageRef{URL: url, ContentType: "image/png", Bytes: 42}, nil
}

// In-memory repositories

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.LectureSession
	seq      int
	failGet  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.LectureSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.LectureSession) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("session-%d", r.seq)
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return s.ID, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.LectureSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) GetByTeacherID(_ context.Context, teacherID string, limit int64) ([]*model.LectureSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.LectureSession
	for _, s := range r.sessions {
		if s.TeacherID == teacherID {
			cp := *s
			cp.Transcript = ""
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) AppendTranscript(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errors.New("no such session")
	}
	if s.Transcript != "" {
		s.Transcript += " "
	}
	s.Transcript += text
	return nil
}

func (r *fakeSessionRepo) AddSuggestionLog(_ context.Context, id string, entry model.SuggestionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errors.New("no such session")
	}
	s.Suggestions = append(s.Suggestions, entry)
	return nil
}

func (r *fakeSessionRepo) SetSummary(_ context.Context, id, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errors.New("no such session")
	}
	s.Summary = summary
	return nil
}

func (r *fakeSessionRepo) End(_ context.Context, id string, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errors.New("no such session")
	}
	s.Status = model.SessionEnded
	s.EndedAt = &endedAt
	return nil
}

func (r *fakeSessionRepo) get(id string) model.LectureSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return *s
	}
	return model.LectureSession{}
}

type fakeLectureRepo struct {
	lectures map[string]*model.Lecture
	gets     int
}

func (r *fakeLectureRepo) Create(_ context.Context, l *model.Lecture) (string, error) {
	if r.lectures == nil {
		r.lectures = map[string]*model.Lecture{}
	}
	if l.ID == "" {
		l.ID = fmt.Sprintf("lecture-%d", len(r.lectures)+1)
	}
	r.lectures[l.ID] = l
	return l.ID, nil
}

func (r *fakeLectureRepo) GetByID(_ context.Context, id string) (*model.Lecture, error) {
	r.gets++
	return r.lectures[id], nil
}

func (r *fakeLectureRepo) GetByTeacherID(_ context.Context, teacherID string) ([]*model.Lecture, error) {
	var out []*model.Lecture
	for _, l := range r.lectures {
		if l.TeacherID == teacherID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLectureRepo) Update(_ context.Context, l *model.Lecture) error {
	r.lectures[l.ID] = l
	return nil
}

func (r *fakeLectureRepo) Delete(_ context.Context, id string) error {
	delete(r.lectures, id)
	return nil
}

type fakeGroupRepo struct {
	groups map[string]*model.Group
}

func (r *fakeGroupRepo) Create(_ context.Context, g *model.Group) (string, error) {
	if r.groups == nil {
		r.groups = map[string]*model.Group{}
	}
	if g.ID == "" {
		g.ID = fmt.Sprintf("group-%d", len(r.groups)+1)
	}
	r.groups[g.ID] = g
	return g.ID, nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	return r.groups[id], nil
}

func (r *fakeGroupRepo) GetByTeacherID(_ context.Context, teacherID string) ([]*model.Group, error) {
	var out []*model.Group
	for _, g := range r.groups {
		if g.TeacherID == teacherID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) Update(_ context.Context, g *model.Group) error {
	r.groups[g.ID] = g
	return nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, id string) error {
	delete(r.groups, id)
	return nil
}

// In-memory caches

type fakeClassroomCache struct {
	mu    sync.Mutex
	metas map[string]model.Classroom
}

func newFakeClassroomCache() *fakeClassroomCache {
	return &fakeClassroomCache{metas: map[string]model.Classroom{}}
}

func (c *fakeClassroomCache) SetMeta(_ context.Context, classroom *model.Classroom) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metas[classroom.ID] = *classroom
	return nil
}

func (c *fakeClassroomCache) GetMeta(_ context.Context, id string) (*model.Classroom, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.metas[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (c *fakeClassroomCache) SetStatus(_ context.Context, id string, status model.ClassroomStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.metas[id]
	if !ok {
		return errors.New("classroom not cached")
	}
	m.Status = status
	c.metas[id] = m
	return nil
}

func (c *fakeClassroomCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.metas, id)
	return nil
}

func (c *fakeClassroomCache) Exists(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.metas[id]
	return ok, nil
}

type fakeContextCache struct {
	mu          sync.Mutex
	contexts    map[string]model.FusedContext
	suggestions map[string][]model.SuggestionAction
}

func newFakeContextCache() *fakeContextCache {
	return &fakeContextCache{
		contexts:    map[string]model.FusedContext{},
		suggestions: map[string][]model.SuggestionAction{},
	}
}

func (c *fakeContextCache) SetContext(_ context.Context, id string, fused *model.FusedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts[id] = *fused
	return nil
}

func (c *fakeContextCache) GetContext(_ context.Context, id string) (*model.FusedContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.contexts[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (c *fakeContextCache) SetSuggestions(_ context.Context, id string, s []model.SuggestionAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestions[id] = s
	return nil
}

func (c *fakeContextCache) GetSuggestions(_ context.Context, id string) ([]model.SuggestionAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suggestions[id], nil
}

func (c *fakeContextCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contexts, id)
	delete(c.suggestions, id)
	return nil
}

type fakeKeywordCache struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

func newFakeKeywordCache() *fakeKeywordCache {
	return &fakeKeywordCache{counts: map[string]map[string]int{}}
}

func (c *fakeKeywordCache) Increment(_ context.Context, id string, keywords []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[id] == nil {
		c.counts[id] = map[string]int{}
	}
	for _, kw := range keywords {
		c.counts[id][kw]++
	}
	return nil
}

func (c *fakeKeywordCache) GetTop(_ context.Context, id string, limit int) ([]model.KeywordCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []model.KeywordCount{}
	for kw, n := range c.counts[id] {
		out = append(out, model.KeywordCount{Keyword: kw, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeKeywordCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, id)
	return nil
}

// fakeGenerator answers every prompt with the same text or error
type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
	models  []string
}

func (g *fakeGenerator) Generate(_ context.Context, modelName, prompt string, _ bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.models = append(g.models, modelName)
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}
