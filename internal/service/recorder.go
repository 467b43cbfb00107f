package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smartclass/internal/cache"
	"smartclass/internal/model"
	"smartclass/internal/repository"
)

const (
	recorderQueueSize = 256
	recorderTimeout   = 5 * time.Second
)

type recordJob struct {
	name string
	fn   func(ctx context.Context) error
}

// Recorder persists classroom activity to Mongo and Redis off the classroom
// loops. Jobs are dropped, not blocked on, when the queue is full.
type Recorder struct {
	logger   *zap.Logger
	sessions repository.SessionRepo
	contexts cache.ContextCache
	keywords cache.KeywordCache
	jobs     chan recordJob
}

// NewRecorder creates a recorder; call Run to start writing
func NewRecorder(logger *zap.Logger, sessions repository.SessionRepo, contexts cache.ContextCache, keywords cache.KeywordCache) *Recorder {
	return &Recorder{
		logger:   logger,
		sessions: sessions,
		contexts: contexts,
		keywords: keywords,
		jobs:     make(chan recordJob, recorderQueueSize),
	}
}

// Run executes queued jobs until ctx is cancelled, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush(context.WithoutCancel(ctx))
			return nil
		case job := <-r.jobs:
			r.exec(ctx, job)
		}
	}
}

func (r *Recorder) flush(ctx context.Context) {
	for {
		select {
		case job := <-r.jobs:
			r.exec(ctx, job)
		default:
			return
		}
	}
}

func (r *Recorder) exec(ctx context.Context, job recordJob) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recorder job panicked", zap.String("job", job.name), zap.Any("panic", rec))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, recorderTimeout)
	defer cancel()
	if err := job.fn(ctx); err != nil {
		r.logger.Warn("recorder job failed", zap.String("job", job.name), zap.Error(err))
	}
}

func (r *Recorder) enqueue(name string, fn func(ctx context.Context) error) {
	if r == nil {
		return
	}
	select {
	case r.jobs <- recordJob{name: name, fn: fn}:
	default:
		r.logger.Warn("recorder queue full, dropping job", zap.String("job", name))
	}
}

// RecordUtterance appends to the session transcript and counts keywords
func (r *Recorder) RecordUtterance(sessionID, classroomID string, u model.Utterance) {
	r.enqueue("append_transcript", func(ctx context.Context) error {
		return r.sessions.AppendTranscript(ctx, sessionID, u.Text)
	})
	if len(u.Keywords) == 0 {
		return
	}
	r.enqueue("count_keywords", func(ctx context.Context) error {
		return r.keywords.Increment(ctx, classroomID, u.Keywords)
	})
}

// RecordSnapshot caches the latest fused context and active suggestions
func (r *Recorder) RecordSnapshot(classroomID string, fused model.FusedContext, suggestions []model.SuggestionAction) {
	r.enqueue("cache_context", func(ctx context.Context) error {
		if err := r.contexts.SetContext(ctx, classroomID, &fused); err != nil {
			return err
		}
		return r.contexts.SetSuggestions(ctx, classroomID, suggestions)
	})
}

// RecordSuggestions caches the active suggestions alone, after a dismissal
func (r *Recorder) RecordSuggestions(classroomID string, suggestions []model.SuggestionAction) {
	r.enqueue("cache_suggestions", func(ctx context.Context) error {
		return r.contexts.SetSuggestions(ctx, classroomID, suggestions)
	})
}

// RecordAction logs a suggestion the teacher acted on
func (r *Recorder) RecordAction(sessionID string, entry model.SuggestionLog) {
	r.enqueue("log_suggestion", func(ctx context.Context) error {
		return r.sessions.AddSuggestionLog(ctx, sessionID, entry)
	})
}
