// Package capture wraps a continuous speech recognizer and keeps a rolling
// buffer of keyword-tagged utterances.
package capture

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"smartclass/internal/model"
	"smartclass/internal/speech"
)

const retention = 60 * time.Second

var ErrPermissionDenied = errors.New("microphone permission denied")

// SpeechCapture turns recognizer results into utterances. Like the board
// session it is owned by a single goroutine.
type SpeechCapture struct {
	logger     *zap.Logger
	recognizer Recognizer
	now        func() time.Time

	listening   bool
	onUtterance func(model.Utterance)
	onError     func(error)
	buffer      []model.Utterance
}

func NewSpeechCapture(logger *zap.Logger, recognizer Recognizer, now func() time.Time) *SpeechCapture {
	if now == nil {
		now = time.Now
	}
	return &SpeechCapture{logger: logger, recognizer: recognizer, now: now}
}

// SetErrorHandler registers the handler for fatal recognition errors
func (c *SpeechCapture) SetErrorHandler(fn func(error)) {
	c.onError = fn
}

// Start begins continuous listening. When recognition is unsupported the
// call only logs; callers check IsSupported to disable their controls.
func (c *SpeechCapture) Start(onUtterance func(model.Utterance)) {
	if !c.IsSupported() {
		c.logger.Warn("speech recognition not supported")
		return
	}

	c.onUtterance = onUtterance
	c.listening = true
	if err := c.recognizer.Start(sink{c}); err != nil {
		c.logger.Error("start speech recognition", zap.Error(err))
	}
}

func (c *SpeechCapture) Stop() {
	if c.recognizer == nil {
		return
	}
	c.listening = false
	c.recognizer.Stop()
}

func (c *SpeechCapture) IsSupported() bool {
	return c.recognizer != nil && c.recognizer.Supported()
}

func (c *SpeechCapture) IsListening() bool {
	return c.listening
}

// RecentTranscripts returns utterances newer than window
func (c *SpeechCapture) RecentTranscripts(window time.Duration) []model.Utterance {
	cutoff := c.now().Add(-window).UnixMilli()
	var out []model.Utterance
	for _, u := range c.buffer {
		if u.Timestamp > cutoff {
			out = append(out, u)
		}
	}
	return out
}

func (c *SpeechCapture) handleResult(r Result) {
	u := model.Utterance{
		Text:       r.Text,
		Timestamp:  c.now().UnixMilli(),
		Confidence: r.Confidence,
		Keywords:   speech.ExtractKeywords(r.Text),
	}
	c.logger.Debug("speech recognized",
		zap.String("text", u.Text),
		zap.Float64("confidence", u.Confidence))

	c.buffer = append(c.buffer, u)
	c.cleanupOldTranscripts()

	if c.onUtterance != nil {
		c.onUtterance(u)
	}
}

func (c *SpeechCapture) handleError(code string) {
	switch code {
	case ErrCodeNotAllowed, ErrCodeServiceNotAllowed:
		c.logger.Warn("microphone permission denied", zap.String("code", code))
		c.listening = false
		c.recognizer.Stop()
		if c.onError != nil {
			c.onError(ErrPermissionDenied)
		}
	case ErrCodeNoSpeech:
		c.logger.Debug("no speech detected, continuing to listen")
	default:
		c.logger.Info("speech recognition error", zap.String("code", code))
	}
}

func (c *SpeechCapture) handleEnd() {
	if !c.listening {
		c.logger.Debug("speech recognition ended")
		return
	}
	c.logger.Debug("restarting speech recognition")
	if err := c.recognizer.Start(sink{c}); err != nil {
		c.logger.Error("restart speech recognition", zap.Error(err))
	}
}

func (c *SpeechCapture) cleanupOldTranscripts() {
	cutoff := c.now().Add(-retention).UnixMilli()
	kept := c.buffer[:0]
	for _, u := range c.buffer {
		if u.Timestamp > cutoff {
			kept = append(kept, u)
		}
	}
	c.buffer = kept
}

type sink struct {
	c *SpeechCapture
}

func (s sink) OnResult(r Result)   { s.c.handleResult(r) }
func (s sink) OnError(code string) { s.c.handleError(code) }
func (s sink) OnEnd()              { s.c.handleEnd() }
