package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartclass/internal/model"
)

type fakeRecognizer struct {
	supported bool
	starts    int
	stops     int
	startErr  error
	sink      Sink
}

func (f *fakeRecognizer) Supported() bool { return f.supported }

func (f *fakeRecognizer) Start(s Sink) error {
	f.starts++
	f.sink = s
	return f.startErr
}

func (f *fakeRecognizer) Stop() { f.stops++ }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newCapture(rec Recognizer) (*SpeechCapture, *fakeClock) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	return NewSpeechCapture(zap.NewNop(), rec, clock.now), clock
}

func TestSpeechCapture_UnsupportedIsNoOp(t *testing.T) {
	rec := &fakeRecognizer{}
	c, _ := newCapture(rec)

	c.Start(func(model.Utterance) { t.Fatal("unexpected utterance") })
	assert.False(t, c.IsSupported())
	assert.False(t, c.IsListening())
	assert.Zero(t, rec.starts)
}

func TestSpeechCapture_NilRecognizer(t *testing.T) {
	c, _ := newCapture(nil)
	c.Start(nil)
	c.Stop()
	assert.False(t, c.IsSupported())
}

func TestSpeechCapture_ResultTaggedAndBuffered(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c, clock := newCapture(rec)

	var got []model.Utterance
	c.Start(func(u model.Utterance) { got = append(got, u) })
	require.True(t, c.IsListening())
	require.Equal(t, 1, rec.starts)

	rec.sink.OnResult(Result{Text: "Now let's look at the benzene molecule", Confidence: 0.92})

	require.Len(t, got, 1)
	assert.Equal(t, clock.t.UnixMilli(), got[0].Timestamp)
	assert.Equal(t, 0.92, got[0].Confidence)
	assert.Equal(t, []string{"benzene", "molecule"}, got[0].Keywords)
	assert.Len(t, c.RecentTranscripts(30*time.Second), 1)
}

func TestSpeechCapture_EvictsAfterRetention(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c, clock := newCapture(rec)
	c.Start(func(model.Utterance) {})

	rec.sink.OnResult(Result{Text: "first"})
	clock.t = clock.t.Add(61 * time.Second)
	rec.sink.OnResult(Result{Text: "second"})

	recent := c.RecentTranscripts(time.Hour)
	require.Len(t, recent, 1)
	assert.Equal(t, "second", recent[0].Text)
}

func TestSpeechCapture_RestartsOnEnd(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c, _ := newCapture(rec)
	c.Start(func(model.Utterance) {})

	for i := 0; i < 5; i++ {
		rec.sink.OnEnd()
	}
	assert.Equal(t, 6, rec.starts)

	rec.startErr = errors.New("busy")
	rec.sink.OnEnd()
	assert.True(t, c.IsListening())
}

func TestSpeechCapture_NoRestartAfterStop(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c, _ := newCapture(rec)
	c.Start(func(model.Utterance) {})
	c.Stop()
	rec.sink.OnEnd()

	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 1, rec.stops)
	assert.False(t, c.IsListening())
}

func TestSpeechCapture_TransientErrorKeepsListening(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c, _ := newCapture(rec)
	c.SetErrorHandler(func(error) { t.Fatal("unexpected error report") })
	c.Start(func(model.Utterance) {})

	rec.sink.OnError(ErrCodeNoSpeech)
	rec.sink.OnError(ErrCodeNetwork)
	assert.True(t, c.IsListening())
	assert.Zero(t, rec.stops)
}

func TestSpeechCapture_PermissionDeniedStops(t *testing.T) {
	rec := &fakeRecognizer{supported: true}
	c, _ := newCapture(rec)
	var reported error
	c.SetErrorHandler(func(err error) { reported = err })
	c.Start(func(model.Utterance) {})

	rec.sink.OnError(ErrCodeNotAllowed)
	assert.ErrorIs(t, reported, ErrPermissionDenied)
	assert.False(t, c.IsListening())

	rec.sink.OnEnd()
	assert.Equal(t, 1, rec.starts)
}

func TestRemoteRecognizer(t *testing.T) {
	var states []bool
	r := NewRemoteRecognizer(func(on bool) { states = append(states, on) })

	rec := &recordingSink{}
	assert.ErrorIs(t, r.Start(rec), ErrUnsupported)

	r.SetSupported(true)
	require.NoError(t, r.Start(rec))
	assert.ErrorIs(t, r.Start(rec), ErrAlreadyStarted)

	r.Deliver(Result{Text: "hello", Confidence: 0.8})
	r.Fail(ErrCodeNoSpeech)
	r.End()
	assert.False(t, r.Running())

	// dropped once the session ended
	r.Deliver(Result{Text: "late"})

	require.NoError(t, r.Start(rec))
	r.Stop()
	r.Stop()

	assert.Equal(t, []Result{{Text: "hello", Confidence: 0.8}}, rec.results)
	assert.Equal(t, []string{ErrCodeNoSpeech}, rec.errors)
	assert.Equal(t, 1, rec.ends)
	assert.Equal(t, []bool{true, true, false}, states)
}

type recordingSink struct {
	results []Result
	errors  []string
	ends    int
}

func (s *recordingSink) OnResult(r Result)   { s.results = append(s.results, r) }
func (s *recordingSink) OnError(code string) { s.errors = append(s.errors, code) }
func (s *recordingSink) OnEnd()              { s.ends++ }
