package capture

import (
	"errors"
	"sync"
)

// Recognition error codes reported by the transcription source
const (
	ErrCodeNoSpeech          = "no-speech"
	ErrCodeAborted           = "aborted"
	ErrCodeAudioCapture      = "audio-capture"
	ErrCodeNetwork           = "network"
	ErrCodeNotAllowed        = "not-allowed"
	ErrCodeServiceNotAllowed = "service-not-allowed"
)

var ErrAlreadyStarted = errors.New("recognition already started")
var ErrUnsupported = errors.New("speech recognition not supported")

// Result is one finalized utterance from the recognizer
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Sink receives recognizer notifications. Calls are never concurrent.
type Sink interface {
	OnResult(r Result)
	OnError(code string)
	OnEnd()
}

// Recognizer is a continuous speech-to-text source
type Recognizer interface {
	Supported() bool
	Start(sink Sink) error
	Stop()
}

// RemoteRecognizer is fed by a connected board client that runs speech
// recognition itself. The client reports support and pushes results; the
// control func tells it to start or stop listening.
type RemoteRecognizer struct {
	mu        sync.Mutex
	supported bool
	running   bool
	sink      Sink
	control   func(listening bool)
}

func NewRemoteRecognizer(control func(listening bool)) *RemoteRecognizer {
	return &RemoteRecognizer{control: control}
}

// SetSupported records whether the client can recognize speech
func (r *RemoteRecognizer) SetSupported(supported bool) {
	r.mu.Lock()
	r.supported = supported
	r.mu.Unlock()
}

func (r *RemoteRecognizer) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported
}

func (r *RemoteRecognizer) Start(sink Sink) error {
	r.mu.Lock()
	if !r.supported {
		r.mu.Unlock()
		return ErrUnsupported
	}
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.running = true
	r.sink = sink
	r.mu.Unlock()

	if r.control != nil {
		r.control(true)
	}
	return nil
}

func (r *RemoteRecognizer) Stop() {
	r.mu.Lock()
	wasRunning := r.running
	r.running = false
	r.mu.Unlock()

	if wasRunning && r.control != nil {
		r.control(false)
	}
}

// Running reports whether the client was asked to listen
func (r *RemoteRecognizer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Deliver forwards a client result; results after Stop are dropped.
func (r *RemoteRecognizer) Deliver(res Result) {
	if sink := r.activeSink(); sink != nil {
		sink.OnResult(res)
	}
}

// Fail forwards a client recognition error
func (r *RemoteRecognizer) Fail(code string) {
	if sink := r.activeSink(); sink != nil {
		sink.OnError(code)
	}
}

// End reports that the client's recognition session finished
func (r *RemoteRecognizer) End() {
	r.mu.Lock()
	sink := r.sink
	r.running = false
	r.mu.Unlock()

	if sink != nil {
		sink.OnEnd()
	}
}

func (r *RemoteRecognizer) activeSink() Sink {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	return r.sink
}
