package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"smartclass/internal/board"
	"smartclass/internal/capture"
	"smartclass/internal/config"
	"smartclass/internal/fusion"
	"smartclass/internal/model"
	"smartclass/internal/suggest"
)

var (
	ErrClassroomClosed = errors.New("classroom is closed")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrDiagramNotFound = errors.New("diagram not found")
)

const (
	inboxSize       = 64
	defaultFontSize = 16
)

// Where and how large suggested diagrams are placed on the board
var (
	diagramPosition = model.Point{X: 50, Y: 50}
	diagramSize     = board.Size{Width: 400, Height: 400}
)

// RuntimeOptions wires a Runtime to its collaborators
type RuntimeOptions struct {
	Pipeline    config.PipelineConfig
	Catalog     []model.DiagramData
	Broadcaster Broadcaster
	Recorder    *Recorder
	Loader      board.ImageLoader
	Now         func() time.Time
}

// Runtime is one live classroom. A single goroutine owns the board, speech
// capture, fusion and suggestion state; everything else reaches it by
// posting closures to the inbox.
type Runtime struct {
	meta     model.Classroom
	logger   *zap.Logger
	pipeline config.PipelineConfig
	out      Broadcaster
	recorder *Recorder
	now      func() time.Time

	board      *board.Session
	recognizer *capture.RemoteRecognizer
	speech     *capture.SpeechCapture
	fusion     *fusion.Fusion
	engine     *suggest.Engine

	inbox    chan func()
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewRuntime builds the classroom state; call Start to run its loop
func NewRuntime(logger *zap.Logger, meta model.Classroom, opts RuntimeOptions) *Runtime {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := opts.Pipeline

	r := &Runtime{
		meta:     meta,
		logger:   logger.With(zap.String("classroom", meta.ID)),
		pipeline: p,
		out:      opts.Broadcaster,
		recorder: opts.Recorder,
		now:      opts.Now,
		inbox:    make(chan func(), inboxSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	r.board = board.NewSession(r.logger, board.Options{
		Loader:   opts.Loader,
		Renderer: boardRenderer{r},
		Post:     func(fn func()) { r.post(fn) },
		Now:      opts.Now,
	})
	r.board.OnEvent(r.onBoardEvent)

	r.recognizer = capture.NewRemoteRecognizer(r.broadcastListening)
	r.speech = capture.NewSpeechCapture(r.logger, r.recognizer, opts.Now)
	r.speech.SetErrorHandler(r.onSpeechError)

	r.fusion = fusion.New(fusion.Windows{
		Speech:    p.SpeechWindow(),
		Board:     p.BoardWindow(),
		Retention: p.Retention(),
	}, opts.Now)

	r.engine = suggest.NewEngine(r.logger, opts.Catalog, suggest.Options{
		MaxSuggestions:        p.MaxSuggestions,
		ConfidenceThreshold:   p.ConfidenceThreshold,
		SuggestionTimeout:     p.SuggestionTimeout(),
		EnableShapeCorrection: p.EnableShapeCorrection,
		Now:                   opts.Now,
	})
	return r
}

// Meta returns the classroom record the runtime was started with
func (r *Runtime) Meta() model.Classroom {
	return r.meta
}

// Start runs the classroom loop in its own goroutine
func (r *Runtime) Start() {
	go r.run()
}

func (r *Runtime) run() {
	defer close(r.stopped)
	for {
		select {
		case fn := <-r.inbox:
			fn()
		case <-r.done:
			r.speech.Stop()
			return
		}
	}
}

// Stop ends the loop and waits for it to exit. Queued work is discarded.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	<-r.stopped
}

func (r *Runtime) send(ctx context.Context, fn func()) error {
	select {
	case <-r.done:
		return ErrClassroomClosed
	default:
	}
	select {
	case r.inbox <- fn:
		return nil
	case <-r.done:
		return ErrClassroomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime) post(fn func()) bool {
	return r.send(context.Background(), fn) == nil
}

// Do runs fn on the classroom loop and waits for it to finish
func (r *Runtime) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := r.send(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-r.stopped:
		return ErrClassroomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context returns the latest fused context, nil before any input arrived
func (r *Runtime) Context(ctx context.Context) (*model.FusedContext, error) {
	var (
		fused model.FusedContext
		ok    bool
	)
	if err := r.Do(ctx, func() { fused, ok = r.fusion.Context() }); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &fused, nil
}

// Suggestions returns the active, unexpired suggestions
func (r *Runtime) Suggestions(ctx context.Context) ([]model.SuggestionAction, error) {
	var active []model.SuggestionAction
	if err := r.Do(ctx, func() { active = nonNil(r.engine.Active()) }); err != nil {
		return nil, err
	}
	return active, nil
}

// State reports the board tool and listening state
func (r *Runtime) State(ctx context.Context) (*model.ClassroomState, error) {
	var state model.ClassroomState
	err := r.Do(ctx, func() {
		state = model.ClassroomState{
			Classroom:       r.meta,
			Tool:            string(r.board.Tool()),
			Color:           r.board.Color(),
			LineWidth:       r.board.LineWidth(),
			CanUndo:         r.board.CanUndo(),
			CanRedo:         r.board.CanRedo(),
			Listening:       r.speech.IsListening(),
			SpeechSupported: r.speech.IsSupported(),
		}
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Act handles a suggestion button press
func (r *Runtime) Act(ctx context.Context, suggestionID, action string) error {
	var actErr error
	if err := r.Do(ctx, func() { actErr = r.handleAction(suggestionID, action) }); err != nil {
		return err
	}
	return actErr
}

// Dismiss removes a suggestion from the active set
func (r *Runtime) Dismiss(ctx context.Context, suggestionID string) error {
	return r.Do(ctx, func() { r.dismiss(suggestionID) })
}

// Canvas returns a copy of the board display list
func (r *Runtime) Canvas(ctx context.Context) ([]board.Op, error) {
	var ops []board.Op
	if err := r.Do(ctx, func() { ops = r.board.Canvas() }); err != nil {
		return nil, err
	}
	return ops, nil
}

// Inbound payloads

type pointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type textPayload struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
}

type toolPayload struct {
	Tool string `json:"tool"`
}

type colorPayload struct {
	Color string `json:"color"`
}

type lineWidthPayload struct {
	Width float64 `json:"width"`
}

type recognitionErrorPayload struct {
	Code string `json:"code"`
}

type speechSupportPayload struct {
	Supported bool `json:"supported"`
}

type dismissPayload struct {
	ID string `json:"id"`
}

// Dispatch decodes a board client message and queues it on the loop.
// Malformed messages are rejected before anything is queued.
func (r *Runtime) Dispatch(ctx context.Context, msgType string, payload json.RawMessage) error {
	fn, err := r.decode(msgType, payload)
	if err != nil {
		return err
	}
	return r.send(ctx, fn)
}

func (r *Runtime) decode(msgType string, payload json.RawMessage) (func(), error) {
	switch msgType {
	case MsgPointerDown, MsgPointerMove, MsgTouchStart, MsgTouchMove:
		var p pointerPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		pt := model.Point{X: p.X, Y: p.Y}
		switch msgType {
		case MsgPointerDown:
			return func() { r.board.PointerDown(pt) }, nil
		case MsgPointerMove:
			return func() { r.board.PointerMove(pt) }, nil
		case MsgTouchStart:
			return func() { r.board.TouchStart(pt) }, nil
		default:
			return func() { r.board.TouchMove(pt) }, nil
		}

	case MsgPointerUp, MsgTouchEnd:
		return func() {
			r.board.PointerUp()
			r.broadcastHistory()
		}, nil

	case MsgPointerLeave:
		return func() {
			r.board.PointerLeave()
			r.broadcastHistory()
		}, nil

	case MsgPlaceText:
		var p textPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Text) == "" {
			return nil, fmt.Errorf("%w: empty text", ErrInvalidMessage)
		}
		if p.FontSize <= 0 {
			p.FontSize = defaultFontSize
		}
		return func() { r.board.PlaceText(p.Text, model.Point{X: p.X, Y: p.Y}, p.FontSize) }, nil

	case MsgSetTool:
		var p toolPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		tool := board.Tool(p.Tool)
		switch tool {
		case board.ToolPen, board.ToolEraser, board.ToolText:
		default:
			return nil, fmt.Errorf("%w: unknown tool %q", ErrInvalidMessage, p.Tool)
		}
		return func() {
			r.board.SetTool(tool)
			r.broadcastTool()
		}, nil

	case MsgSetColor:
		var p colorPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		return func() {
			r.board.SetColor(p.Color)
			r.broadcastTool()
		}, nil

	case MsgSetLineWidth:
		var p lineWidthPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		return func() {
			r.board.SetLineWidth(p.Width)
			r.broadcastTool()
		}, nil

	case MsgUndo:
		return func() {
			r.board.Undo()
			r.broadcastHistory()
		}, nil

	case MsgRedo:
		return func() {
			r.board.Redo()
			r.broadcastHistory()
		}, nil

	case MsgClear:
		return func() {
			r.board.Clear()
			r.broadcastHistory()
		}, nil

	case MsgUtterance:
		var res capture.Result
		if err := unmarshalPayload(payload, &res); err != nil {
			return nil, err
		}
		return func() { r.recognizer.Deliver(res) }, nil

	case MsgRecognitionError:
		var p recognitionErrorPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		return func() { r.recognizer.Fail(p.Code) }, nil

	case MsgRecognitionEnded:
		return func() { r.recognizer.End() }, nil

	case MsgSpeechSupport:
		var p speechSupportPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		return func() { r.recognizer.SetSupported(p.Supported) }, nil

	case MsgStartListening:
		return func() {
			r.speech.Start(r.onUtterance)
			if !r.speech.IsListening() {
				r.broadcastListening(false)
			}
		}, nil

	case MsgStopListening:
		return func() { r.speech.Stop() }, nil

	case MsgSuggestionAction:
		var p model.SuggestionActionRequest
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		return func() {
			if err := r.handleAction(p.SuggestionID, p.Action); err != nil {
				r.broadcastError(err)
			}
		}, nil

	case MsgDismissSuggestion:
		var p dismissPayload
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		return func() { r.dismiss(p.ID) }, nil
	}

	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, msgType)
}

func unmarshalPayload(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidMessage)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// Loop-side handlers

func (r *Runtime) onBoardEvent(e model.BoardEvent) {
	r.broadcast(MsgBoardEvent, e)
	r.refresh(r.fusion.UpdateBoard(e))
}

func (r *Runtime) onUtterance(u model.Utterance) {
	r.recorder.RecordUtterance(r.meta.SessionID, r.meta.ID, u)
	r.refresh(r.fusion.UpdateSpeech(u))
}

// refresh publishes a new fused context and, when proactive suggestions are
// on, the suggestions generated from it.
func (r *Runtime) refresh(fused model.FusedContext) {
	var suggestions []model.SuggestionAction
	if r.pipeline.EnableProactiveSuggestions {
		suggestions = r.engine.Generate(fused)
	} else {
		suggestions = r.engine.Active()
	}
	suggestions = nonNil(suggestions)

	r.broadcast(MsgContextUpdate, fused)
	r.broadcast(MsgSuggestionsUpdate, suggestions)
	r.recorder.RecordSnapshot(r.meta.ID, fused, suggestions)
}

func (r *Runtime) onSpeechError(err error) {
	r.logger.Warn("speech capture stopped", zap.Error(err))
	r.broadcastError(err)
}

// handleAction applies a suggestion button. The suggestion is dismissed
// whatever the action, even when applying it failed.
func (r *Runtime) handleAction(suggestionID, action string) error {
	s, found := r.engine.Find(suggestionID)
	verb, arg := suggest.ParseAction(action)

	var err error
	switch verb {
	case model.ActionDismiss:
	case model.ActionDisplayDiagram:
		err = r.displayDiagram(arg, s, found)
	case model.ActionCorrectShape:
		var corrected model.Shape
		if corrected, err = r.board.CorrectShape(arg); err == nil {
			r.broadcastHistory()
			r.replaceShape(corrected)
		}
	default:
		r.logger.Debug("unhandled suggestion action", zap.String("action", action))
	}

	if found {
		r.recorder.RecordAction(r.meta.SessionID, model.SuggestionLog{
			SuggestionID: s.ID,
			Type:         s.Type,
			Message:      s.Message,
			Action:       action,
			CreatedAt:    r.now(),
		})
	}
	r.dismiss(suggestionID)

	if err != nil {
		r.logger.Warn("suggestion action failed",
			zap.String("suggestion", suggestionID),
			zap.String("action", action),
			zap.Error(err))
	}
	return err
}

// replaceShape puts the corrected shape into the fused context so it is not
// offered for correction again.
func (r *Runtime) replaceShape(shp model.Shape) {
	fused, ok := r.fusion.ReplaceShape(shp)
	if !ok {
		return
	}
	r.broadcast(MsgContextUpdate, fused)
	r.recorder.RecordSnapshot(r.meta.ID, fused, nonNil(r.engine.Active()))
}

func (r *Runtime) displayDiagram(id string, s model.SuggestionAction, found bool) error {
	var imageURL string
	if strings.HasPrefix(id, suggest.DynamicPrefix) {
		// Dynamic diagrams exist only in the suggestion that offered them
		if found && s.Metadata != nil && s.Metadata.Diagram != nil {
			imageURL = s.Metadata.Diagram.ImageURL
		}
	} else if d, ok := r.engine.DiagramByID(id); ok {
		imageURL = d.ImageURL
	}
	if imageURL == "" {
		return fmt.Errorf("%w: %s", ErrDiagramNotFound, id)
	}

	r.board.DisplayImage(imageURL, diagramPosition, diagramSize)
	return nil
}

func (r *Runtime) dismiss(id string) {
	r.engine.Dismiss(id)
	active := nonNil(r.engine.Active())
	r.broadcast(MsgSuggestionsUpdate, active)
	r.recorder.RecordSuggestions(r.meta.ID, active)
}

// Outbound

type boardRenderer struct {
	r *Runtime
}

func (b boardRenderer) Render(cmd board.Command) {
	b.r.broadcast(MsgBoardCommand, cmd)
}

func (r *Runtime) broadcast(msgType string, payload interface{}) {
	if r.out != nil {
		r.out.BroadcastToClassroom(r.meta.ID, msgType, payload)
	}
}

func (r *Runtime) broadcastHistory() {
	r.broadcast(MsgHistoryState, map[string]bool{
		"canUndo": r.board.CanUndo(),
		"canRedo": r.board.CanRedo(),
	})
}

func (r *Runtime) broadcastTool() {
	r.broadcast(MsgToolState, map[string]interface{}{
		"tool":      r.board.Tool(),
		"color":     r.board.Color(),
		"lineWidth": r.board.LineWidth(),
	})
}

func (r *Runtime) broadcastListening(listening bool) {
	r.broadcast(MsgListeningState, map[string]bool{
		"listening": listening,
		"supported": r.recognizer.Supported(),
	})
}

func (r *Runtime) broadcastError(err error) {
	r.broadcast(MsgError, map[string]string{"message": err.Error()})
}

func nonNil(s []model.SuggestionAction) []model.SuggestionAction {
	if s == nil {
		return []model.SuggestionAction{}
	}
	return s
}
