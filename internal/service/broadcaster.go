package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToClassroom(classroomID string, msgType string, payload interface{})
	DisconnectClassroom(classroomID string)
}

// Outbound message types pushed to board clients
const (
	MsgContextUpdate     = "context_update"
	MsgSuggestionsUpdate = "suggestions_update"
	MsgBoardEvent        = "board_event"
	MsgBoardCommand      = "board_command"
	MsgHistoryState      = "history_state"
	MsgListeningState    = "listening_state"
	MsgToolState         = "tool_state"
	MsgError             = "error"
)

// Inbound message types sent by board clients
const (
	MsgPointerDown       = "pointer_down"
	MsgPointerMove       = "pointer_move"
	MsgPointerUp         = "pointer_up"
	MsgPointerLeave      = "pointer_leave"
	MsgTouchStart        = "touch_start"
	MsgTouchMove         = "touch_move"
	MsgTouchEnd          = "touch_end"
	MsgPlaceText         = "place_text"
	MsgSetTool           = "set_tool"
	MsgSetColor          = "set_color"
	MsgSetLineWidth      = "set_line_width"
	MsgUndo              = "undo"
	MsgRedo              = "redo"
	MsgClear             = "clear"
	MsgUtterance         = "utterance"
	MsgRecognitionError  = "recognition_error"
	MsgRecognitionEnded  = "recognition_ended"
	MsgSpeechSupport     = "speech_support"
	MsgStartListening    = "start_listening"
	MsgStopListening     = "stop_listening"
	MsgSuggestionAction  = "suggestion_action"
	MsgDismissSuggestion = "dismiss_suggestion"
)
