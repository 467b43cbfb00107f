package model

import "time"

type ClassroomStatus string

const (
	ClassroomLive  ClassroomStatus = "live"
	ClassroomEnded ClassroomStatus = "ended"
)

// Classroom is a live lecture in progress on one board
type Classroom struct {
	ID        string          `json:"id"`
	TeacherID string          `json:"teacherId"`
	LectureID string          `json:"lectureId,omitempty"`
	GroupID   string          `json:"groupId,omitempty"`
	SessionID string          `json:"sessionId"` // LectureSession record
	Status    ClassroomStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CreateClassroomRequest opens a live classroom, optionally for a planned lecture
type CreateClassroomRequest struct {
	LectureID string `json:"lectureId,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	Title     string `json:"title,omitempty"`
}

// ClassroomState is the live board and listening state of a classroom
type ClassroomState struct {
	Classroom       Classroom `json:"classroom"`
	Tool            string    `json:"tool"`
	Color           string    `json:"color"`
	LineWidth       float64   `json:"lineWidth"`
	CanUndo         bool      `json:"canUndo"`
	CanRedo         bool      `json:"canRedo"`
	Listening       bool      `json:"listening"`
	SpeechSupported bool      `json:"speechSupported"`
}

// SuggestionActionRequest is the body of a suggestion button press
type SuggestionActionRequest struct {
	SuggestionID string `json:"suggestionId"`
	Action       string `json:"action"`
}
