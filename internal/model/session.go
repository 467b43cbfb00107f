package model

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// LectureSession is the persisted record of one delivered lecture
type LectureSession struct {
	ID          string          `json:"id" bson:"_id,omitempty"`
	TeacherID   string          `json:"teacherId" bson:"teacherId"`
	LectureID   string          `json:"lectureId,omitempty" bson:"lectureId,omitempty"`
	GroupID     string          `json:"groupId,omitempty" bson:"groupId,omitempty"`
	Title       string          `json:"title" bson:"title"`
	Status      SessionStatus   `json:"status" bson:"status"`
	Transcript  string          `json:"transcript" bson:"transcript"`
	Summary     string          `json:"summary,omitempty" bson:"summary,omitempty"`
	Suggestions []SuggestionLog `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
	StartedAt   time.Time       `json:"startedAt" bson:"startedAt"`
	EndedAt     *time.Time      `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// SuggestionLog records a suggestion the teacher acted on
type SuggestionLog struct {
	SuggestionID string         `json:"suggestionId" bson:"suggestionId"`
	Type         AssistanceType `json:"type" bson:"type"`
	Message      string         `json:"message" bson:"message"`
	Action       string         `json:"action" bson:"action"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
}

// SessionOverview is a history entry with its lecture and group resolved
type SessionOverview struct {
	Session         *LectureSession `json:"session"`
	LectureTitle    string          `json:"lectureTitle,omitempty"`
	LectureSubject  string          `json:"lectureSubject,omitempty"`
	GroupName       string          `json:"groupName,omitempty"`
	DurationMinutes int             `json:"durationMinutes,omitempty"`
}
