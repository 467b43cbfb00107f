package model

import "time"

// Lecture is a lecture plan created by a teacher
type Lecture struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	TeacherID   string    `json:"teacherId" bson:"teacherId"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Subject     string    `json:"subject" bson:"subject"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
