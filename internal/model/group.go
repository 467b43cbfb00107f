package model

import "time"

// Group is a class of students a teacher lectures to
type Group struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	TeacherID   string    `json:"teacherId" bson:"teacherId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
