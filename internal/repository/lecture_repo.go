package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartclass/internal/model"
)

// LectureRepo handles MongoDB operations for lecture plans
type LectureRepo interface {
	Create(ctx context.Context, lecture *model.Lecture) (string, error)
	GetByID(ctx context.Context, id string) (*model.Lecture, error)
	GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Lecture, error)
	Update(ctx context.Context, lecture *model.Lecture) error
	Delete(ctx context.Context, id string) error
}

type lectureRepo struct {
	collection *mongo.Collection
}

// NewLectureRepo creates a new lecture repository
func NewLectureRepo(db *mongo.Database) LectureRepo {
	return &lectureRepo{
		collection: db.Collection("lectures"),
	}
}

func (r *lectureRepo) Create(ctx context.Context, lecture *model.Lecture) (string, error) {
	lecture.ID = uuid.New().String()
	lecture.CreatedAt = time.Now()
	lecture.UpdatedAt = lecture.CreatedAt

	if _, err := r.collection.InsertOne(ctx, lecture); err != nil {
		return "", err
	}
	return lecture.ID, nil
}

func (r *lectureRepo) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	var lecture model.Lecture
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lecture)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *lectureRepo) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Lecture, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"teacherId": teacherID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lectures := []*model.Lecture{}
	if err := cursor.All(ctx, &lectures); err != nil {
		return nil, err
	}
	return lectures, nil
}

func (r *lectureRepo) Update(ctx context.Context, lecture *model.Lecture) error {
	lecture.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": lecture.ID}, bson.M{"$set": bson.M{
		"title":       lecture.Title,
		"description": lecture.Description,
		"subject":     lecture.Subject,
		"updatedAt":   lecture.UpdatedAt,
	}})
	return err
}

func (r *lectureRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
