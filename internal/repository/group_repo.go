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

// GroupRepo handles MongoDB operations for student groups
type GroupRepo interface {
	Create(ctx context.Context, group *model.Group) (string, error)
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
}

type groupRepo struct {
	collection *mongo.Collection
}

func NewGroupRepo(db *mongo.Database) GroupRepo {
	return &groupRepo{
		collection: db.Collection("groups"),
	}
}

func (r *groupRepo) Create(ctx context.Context, group *model.Group) (string, error) {
	group.ID = uuid.New().String()
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt

	if _, err := r.collection.InsertOne(ctx, group); err != nil {
		return "", err
	}
	return group.ID, nil
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Group not found
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"teacherId": teacherID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []*model.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepo) Update(ctx context.Context, group *model.Group) error {
	group.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": group.ID}, bson.M{"$set": bson.M{
		"name":        group.Name,
		"description": group.Description,
		"updatedAt":   group.UpdatedAt,
	}})
	return err
}

func (r *groupRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
