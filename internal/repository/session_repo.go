package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"smartclass/internal/model"
)

// SessionRepo handles MongoDB operations for delivered lecture sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.LectureSession) (string, error)
	GetByID(ctx context.Context, id string) (*model.LectureSession, error)
	GetByTeacherID(ctx context.Context, teacherID string, limit int64) ([]*model.LectureSession, error)

	// Live updates, written while the classroom runs
	AppendTranscript(ctx context.Context, id, text string) error
	AddSuggestionLog(ctx context.Context, id string, entry model.SuggestionLog) error

	SetSummary(ctx context.Context, id, summary string) error
	End(ctx context.Context, id string, endedAt time.Time) error
}

type sessionRepo struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewSessionRepo creates a new session repository with indexes
func NewSessionRepo(db *mongo.Database, logger *zap.Logger) SessionRepo {
	repo := &sessionRepo{
		collection: db.Collection("lecture_sessions"),
		logger:     logger,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *sessionRepo) ensureIndexes(ctx context.Context) {
	r.createIndex(ctx, bson.D{
		{Key: "teacherId", Value: 1},
		{Key: "startedAt", Value: -1},
	})
	r.createIndex(ctx, bson.D{{Key: "lectureId", Value: 1}})
}

func (r *sessionRepo) createIndex(ctx context.Context, keys bson.D) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys})
	if err != nil {
		r.logger.Warn("failed to create index",
			zap.String("collection", r.collection.Name()),
			zap.Error(err))
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.LectureSession) (string, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	if session.Status == "" {
		session.Status = model.SessionActive
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return "", err
	}
	return session.ID, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.LectureSession, error) {
	var session model.LectureSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByTeacherID(ctx context.Context, teacherID string, limit int64) ([]*model.LectureSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetProjection(bson.M{"transcript": 0, "suggestions": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"teacherId": teacherID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*model.LectureSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendTranscript concatenates text to the stored transcript with a
// separating space.
func (r *sessionRepo) AppendTranscript(ctx context.Context, id, text string) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"transcript": bson.M{"$trim": bson.M{"input": bson.M{
				"$concat": bson.A{bson.M{"$ifNull": bson.A{"$transcript", ""}}, " ", bson.M{"$literal": text}},
			}}},
		}}},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	return err
}

func (r *sessionRepo) AddSuggestionLog(ctx context.Context, id string, entry model.SuggestionLog) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"suggestions": entry},
	})
	return err
}

func (r *sessionRepo) SetSummary(ctx context.Context, id, summary string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"summary": summary},
	})
	return err
}

func (r *sessionRepo) End(ctx context.Context, id string, endedAt time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": model.SessionEnded, "endedAt": endedAt},
	})
	return err
}
