package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"smartclass/internal/config"
	"smartclass/internal/model"
	"smartclass/internal/repository"
	"smartclass/internal/service"
)

// seed creates sample lectures and groups for the configured teacher
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Mongo.Database)
	lectureRepo := repository.NewLectureRepo(db)
	groupRepo := repository.NewGroupRepo(db)

	// Same id the teacher gets at login
	teacherID := service.TeacherID(cfg.Auth.Username)

	lectures := []model.Lecture{
		{
			Title:       "Aromatic Compounds",
			Description: "Benzene, resonance and why the ring is so stable.",
			Subject:     "chemistry",
		},
		{
			Title:       "Inside the Cell",
			Description: "Organelles of the animal cell with a focus on mitochondria.",
			Subject:     "biology",
		},
		{
			Title:       "Simple Circuits",
			Description: "Batteries, resistors and Ohm's law on the breadboard.",
			Subject:     "physics",
		},
	}
	for i := range lectures {
		lectures[i].TeacherID = teacherID
		id, err := lectureRepo.Create(ctx, &lectures[i])
		if err != nil {
			logger.Fatal("failed to insert lecture", zap.String("title", lectures[i].Title), zap.Error(err))
		}
		logger.Info("lecture created", zap.String("id", id), zap.String("title", lectures[i].Title))
	}

	groups := []model.Group{
		{Name: "Year 10 Science", Description: "Tuesday and Thursday mornings"},
		{Name: "Year 12 Chemistry", Description: "Exam preparation group"},
	}
	for i := range groups {
		groups[i].TeacherID = teacherID
		id, err := groupRepo.Create(ctx, &groups[i])
		if err != nil {
			logger.Fatal("failed to insert group", zap.String("name", groups[i].Name), zap.Error(err))
		}
		logger.Info("group created", zap.String("id", id), zap.String("name", groups[i].Name))
	}

	fmt.Printf("Seeded %d lectures and %d groups for teacher '%s'\n", len(lectures), len(groups), teacherID)
}
