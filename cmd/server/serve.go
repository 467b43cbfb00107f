package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"smartclass/internal/cache"
	"smartclass/internal/repository"
	"smartclass/internal/service"
	"smartclass/internal/suggest"
	"smartclass/internal/transport/rest"
	"smartclass/internal/transport/ws"
)

const pingTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loaded
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("AI config",
		zap.String("speech", cfg.AI.Models.SpeechAnalysis),
		zap.String("drawing", cfg.AI.Models.DrawingAnalysis),
		zap.String("visual", cfg.AI.Models.VisualSuggestion),
		zap.String("summary", cfg.AI.Models.Summary),
		zap.Bool("enabled", cfg.AI.IsEnabled()))

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	catalog, err := suggest.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	logger.Info("diagram catalog loaded", zap.Int("diagrams", len(catalog)))

	var generator service.TextGenerator
	if cfg.AI.IsEnabled() {
		client, err := service.NewGeminiClient(ctx, logger, cfg.AI.APIKey)
		if err != nil {
			return err
		}
		generator = client
	} else {
		logger.Warn("GEMINI_API_KEY not set, assistant uses local heuristics")
	}

	// Initialize repositories
	lectureRepo := repository.NewLectureRepo(db)
	groupRepo := repository.NewGroupRepo(db)
	sessionRepo := repository.NewSessionRepo(db, logger)

	// Initialize caches
	classroomCache := cache.NewClassroomCache(rdb)
	contextCache := cache.NewContextCache(rdb, cfg.Pipeline.Retention())
	keywordCache := cache.NewKeywordCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.Auth)
	lectureSvc := service.NewLectureService(lectureRepo)
	groupSvc := service.NewGroupService(groupRepo)
	recorder := service.NewRecorder(logger, sessionRepo, contextCache, keywordCache)
	classroomSvc := service.NewClassroomService(logger, sessionRepo, lectureRepo,
		classroomCache, contextCache, keywordCache, recorder, cfg.Pipeline, catalog)
	historySvc := service.NewHistoryService(sessionRepo, lectureRepo, groupRepo)
	assistant := service.NewAssistantService(logger, cfg.AI, generator, sessionRepo, catalog)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	wsHub := ws.NewHub(logger)
	classroomSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		Logger:           logger,
		AuthService:      authSvc,
		LectureService:   lectureSvc,
		GroupService:     groupSvc,
		ClassroomService: classroomSvc,
		HistoryService:   historySvc,
		Assistant:        assistant,
		Catalog:          catalog,
		WSHub:            wsHub,
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The recorder outlives the classrooms so their final writes are flushed
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return wsHub.Run(gctx) })
	g.Go(func() error { return recorder.Run(recorderCtx) })
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("teacher", cfg.Auth.Username))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		classroomSvc.Shutdown()
		stopRecorder()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("server exited")
	return err
}
