package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"smartclass/internal/model"
	"smartclass/internal/service"
	"smartclass/internal/transport/rest/handler"
	"smartclass/internal/transport/rest/middleware"
	"smartclass/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Logger           *zap.Logger
	AuthService      *service.AuthService
	LectureService   *service.LectureService
	GroupService     *service.GroupService
	ClassroomService *service.ClassroomService
	HistoryService   *service.HistoryService
	Assistant        *service.AssistantService
	Catalog          []model.DiagramData
	WSHub            *ws.Hub
	AllowedOrigins   string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	lectureHandler := handler.NewLectureHandler(c.LectureService, c.GroupService)
	classroomHandler := handler.NewClassroomHandler(c.ClassroomService)
	historyHandler := handler.NewHistoryHandler(c.HistoryService)
	diagramHandler := handler.NewDiagramHandler(c.Catalog)
	aiHandler := handler.NewAIHandler(c.Assistant)
	wsHandler := ws.NewHandler(c.Logger, c.WSHub, c.AuthService, c.ClassroomService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/diagrams", diagramHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/diagrams/{id}", diagramHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/classrooms/{id}", wsHandler.ClassroomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Teacher routes (require teacher auth)
	teacher := v1.NewRoute().Subrouter()
	teacher.Use(authMW.RequireTeacher)

	teacher.HandleFunc("/lectures", lectureHandler.CreateLecture).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/lectures", lectureHandler.ListLectures).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/lectures/{id}", lectureHandler.GetLecture).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/lectures/{id}", lectureHandler.UpdateLecture).Methods("PUT", "OPTIONS")
	teacher.HandleFunc("/lectures/{id}", lectureHandler.DeleteLecture).Methods("DELETE", "OPTIONS")

	teacher.HandleFunc("/groups", lectureHandler.CreateGroup).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/groups", lectureHandler.ListGroups).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/groups/{id}", lectureHandler.GetGroup).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/groups/{id}", lectureHandler.UpdateGroup).Methods("PUT", "OPTIONS")
	teacher.HandleFunc("/groups/{id}", lectureHandler.DeleteGroup).Methods("DELETE", "OPTIONS")

	teacher.HandleFunc("/classrooms", classroomHandler.Create).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}", classroomHandler.Get).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/end", classroomHandler.End).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/state", classroomHandler.State).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/canvas", classroomHandler.Canvas).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/context", classroomHandler.Context).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/keywords", classroomHandler.Keywords).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/suggestions", classroomHandler.Suggestions).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/suggestions/{sid}", classroomHandler.Dismiss).Methods("DELETE", "OPTIONS")
	teacher.HandleFunc("/classrooms/{id}/suggestions/{sid}/actions", classroomHandler.Act).Methods("POST", "OPTIONS")

	teacher.HandleFunc("/history", historyHandler.List).Methods("GET", "OPTIONS")
	teacher.HandleFunc("/history/{id}", historyHandler.Get).Methods("GET", "OPTIONS")

	teacher.HandleFunc("/ai/analyze-speech", aiHandler.AnalyzeSpeech).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/ai/analyze-drawing", aiHandler.AnalyzeDrawing).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/ai/suggest-visual", aiHandler.SuggestVisual).Methods("POST", "OPTIONS")
	teacher.HandleFunc("/ai/generate-summary", aiHandler.GenerateSummary).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
