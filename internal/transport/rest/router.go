package rest

import (
	"net/http"

	"paircode/internal/service"
	"paircode/internal/transport/rest/handler"
	"paircode/internal/transport/rest/middleware"
	"paircode/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	RoomService     *service.RoomService
	DriverService   *service.DriverService
	FileService     *service.FileService
	SessionService  *service.SessionService
	PresenceService *service.PresenceService
	FeedbackService *service.FeedbackService
	TaskService     *service.TaskService
	WSHub           *ws.Hub
	AllowedOrigins  string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.RoomService)
	roomHandler := handler.NewRoomHandler(c.RoomService, c.SessionService, c.PresenceService)
	editorHandler := handler.NewEditorHandler(c.DriverService, c.FileService)
	feedbackHandler := handler.NewFeedbackHandler(c.FeedbackService)
	taskHandler := handler.NewTaskHandler(c.TaskService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SessionService, c.PresenceService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.Handle("/join", authMW.OptionalUser(http.HandlerFunc(authHandler.Join))).Methods("POST", "OPTIONS")
	v1.HandleFunc("/reflection-questions", feedbackHandler.Questions).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/rooms/{roomId}", wsHandler.RoomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Interviewer routes (require login token)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/rooms", roomHandler.List).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/tasks", taskHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/tasks/{taskId}", taskHandler.Update).Methods("PUT", "OPTIONS")
	hostRoutes.HandleFunc("/tasks/{taskId}", taskHandler.Delete).Methods("DELETE", "OPTIONS")

	// Room member routes; per-room role is checked by the services
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/tasks", taskHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/tasks/{taskId}", taskHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}", roomHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}", roomHandler.Delete).Methods("DELETE", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/session", roomHandler.Session).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/phase", roomHandler.AdvancePhase).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/hand", roomHandler.ToggleHand).Methods("POST", "OPTIONS")

	userRoutes.HandleFunc("/rooms/{roomId}/driver", editorHandler.AcquireDriver).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/driver", editorHandler.ReleaseDriver).Methods("DELETE", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/driver/force", editorHandler.ForceTakeDriver).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/files", editorHandler.ListFiles).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/files/{path:.+}", editorHandler.UpdateFile).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/active-file", editorHandler.SwitchFile).Methods("PUT", "OPTIONS")

	userRoutes.HandleFunc("/rooms/{roomId}/reflection", feedbackHandler.GetReflection).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/reflection", feedbackHandler.SaveReflection).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/notes", feedbackHandler.GetNotes).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/notes", feedbackHandler.SaveNotes).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/summary", feedbackHandler.Summary).Methods("GET", "OPTIONS")

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
