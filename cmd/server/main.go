package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paircode/internal/app"
	"paircode/internal/config"
	"paircode/internal/scheduler"
	"paircode/internal/transport/rest"
	"paircode/internal/transport/ws"

	"github.com/joho/godotenv"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: no .env file loaded, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close(context.Background())

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Inject broadcaster (wsHub implements service.Broadcaster)
	a.SetBroadcaster(wsHub)

	// Phase timers
	sched := scheduler.New(cfg.PhaseSchedule, a.RoomService.AdvanceExpired)
	if err := sched.Start(); err != nil {
		log.Fatal("Failed to start phase scheduler:", err)
	}

	container := &rest.Container{
		AuthService:     a.AuthService,
		RoomService:     a.RoomService,
		DriverService:   a.DriverService,
		FileService:     a.FileService,
		SessionService:  a.SessionService,
		PresenceService: a.PresenceService,
		FeedbackService: a.FeedbackService,
		TaskService:     a.TaskService,
		WSHub:           wsHub,
		AllowedOrigins:  cfg.AllowedOrigins,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Printf("Host auth: username=%s", cfg.HostUsername)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/join")
		log.Println("  POST/GET /v1/rooms")
		log.Println("  GET  /v1/rooms/{roomId}/session")
		log.Println("  POST /v1/rooms/{roomId}/phase")
		log.Println("  POST /v1/rooms/{roomId}/driver")
		log.Println("  PUT  /v1/rooms/{roomId}/files/{path}")
		log.Println("  GET/POST /v1/tasks")
		log.Println("  WS  /v1/ws/rooms/{roomId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
