package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"paircode/internal/cache"
	"paircode/internal/config"
	"paircode/internal/repository"
	"paircode/internal/service"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// App holds the connected stores and every service built on them
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client

	RoomRepo     repository.RoomStore
	TaskRepo     repository.TaskRepo
	FeedbackRepo repository.FeedbackRepo
	RoomCache    cache.RoomCache
	Live         service.LiveStore

	AuthService     *service.AuthService
	RoomService     *service.RoomService
	DriverService   *service.DriverService
	FileService     *service.FileService
	SessionService  *service.SessionService
	PresenceService *service.PresenceService
	FeedbackService *service.FeedbackService
	TaskService     *service.TaskService
}

// New connects to MongoDB and Redis and wires the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	log.Println("Connected to MongoDB")

	redisOpts, err := RedisOptions(cfg.RedisURI)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = mongoClient.Disconnect(ctx)
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	log.Println("Connected to Redis")

	a := Build(mongoClient.Database(cfg.MongoDB), rdb, cfg)
	a.Mongo = mongoClient
	return a, nil
}

// Build wires repositories, caches and services over existing connections
func Build(db *mongo.Database, rdb *redis.Client, cfg *config.Config) *App {
	a := &App{Redis: rdb}

	// Repositories
	a.RoomRepo = repository.NewRoomRepo(db)
	a.TaskRepo = repository.NewTaskRepo(db)
	a.FeedbackRepo = repository.NewFeedbackRepo(db)

	// Caches
	a.RoomCache = cache.NewRoomCache(rdb, cfg.RoomTTL)
	a.Live = service.LiveStore{
		Drivers:  cache.NewDriverCache(rdb, cfg.RoomTTL),
		Files:    cache.NewFileCache(rdb, cfg.RoomTTL),
		Presence: cache.NewPresenceCache(rdb, cfg.RoomTTL),
		Events:   cache.NewLiveEvents(rdb),
	}

	// Services
	a.AuthService = service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	a.RoomService = service.NewRoomService(a.RoomRepo, a.TaskRepo, a.FeedbackRepo, a.RoomCache, a.Live, a.AuthService, cfg.Durations())
	a.DriverService = service.NewDriverService(a.RoomService, a.Live)
	a.FileService = service.NewFileService(a.RoomService, a.TaskRepo, a.Live)
	a.SessionService = service.NewSessionService(a.RoomService, a.FileService, a.RoomRepo, a.Live, cfg.TickInterval)
	a.PresenceService = service.NewPresenceService(a.RoomService, a.Live)
	a.FeedbackService = service.NewFeedbackService(a.RoomService, a.TaskRepo, a.FeedbackRepo)
	a.TaskService = service.NewTaskService(a.TaskRepo)

	return a
}

// SetBroadcaster injects the broadcaster into every service that pushes events
func (a *App) SetBroadcaster(b service.Broadcaster) {
	a.RoomService.SetBroadcaster(b)
	a.DriverService.SetBroadcaster(b)
	a.FileService.SetBroadcaster(b)
	a.PresenceService.SetBroadcaster(b)
	a.FeedbackService.SetBroadcaster(b)
}

// Close releases the store connections
func (a *App) Close(ctx context.Context) {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("Warning: failed to close Redis: %v", err)
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Printf("Warning: failed to disconnect MongoDB: %v", err)
		}
	}
}

// RedisOptions accepts either a redis:// URL or a bare host:port
func RedisOptions(uri string) (*redis.Options, error) {
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URI: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: uri}, nil
}
