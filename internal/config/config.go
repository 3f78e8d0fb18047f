package config

import (
	"fmt"
	"time"

	"paircode/internal/model"
	"paircode/internal/phase"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Storage
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"paircode"`
	RedisURI string `env:"REDIS_URI" envDefault:"localhost:6379"`

	// HTTP
	Port           string `env:"PORT" envDefault:"8080"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Auth
	JWTSecret    string `env:"JWT_SECRET" envDefault:"super-secret-key-change-in-production"`
	HostUsername string `env:"HOST_USERNAME" envDefault:"admin"`
	HostPassword string `env:"HOST_PASSWORD" envDefault:"password123"`

	// Session timing
	PhaseSchedule      string        `env:"PHASE_SCHEDULE" envDefault:"@every 1m"`
	TickInterval       time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	RoomTTL            time.Duration `env:"ROOM_TTL" envDefault:"24h"`
	ToneDuration       time.Duration `env:"TONE_DURATION" envDefault:"5m"`
	CodingDuration     time.Duration `env:"CODING_DURATION" envDefault:"45m"`
	ReflectionDuration time.Duration `env:"REFLECTION_DURATION" envDefault:"10m"`
}

// Load parses the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Durations builds the phase schedule. Untimed phases stay at zero.
func (c *Config) Durations() phase.Durations {
	return phase.Durations{
		model.PhaseWaiting:    0,
		model.PhaseTone:       c.ToneDuration,
		model.PhaseCoding:     c.CodingDuration,
		model.PhaseReflection: c.ReflectionDuration,
		model.PhaseEnded:      0,
	}
}
