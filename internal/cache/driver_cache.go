package cache

import (
	"context"
	"time"

	"paircode/internal/driver"

	"github.com/redis/go-redis/v9"
)

// DriverCache holds the driver token of each room.
// Set is a plain overwrite; the store resolves concurrent writers last-write-wins.
type DriverCache interface {
	Get(ctx context.Context, roomID string) (driver.Token, error)
	Set(ctx context.Context, roomID, identity string) error
	ReleaseIf(ctx context.Context, roomID, identity string) (bool, error)
	Clear(ctx context.Context, roomID string) error
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type driverCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDriverCache creates a new driver token cache
func NewDriverCache(client *redis.Client, ttl time.Duration) DriverCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &driverCache{client: client, ttl: ttl}
}

func (c *driverCache) key(roomID string) string {
	return liveKey(roomID, "driver")
}

func (c *driverCache) Get(ctx context.Context, roomID string) (driver.Token, error) {
	id, err := c.client.Get(ctx, c.key(roomID)).Result()
	if err == redis.Nil {
		return driver.Token{}, nil
	}
	if err != nil {
		return driver.Token{}, storeErr("get driver", err)
	}
	return driver.Token{DriverID: id}, nil
}

func (c *driverCache) Set(ctx context.Context, roomID, identity string) error {
	if identity == "" {
		return c.Clear(ctx, roomID)
	}
	if err := c.client.Set(ctx, c.key(roomID), identity, c.ttl).Err(); err != nil {
		return storeErr("set driver", err)
	}
	return nil
}

// ReleaseIf deletes the token only while identity still holds it
func (c *driverCache) ReleaseIf(ctx context.Context, roomID, identity string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.client, []string{c.key(roomID)}, identity).Int()
	if err != nil {
		return false, storeErr("release driver", err)
	}
	return n > 0, nil
}

func (c *driverCache) Clear(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, c.key(roomID)).Err(); err != nil {
		return storeErr("clear driver", err)
	}
	return nil
}
