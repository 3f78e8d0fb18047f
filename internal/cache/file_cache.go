package cache

import (
	"context"
	"time"

	"paircode/internal/files"

	"github.com/redis/go-redis/v9"
)

// FileCache holds a room's shared files as a hash plus an active-file pointer
type FileCache interface {
	Get(ctx context.Context, roomID string) (*files.Registry, error)
	Seed(ctx context.Context, roomID string, contents map[string]string, active string) (bool, error)
	Put(ctx context.Context, roomID, path, content string) error
	SetActive(ctx context.Context, roomID, path string) (bool, error)
	Clear(ctx context.Context, roomID string) error
}

// seedScript writes the initial files only if none exist yet.
// ARGV: ttl seconds, active path, then path/content pairs.
var seedScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
for i = 3, #ARGV, 2 do
	redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call("SET", KEYS[2], ARGV[2])
redis.call("EXPIRE", KEYS[1], ARGV[1])
redis.call("EXPIRE", KEYS[2], ARGV[1])
return 1
`)

var setActiveScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	redis.call("SET", KEYS[2], ARGV[1], "EX", ARGV[2])
	return 1
end
return 0
`)

type fileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFileCache creates a new file registry cache
func NewFileCache(client *redis.Client, ttl time.Duration) FileCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &fileCache{client: client, ttl: ttl}
}

func (c *fileCache) filesKey(roomID string) string {
	return liveKey(roomID, "files")
}

func (c *fileCache) activeKey(roomID string) string {
	return liveKey(roomID, "active")
}

func (c *fileCache) Get(ctx context.Context, roomID string) (*files.Registry, error) {
	var all *redis.MapStringStringCmd
	var active *redis.StringCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, c.filesKey(roomID))
		active = pipe.Get(ctx, c.activeKey(roomID))
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, storeErr("get files", err)
	}
	contents, err := all.Result()
	if err != nil {
		return nil, storeErr("get files", err)
	}
	pointer, err := active.Result()
	if err != nil && err != redis.Nil {
		return nil, storeErr("get active file", err)
	}
	return files.NewRegistry(contents, pointer), nil
}

// Seed reports whether this call won the race to populate the room
func (c *fileCache) Seed(ctx context.Context, roomID string, contents map[string]string, active string) (bool, error) {
	if len(contents) == 0 {
		return false, nil
	}
	args := make([]interface{}, 0, 2+2*len(contents))
	args = append(args, int(c.ttl/time.Second), active)
	for path, content := range contents {
		args = append(args, path, content)
	}
	n, err := seedScript.Run(ctx, c.client, []string{c.filesKey(roomID), c.activeKey(roomID)}, args...).Int()
	if err != nil {
		return false, storeErr("seed files", err)
	}
	return n == 1, nil
}

func (c *fileCache) Put(ctx context.Context, roomID, path, content string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.filesKey(roomID), path, content)
		pipe.Expire(ctx, c.filesKey(roomID), c.ttl)
		pipe.SetNX(ctx, c.activeKey(roomID), path, c.ttl)
		pipe.Expire(ctx, c.activeKey(roomID), c.ttl)
		return nil
	})
	if err != nil {
		return storeErr("put file", err)
	}
	return nil
}

// SetActive moves the pointer only to an existing file
func (c *fileCache) SetActive(ctx context.Context, roomID, path string) (bool, error) {
	n, err := setActiveScript.Run(ctx, c.client, []string{c.filesKey(roomID), c.activeKey(roomID)}, path, int(c.ttl/time.Second)).Int()
	if err != nil {
		return false, storeErr("set active file", err)
	}
	return n == 1, nil
}

func (c *fileCache) Clear(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, c.filesKey(roomID), c.activeKey(roomID)).Err(); err != nil {
		return storeErr("clear files", err)
	}
	return nil
}
