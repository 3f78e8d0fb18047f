package cache

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache tracks who is connected to a room and who has a hand raised
type PresenceCache interface {
	ToggleHand(ctx context.Context, roomID, userID string) (bool, error)
	RaisedHands(ctx context.Context, roomID string) ([]string, error)
	Touch(ctx context.Context, roomID, userID string, at time.Time) (bool, error)
	Leave(ctx context.Context, roomID, userID string) error
	Online(ctx context.Context, roomID string, since time.Time) ([]string, error)
	Clear(ctx context.Context, roomID string) error
}

var toggleHandScript = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 1 then
	redis.call("SREM", KEYS[1], ARGV[1])
	return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
return 1
`)

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceCache creates a new presence cache
func NewPresenceCache(client *redis.Client, ttl time.Duration) PresenceCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &presenceCache{client: client, ttl: ttl}
}

func (c *presenceCache) handsKey(roomID string) string {
	return liveKey(roomID, "hands")
}

func (c *presenceCache) onlineKey(roomID string) string {
	return liveKey(roomID, "online")
}

// ToggleHand flips userID's raised hand and reports the new state
func (c *presenceCache) ToggleHand(ctx context.Context, roomID, userID string) (bool, error) {
	n, err := toggleHandScript.Run(ctx, c.client, []string{c.handsKey(roomID)}, userID).Int()
	if err != nil {
		return false, storeErr("toggle hand", err)
	}
	c.client.Expire(ctx, c.handsKey(roomID), c.ttl)
	return n == 1, nil
}

func (c *presenceCache) RaisedHands(ctx context.Context, roomID string) ([]string, error) {
	ids, err := c.client.SMembers(ctx, c.handsKey(roomID)).Result()
	if err != nil {
		return nil, storeErr("raised hands", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Touch records userID as seen at at and reports whether it was not tracked before
func (c *presenceCache) Touch(ctx context.Context, roomID, userID string, at time.Time) (bool, error) {
	var added *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.ZAdd(ctx, c.onlineKey(roomID), redis.Z{Score: float64(at.Unix()), Member: userID})
		pipe.Expire(ctx, c.onlineKey(roomID), c.ttl)
		return nil
	})
	if err != nil {
		return false, storeErr("touch presence", err)
	}
	return added.Val() == 1, nil
}

func (c *presenceCache) Leave(ctx context.Context, roomID, userID string) error {
	if err := c.client.ZRem(ctx, c.onlineKey(roomID), userID).Err(); err != nil {
		return storeErr("leave presence", err)
	}
	return nil
}

// Online lists users seen at or after since
func (c *presenceCache) Online(ctx context.Context, roomID string, since time.Time) ([]string, error) {
	ids, err := c.client.ZRangeByScore(ctx, c.onlineKey(roomID), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, storeErr("online", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *presenceCache) Clear(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, c.handsKey(roomID), c.onlineKey(roomID)).Err(); err != nil {
		return storeErr("clear presence", err)
	}
	return nil
}
