package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"paircode/internal/model"

	"github.com/redis/go-redis/v9"
)

// LiveEvents fans out room live-state changes over Redis pub/sub
type LiveEvents interface {
	Publish(ctx context.Context, ev model.LiveEvent) error
	Subscribe(ctx context.Context, roomID string) (<-chan model.LiveEvent, func(), error)
}

type liveEvents struct {
	client *redis.Client
}

// NewLiveEvents creates a new live event bus
func NewLiveEvents(client *redis.Client) LiveEvents {
	return &liveEvents{client: client}
}

func (e *liveEvents) channel(roomID string) string {
	return liveKey(roomID, "events")
}

func (e *liveEvents) Publish(ctx context.Context, ev model.LiveEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := e.client.Publish(ctx, e.channel(ev.RoomID), data).Err(); err != nil {
		return storeErr("publish", err)
	}
	return nil
}

// Subscribe returns a stream of events for roomID. The stream closes when ctx
// is done or the returned cancel func is called.
func (e *liveEvents) Subscribe(ctx context.Context, roomID string) (<-chan model.LiveEvent, func(), error) {
	pubsub := e.client.Subscribe(ctx, e.channel(roomID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, storeErr("subscribe", err)
	}

	out := make(chan model.LiveEvent, 16)
	done := make(chan struct{})
	msgs := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev model.LiveEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("Dropping malformed live event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}
	return out, cancel, nil
}
