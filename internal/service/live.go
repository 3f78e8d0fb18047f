package service

import (
	"context"
	"log"

	"paircode/internal/cache"
	"paircode/internal/model"
)

// LiveStore groups the Redis-backed shared state of all rooms
type LiveStore struct {
	Drivers  cache.DriverCache
	Files    cache.FileCache
	Presence cache.PresenceCache
	Events   cache.LiveEvents
}

// publish notifies watchers of a shared-state write. Delivery is best effort:
// watchers also refresh on their own ticker.
func (l LiveStore) publish(ctx context.Context, kind model.LiveEventKind, roomID, userID, path string) {
	if l.Events == nil {
		return
	}
	ev := model.LiveEvent{Kind: kind, RoomID: roomID, UserID: userID, Path: path}
	if err := l.Events.Publish(ctx, ev); err != nil {
		log.Printf("Warning: failed to publish %s event for room %s: %v", kind, roomID, err)
	}
}

// clear drops every live key of a room
func (l LiveStore) clear(ctx context.Context, roomID string) error {
	if err := l.Drivers.Clear(ctx, roomID); err != nil {
		return err
	}
	if err := l.Files.Clear(ctx, roomID); err != nil {
		return err
	}
	return l.Presence.Clear(ctx, roomID)
}
