package service

import (
	"context"
	"fmt"
	"log"

	"paircode/internal/driver"
	"paircode/internal/model"
	"paircode/internal/phase"
)

// DriverService arbitrates who may type in a room's editor
type DriverService struct {
	rooms       *RoomService
	live        LiveStore
	broadcaster Broadcaster
}

// NewDriverService creates a new driver service
func NewDriverService(rooms *RoomService, live LiveStore) *DriverService {
	return &DriverService{
		rooms:       rooms,
		live:        live,
		broadcaster: nopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *DriverService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Get returns the current driver token of a room
func (s *DriverService) Get(ctx context.Context, roomID string) (driver.Token, error) {
	return s.live.Drivers.Get(ctx, roomID)
}

// Acquire makes identity the driver. Concurrent acquires resolve last-write-wins.
func (s *DriverService) Acquire(ctx context.Context, roomID, identity string) (driver.Token, error) {
	room, _, err := s.rooms.CurrentMember(ctx, roomID, identity)
	if err != nil {
		return driver.Token{}, err
	}
	if phase.LocksDriverSwitching(room.Phase) {
		return driver.Token{}, model.ErrEditorLocked
	}

	cur, err := s.live.Drivers.Get(ctx, roomID)
	if err != nil {
		return driver.Token{}, fmt.Errorf("failed to get driver: %w", err)
	}
	return s.store(ctx, roomID, driver.Acquire(cur, identity))
}

// Release gives up the token. Only the holder's release has an effect.
func (s *DriverService) Release(ctx context.Context, roomID, identity string) (driver.Token, error) {
	if _, _, err := s.rooms.Member(ctx, roomID, identity); err != nil {
		return driver.Token{}, err
	}

	released, err := s.live.Drivers.ReleaseIf(ctx, roomID, identity)
	if err != nil {
		return driver.Token{}, fmt.Errorf("failed to release driver: %w", err)
	}
	if released {
		s.notify(ctx, roomID, identity, driver.Token{})
	}
	return s.live.Drivers.Get(ctx, roomID)
}

// ForceTake lets the interviewer seize control regardless of the holder
func (s *DriverService) ForceTake(ctx context.Context, roomID, identity string) (driver.Token, error) {
	room, role, err := s.rooms.CurrentMember(ctx, roomID, identity)
	if err != nil {
		return driver.Token{}, err
	}

	cur, err := s.live.Drivers.Get(ctx, roomID)
	if err != nil {
		return driver.Token{}, fmt.Errorf("failed to get driver: %w", err)
	}
	next, err := driver.ForceTake(cur, identity, role)
	if err != nil {
		return driver.Token{}, err
	}
	if phase.LocksDriverSwitching(room.Phase) {
		return driver.Token{}, model.ErrEditorLocked
	}
	return s.store(ctx, roomID, next)
}

func (s *DriverService) store(ctx context.Context, roomID string, next driver.Token) (driver.Token, error) {
	if err := s.live.Drivers.Set(ctx, roomID, next.DriverID); err != nil {
		return driver.Token{}, fmt.Errorf("failed to set driver: %w", err)
	}
	s.notify(ctx, roomID, next.DriverID, next)
	return next, nil
}

func (s *DriverService) notify(ctx context.Context, roomID, actor string, t driver.Token) {
	s.live.publish(ctx, model.LiveDriver, roomID, actor, "")
	s.broadcaster.BroadcastToRoom(roomID, "driver_changed", map[string]interface{}{
		"driverId": t.DriverID,
	})
	log.Printf("Room %s driver is now %q", roomID, t.DriverID)
}
