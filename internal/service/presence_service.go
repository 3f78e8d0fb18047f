package service

import (
	"context"
	"fmt"
	"log"

	"paircode/internal/model"
)

// PresenceService tracks connected participants and raised hands
type PresenceService struct {
	rooms       *RoomService
	live        LiveStore
	broadcaster Broadcaster
}

// NewPresenceService creates a new presence service
func NewPresenceService(rooms *RoomService, live LiveStore) *PresenceService {
	return &PresenceService{
		rooms:       rooms,
		live:        live,
		broadcaster: nopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *PresenceService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ToggleHand raises or lowers the caller's hand and returns who has a hand up
func (s *PresenceService) ToggleHand(ctx context.Context, roomID, identity string) (bool, []string, error) {
	if _, _, err := s.rooms.Member(ctx, roomID, identity); err != nil {
		return false, nil, err
	}
	raised, err := s.live.Presence.ToggleHand(ctx, roomID, identity)
	if err != nil {
		return false, nil, fmt.Errorf("failed to toggle hand: %w", err)
	}
	hands, err := s.live.Presence.RaisedHands(ctx, roomID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to get raised hands: %w", err)
	}

	s.live.publish(ctx, model.LiveHands, roomID, identity, "")
	s.broadcaster.BroadcastToRoom(roomID, "hand_raised", map[string]interface{}{
		"userId": identity,
		"raised": raised,
	})
	return raised, hands, nil
}

// Touch marks identity as online; called on connect and on every heartbeat
func (s *PresenceService) Touch(ctx context.Context, roomID, identity string) error {
	added, err := s.live.Presence.Touch(ctx, roomID, identity, s.rooms.now())
	if err != nil {
		return err
	}
	if added {
		log.Printf("User %s online in room %s", identity, roomID)
		s.live.publish(ctx, model.LivePresence, roomID, identity, "")
	}
	return nil
}

// Leave marks identity as offline
func (s *PresenceService) Leave(ctx context.Context, roomID, identity string) error {
	if err := s.live.Presence.Leave(ctx, roomID, identity); err != nil {
		return err
	}
	log.Printf("User %s left room %s", identity, roomID)
	s.live.publish(ctx, model.LivePresence, roomID, identity, "")
	return nil
}

// Online lists identities seen within the presence window
func (s *PresenceService) Online(ctx context.Context, roomID string) ([]string, error) {
	return s.live.Presence.Online(ctx, roomID, s.rooms.now().Add(-presenceWindow))
}

