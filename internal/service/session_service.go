package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"paircode/internal/driver"
	"paircode/internal/model"
	"paircode/internal/phase"
	"paircode/internal/repository"
)

// presenceWindow is how recently a user must have pinged to count as online
const presenceWindow = time.Minute

// SessionView is everything a participant's screen derives from room state
type SessionView struct {
	RoomID           string           `json:"roomId"`
	Phase            model.Phase      `json:"phase"`
	Status           model.RoomStatus `json:"status"`
	NextPhase        model.Phase      `json:"nextPhase,omitempty"`
	PhaseStartedAt   *time.Time       `json:"phaseStartedAt,omitempty"`
	Timer            phase.Timer      `json:"timer"`
	RemainingSeconds int              `json:"remainingSeconds"`
	FormattedTime    string           `json:"formattedTime"`
	Alert            phase.Level      `json:"alert,omitempty"`
	Role             model.Role       `json:"role"`
	IsInterviewer    bool             `json:"isInterviewer"`
	IsCandidate      bool             `json:"isCandidate"`
	IsDriver         bool             `json:"isDriver"`
	DriverID         string           `json:"driverId"`
	Files            []string         `json:"files"`
	ActiveFile       string           `json:"activeFile"`
	FileContent      string           `json:"fileContent"`
	EditorReadOnly   bool             `json:"editorReadOnly"`
	CodingOpen       bool             `json:"codingOpen"`
	CanAdvance       bool             `json:"canAdvance"`
	CanEndEarly      bool             `json:"canEndEarly"`
	RaisedHands      []string         `json:"raisedHands"`
	Online           []string         `json:"online"`
}

// SessionService composes room, clock, driver and files into per-user views
type SessionService struct {
	rooms   *RoomService
	files   *FileService
	watcher repository.RoomWatcher
	live    LiveStore
	tick    time.Duration
}

// NewSessionService creates a new session service. watcher may be nil when
// the database cannot push changes; phase events still arrive over Redis.
func NewSessionService(rooms *RoomService, files *FileService, watcher repository.RoomWatcher, live LiveStore, tick time.Duration) *SessionService {
	if tick <= 0 {
		tick = time.Second
	}
	return &SessionService{
		rooms:   rooms,
		files:   files,
		watcher: watcher,
		live:    live,
		tick:    tick,
	}
}

// Snapshot builds the current view of a room for identity
func (s *SessionService) Snapshot(ctx context.Context, roomID, identity string) (*SessionView, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoleOf(identity) == model.RoleNone {
		return nil, model.ErrUnauthorized
	}
	return s.build(ctx, room, identity)
}

func (s *SessionService) build(ctx context.Context, room *model.Room, identity string) (*SessionView, error) {
	now := s.rooms.now()
	timer := phase.Remaining(s.rooms.durations, room.Phase, room.PhaseStartedAt, now)
	role := room.RoleOf(identity)

	tok, err := s.live.Drivers.Get(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	reg, err := s.files.Ensure(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	hands, err := s.live.Presence.RaisedHands(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raised hands: %w", err)
	}
	online, err := s.live.Presence.Online(ctx, room.ID, now.Add(-presenceWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	isInterviewer := role == model.RoleInterviewer
	isDriver := driver.IsDriver(tok, identity)
	next, hasNext := phase.Next(room.Phase)

	v := &SessionView{
		RoomID:           room.ID,
		Phase:            room.Phase,
		Status:           room.Status,
		PhaseStartedAt:   room.PhaseStartedAt,
		Timer:            timer,
		RemainingSeconds: timer.RemainingSeconds(),
		FormattedTime:    phase.FormatTime(timer.Remaining),
		Role:             role,
		IsInterviewer:    isInterviewer,
		IsCandidate:      role == model.RoleCandidate,
		IsDriver:         isDriver,
		DriverID:         tok.DriverID,
		Files:            reg.Paths(),
		ActiveFile:       reg.ActivePath(),
		FileContent:      reg.Content(),
		EditorReadOnly:   !isDriver || phase.LocksEditor(room.Phase),
		CodingOpen:       phase.CanEditCode(room.Phase),
		CanAdvance:       isInterviewer && hasNext,
		CanEndEarly:      isInterviewer && room.Phase != model.PhaseEnded,
		RaisedHands:      hands,
		Online:           online,
	}
	if hasNext {
		v.NextPhase = next
	}
	return v, nil
}

// Watch streams a fresh view after every room or live-state change, and once
// per tick while a timed phase runs. The channel closes when ctx is done or
// the room is deleted.
func (s *SessionService) Watch(ctx context.Context, roomID, identity string) (<-chan *SessionView, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoleOf(identity) == model.RoleNone {
		return nil, model.ErrUnauthorized
	}

	events, unsubscribe, err := s.live.Events.Subscribe(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to room events: %w", err)
	}

	var changes <-chan *model.Room
	if s.watcher != nil {
		changes, err = s.watcher.Watch(ctx, roomID)
		if err != nil {
			log.Printf("Room %s change stream unavailable, relying on live events: %v", roomID, err)
			changes = nil
		}
	}

	out := make(chan *SessionView, 1)
	go func() {
		defer close(out)
		defer unsubscribe()

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		var alerts phase.AlertTracker
		emit := func() bool {
			v, err := s.build(ctx, room, identity)
			if err != nil {
				log.Printf("Warning: failed to build view of room %s for %s: %v", roomID, identity, err)
				return true
			}
			if level, ok := alerts.Observe(v.Timer, room.PhaseStartedAt); ok {
				v.Alert = level
			}
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}
		reload := func() bool {
			r, err := s.rooms.roomRepo.GetByID(ctx, roomID)
			if err != nil {
				log.Printf("Warning: failed to reload room %s: %v", roomID, err)
				return true
			}
			if r == nil {
				return false
			}
			room = r
			return true
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				if r == nil {
					return
				}
				room = r
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind == model.LivePhase && !reload() {
					return
				}
			case <-ticker.C:
				if !s.rooms.durations.Timed(room.Phase) {
					continue
				}
			}
			if room.RoleOf(identity) == model.RoleNone {
				return
			}
			if !emit() {
				return
			}
		}
	}()
	return out, nil
}
