package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"paircode/internal/cache"
	"paircode/internal/model"
	"paircode/internal/phase"
	"paircode/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeClock is a settable time source shared by the services and the fake store
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeRoomRepo struct {
	mu       sync.Mutex
	clock    *fakeClock
	rooms    map[string]model.Room
	watchers map[string][]chan *model.Room
}

func newFakeRoomRepo(clock *fakeClock) *fakeRoomRepo {
	return &fakeRoomRepo{
		clock:    clock,
		rooms:    make(map[string]model.Room),
		watchers: make(map[string][]chan *model.Room),
	}
}

func (r *fakeRoomRepo) notify(id string, room *model.Room) {
	for _, ch := range r.watchers[id] {
		select {
		case ch <- room:
		default:
		}
	}
}

func (r *fakeRoomRepo) Create(ctx context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.CreatedAt = r.clock.Now()
	room.UpdatedAt = room.CreatedAt
	room.Status = model.StatusFor(room.Phase)
	r.rooms[room.ID] = copyRoom(*room)
	return nil
}

func (r *fakeRoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil
	}
	out := copyRoom(room)
	return &out, nil
}

func (r *fakeRoomRepo) ListByCreator(ctx context.Context, userID string) ([]*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Room
	for _, room := range r.rooms {
		if room.CreatedBy == userID {
			c := copyRoom(room)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRoomRepo) ListActiveInPhases(ctx context.Context, phases []model.Phase) ([]*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Room
	for _, room := range r.rooms {
		if room.Status != model.RoomActive {
			continue
		}
		for _, p := range phases {
			if room.Phase == p {
				c := copyRoom(room)
				out = append(out, &c)
			}
		}
	}
	return out, nil
}

func (r *fakeRoomRepo) AddParticipant(ctx context.Context, id, userID string) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil
	}
	for _, p := range room.Participants {
		if p == userID {
			out := copyRoom(room)
			return &out, nil
		}
	}
	room.Participants = append(room.Participants, userID)
	room.UpdatedAt = r.clock.Now()
	r.rooms[id] = room
	out := copyRoom(room)
	r.notify(id, &out)
	return &out, nil
}

func (r *fakeRoomRepo) UpdatePhase(ctx context.Context, id string, from, to model.Phase) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Phase != from {
		return nil, nil
	}
	now := r.clock.Now()
	room.Phase = to
	room.Status = model.StatusFor(to)
	room.PhaseStartedAt = &now
	room.UpdatedAt = now
	r.rooms[id] = room
	out := copyRoom(room)
	r.notify(id, &out)
	return &out, nil
}

func (r *fakeRoomRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	r.notify(id, nil)
	return nil
}

func (r *fakeRoomRepo) Watch(ctx context.Context, id string) (<-chan *model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan *model.Room, 8)
	r.watchers[id] = append(r.watchers[id], ch)
	return ch, nil
}

// setPhase forces a room into a phase without going through the machine
func (r *fakeRoomRepo) setPhase(id string, p model.Phase, startedAt *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.rooms[id]
	room.Phase = p
	room.Status = model.StatusFor(p)
	room.PhaseStartedAt = startedAt
	r.rooms[id] = room
}

func copyRoom(r model.Room) model.Room {
	r.Participants = append([]string(nil), r.Participants...)
	if r.PhaseStartedAt != nil {
		t := *r.PhaseStartedAt
		r.PhaseStartedAt = &t
	}
	return r
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
	err   error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*model.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *model.Task) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = "task-" + time.Now().Format("150405.000000000")
	}
	c := *task
	r.tasks[task.ID] = &c
	return task.ID, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	c := *task
	return &c, nil
}

func (r *fakeTaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Task
	for _, task := range r.tasks {
		c := *task
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return model.ErrNotFound
	}
	c := *task
	r.tasks[task.ID] = &c
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type fakeFeedbackRepo struct {
	mu          sync.Mutex
	reflections map[string]*model.Reflection
	notes       map[string]*model.PrivateNotes
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{
		reflections: make(map[string]*model.Reflection),
		notes:       make(map[string]*model.PrivateNotes),
	}
}

func (r *fakeFeedbackRepo) SaveReflection(ctx context.Context, roomID, userID string, responses []model.ReflectionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reflections[roomID+"/"+userID] = &model.Reflection{RoomID: roomID, UserID: userID, Responses: responses}
	return nil
}

func (r *fakeFeedbackRepo) GetReflection(ctx context.Context, roomID, userID string) (*model.Reflection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reflections[roomID+"/"+userID], nil
}

func (r *fakeFeedbackRepo) SavePrivateNotes(ctx context.Context, roomID, userID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[roomID+"/"+userID] = &model.PrivateNotes{RoomID: roomID, UserID: userID, Content: content}
	return nil
}

func (r *fakeFeedbackRepo) GetPrivateNotes(ctx context.Context, roomID, userID string) (*model.PrivateNotes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes[roomID+"/"+userID], nil
}

func (r *fakeFeedbackRepo) DeleteByRoom(ctx context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.reflections {
		if v.RoomID == roomID {
			delete(r.reflections, k)
		}
	}
	for k, v := range r.notes {
		if v.RoomID == roomID {
			delete(r.notes, k)
		}
	}
	return nil
}

var (
	_ repository.RoomStore    = (*fakeRoomRepo)(nil)
	_ repository.TaskRepo     = (*fakeTaskRepo)(nil)
	_ repository.FeedbackRepo = (*fakeFeedbackRepo)(nil)
)

type recordedMessage struct {
	roomID  string
	userID  string
	msgType string
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []recordedMessage
}

func (b *recordingBroadcaster) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, recordedMessage{roomID: roomID, msgType: msgType})
}

func (b *recordingBroadcaster) BroadcastToUser(roomID, userID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, recordedMessage{roomID: roomID, userID: userID, msgType: msgType})
}

func (b *recordingBroadcaster) DisconnectRoom(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, recordedMessage{roomID: roomID, msgType: "disconnect"})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.msgs {
		out = append(out, m.msgType)
	}
	return out
}

type testEnv struct {
	clock     *fakeClock
	rooms     *fakeRoomRepo
	tasks     *fakeTaskRepo
	feedback  *fakeFeedbackRepo
	mr        *miniredis.Miniredis
	live      LiveStore
	bcast     *recordingBroadcaster
	auth      *AuthService
	roomSvc   *RoomService
	driverSvc *DriverService
	fileSvc   *FileService
	session   *SessionService
	presence  *PresenceService
	feedbacks *FeedbackService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	env := &testEnv{
		clock:    clock,
		rooms:    newFakeRoomRepo(clock),
		tasks:    newFakeTaskRepo(),
		feedback: newFakeFeedbackRepo(),
		mr:       mr,
		live: LiveStore{
			Drivers:  cache.NewDriverCache(client, time.Hour),
			Files:    cache.NewFileCache(client, time.Hour),
			Presence: cache.NewPresenceCache(client, time.Hour),
			Events:   cache.NewLiveEvents(client),
		},
		bcast: &recordingBroadcaster{},
		auth:  NewAuthService("host", "secret", "test-signing-key"),
	}

	env.roomSvc = NewRoomService(env.rooms, env.tasks, env.feedback, cache.NewRoomCache(client, time.Hour), env.live, env.auth, phase.DefaultDurations)
	env.roomSvc.now = clock.Now
	env.driverSvc = NewDriverService(env.roomSvc, env.live)
	env.fileSvc = NewFileService(env.roomSvc, env.tasks, env.live)
	env.session = NewSessionService(env.roomSvc, env.fileSvc, env.rooms, env.live, 10*time.Millisecond)
	env.presence = NewPresenceService(env.roomSvc, env.live)
	env.feedbacks = NewFeedbackService(env.roomSvc, env.tasks, env.feedback)

	env.roomSvc.SetBroadcaster(env.bcast)
	env.driverSvc.SetBroadcaster(env.bcast)
	env.fileSvc.SetBroadcaster(env.bcast)
	env.presence.SetBroadcaster(env.bcast)
	env.feedbacks.SetBroadcaster(env.bcast)
	return env
}

// newRoom creates a room owned by "interviewer" and joins one candidate
func (e *testEnv) newRoom(t *testing.T, taskID string) (*model.Room, string) {
	t.Helper()
	ctx := context.Background()
	created, err := e.roomSvc.CreateRoom(ctx, "interviewer", taskID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	joined, err := e.roomSvc.JoinRoom(ctx, created.MagicLink, "")
	if err != nil {
		t.Fatalf("join room: %v", err)
	}
	room, err := e.roomSvc.GetRoom(ctx, created.Room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	return room, joined.UserID
}
