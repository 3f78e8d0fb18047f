package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"paircode/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestDriverCache(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewDriverCache(client, time.Hour)

	tok, err := c.Get(ctx, "r1")
	if err != nil || tok.Held() {
		t.Fatalf("fresh room should have no driver: %v %+v", err, tok)
	}

	if err := c.Set(ctx, "r1", "alice"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set(ctx, "r1", "bob"); err != nil {
		t.Fatalf("set: %v", err)
	}
	tok, _ = c.Get(ctx, "r1")
	if tok.DriverID != "bob" {
		t.Fatalf("want bob, got %q", tok.DriverID)
	}

	released, err := c.ReleaseIf(ctx, "r1", "alice")
	if err != nil || released {
		t.Fatalf("non-holder release should be a no-op: %v %v", err, released)
	}
	tok, _ = c.Get(ctx, "r1")
	if tok.DriverID != "bob" {
		t.Fatalf("want bob to keep the token, got %q", tok.DriverID)
	}

	released, err = c.ReleaseIf(ctx, "r1", "bob")
	if err != nil || !released {
		t.Fatalf("holder release failed: %v %v", err, released)
	}
	tok, _ = c.Get(ctx, "r1")
	if tok.Held() {
		t.Fatalf("token should be cleared, got %q", tok.DriverID)
	}
}

func TestFileCacheSeedIsFirstWriterWins(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewFileCache(client, time.Hour)

	first := map[string]string{"src/App.tsx": "one", "src/util.ts": "u"}
	won, err := c.Seed(ctx, "r1", first, "src/App.tsx")
	if err != nil || !won {
		t.Fatalf("first seed should win: %v %v", err, won)
	}

	won, err = c.Seed(ctx, "r1", map[string]string{"src/App.tsx": "two"}, "src/App.tsx")
	if err != nil || won {
		t.Fatalf("second seed should lose: %v %v", err, won)
	}

	reg, err := c.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reg.Files["src/App.tsx"] != "one" || len(reg.Files) != 2 || reg.Active != "src/App.tsx" {
		t.Fatalf("seed was overwritten: %+v", reg)
	}
}

func TestFileCacheSeedEmptyFile(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewFileCache(client, time.Hour)

	if won, err := c.Seed(ctx, "r1", map[string]string{"src/App.tsx": ""}, "src/App.tsx"); err != nil || !won {
		t.Fatalf("seed: %v %v", err, won)
	}
	reg, err := c.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if content, ok := reg.Files["src/App.tsx"]; !ok || content != "" {
		t.Fatalf("empty file should exist: %+v", reg)
	}
	if won, _ := c.Seed(ctx, "r1", nil, ""); won {
		t.Fatalf("empty seed must never win")
	}
}

func TestFileCachePutAndSwitch(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewFileCache(client, time.Hour)

	reg, err := c.Get(ctx, "r1")
	if err != nil || !reg.Empty() || reg.Active != "" {
		t.Fatalf("fresh room should be empty: %v %+v", err, reg)
	}

	if err := c.Put(ctx, "r1", "a.ts", "A"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Put(ctx, "r1", "b.ts", "B"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := c.SetActive(ctx, "r1", "missing.ts")
	if err != nil || ok {
		t.Fatalf("switch to missing file should be ignored: %v %v", err, ok)
	}
	ok, err = c.SetActive(ctx, "r1", "b.ts")
	if err != nil || !ok {
		t.Fatalf("switch failed: %v %v", err, ok)
	}

	reg, _ = c.Get(ctx, "r1")
	if reg.Active != "b.ts" || reg.Content() != "B" {
		t.Fatalf("unexpected registry %+v", reg)
	}

	if err := c.Clear(ctx, "r1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	reg, _ = c.Get(ctx, "r1")
	if !reg.Empty() {
		t.Fatalf("clear left files behind: %+v", reg)
	}
}

func TestFileCachePutKeepsActivePointerAlive(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	c := NewFileCache(client, time.Hour)

	if _, err := c.Seed(ctx, "r1", map[string]string{"a.ts": "A", "b.ts": "B"}, "a.ts"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, err := c.SetActive(ctx, "r1", "b.ts"); err != nil || !ok {
		t.Fatalf("switch failed: %v %v", err, ok)
	}

	mr.FastForward(40 * time.Minute)
	if err := c.Put(ctx, "r1", "a.ts", "A2"); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(40 * time.Minute)

	reg, err := c.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reg.Active != "b.ts" || reg.Files["a.ts"] != "A2" {
		t.Fatalf("pointer should outlive the original ttl: %+v", reg)
	}
}

func TestRoomCache(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewRoomCache(client, time.Hour)

	got, err := c.GetRoom(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("missing room should be nil, nil: %v %+v", got, err)
	}

	room := &model.Room{ID: "r1", CreatedBy: "int", Participants: []string{"cand"}, Phase: model.PhaseTone}
	if err := c.SetRoom(ctx, room); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = c.GetRoom(ctx, "r1")
	if err != nil || got.RoleOf("cand") != model.RoleCandidate || got.Phase != model.PhaseTone {
		t.Fatalf("unexpected room %+v %v", got, err)
	}
	if err := c.Delete(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := c.GetRoom(ctx, "r1"); got != nil {
		t.Fatalf("room should be gone")
	}
}

func TestPresenceCache(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewPresenceCache(client, time.Hour)

	raised, err := c.ToggleHand(ctx, "r1", "cand")
	if err != nil || !raised {
		t.Fatalf("first toggle should raise: %v %v", err, raised)
	}
	hands, _ := c.RaisedHands(ctx, "r1")
	if len(hands) != 1 || hands[0] != "cand" {
		t.Fatalf("unexpected hands %v", hands)
	}
	raised, _ = c.ToggleHand(ctx, "r1", "cand")
	if raised {
		t.Fatalf("second toggle should lower")
	}

	now := time.Now()
	if _, err := c.Touch(ctx, "r1", "old", now.Add(-time.Hour)); err != nil {
		t.Fatalf("touch: %v", err)
	}
	added, err := c.Touch(ctx, "r1", "cand", now)
	if err != nil || !added {
		t.Fatalf("first touch: want added, got %v %v", added, err)
	}
	if added, _ := c.Touch(ctx, "r1", "cand", now); added {
		t.Fatalf("second touch: want not added")
	}
	online, err := c.Online(ctx, "r1", now.Add(-time.Minute))
	if err != nil || len(online) != 1 || online[0] != "cand" {
		t.Fatalf("unexpected online %v %v", online, err)
	}
	if err := c.Leave(ctx, "r1", "cand"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	online, _ = c.Online(ctx, "r1", now.Add(-time.Minute))
	if len(online) != 0 {
		t.Fatalf("cand should be offline, got %v", online)
	}
}

func TestLiveEvents(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewLiveEvents(client)

	events, stop, err := bus.Subscribe(ctx, "r1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	if err := bus.Publish(ctx, model.LiveEvent{Kind: model.LiveDriver, RoomID: "r1", UserID: "alice"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// other rooms are not delivered
	if err := bus.Publish(ctx, model.LiveEvent{Kind: model.LiveFiles, RoomID: "r2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != model.LiveDriver || ev.UserID != "alice" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}

	stop()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("stream should close after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not close")
	}
}

func TestStoreUnavailable(t *testing.T) {
	client, mr := newTestClient(t)
	mr.Close()

	_, err := NewDriverCache(client, time.Hour).Get(context.Background(), "r1")
	if !errors.Is(err, model.ErrStoreUnavailable) {
		t.Fatalf("want ErrStoreUnavailable, got %v", err)
	}
}
