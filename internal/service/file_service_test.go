package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"paircode/internal/files"
	"paircode/internal/model"
)

func TestEnsureWithoutTask(t *testing.T) {
	env := newTestEnv(t)
	room, _ := env.newRoom(t, "")

	reg, err := env.fileSvc.Ensure(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if reg.ActivePath() != "src/App.tsx" {
		t.Fatalf("want src/App.tsx active, got %q", reg.ActivePath())
	}
	if paths := reg.Paths(); len(paths) != 1 || reg.Content() != "" {
		t.Fatalf("want one empty file, got %v", reg.Files)
	}
}

func TestEnsureFromTask(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks["py"] = &model.Task{ID: "py", Title: "Sum", Language: "python", StarterCode: "def solve():\n    pass\n"}
	room, _ := env.newRoom(t, "py")

	reg, err := env.fileSvc.Ensure(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if reg.ActivePath() != "src/App.py" || reg.Content() != "def solve():\n    pass\n" {
		t.Fatalf("unexpected registry %+v", reg)
	}
}

func TestEnsureFallsBackWhenTaskMissing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(env *testEnv)
	}{
		{"deleted", func(env *testEnv) { delete(env.tasks.tasks, "gone") }},
		{"unreadable", func(env *testEnv) { env.tasks.err = model.ErrStoreUnavailable }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.tasks.tasks["gone"] = &model.Task{ID: "gone", Title: "Gone", Language: "go"}
			room, _ := env.newRoom(t, "gone")
			tt.setup(env)

			reg, err := env.fileSvc.Ensure(context.Background(), room.ID)
			if err != nil {
				t.Fatalf("ensure: %v", err)
			}
			if reg.ActivePath() != files.DefaultPath {
				t.Fatalf("want fallback %s, got %q", files.DefaultPath, reg.ActivePath())
			}
		})
	}
}

func TestEnsureConcurrentSeedsConverge(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks["t"] = &model.Task{ID: "t", Title: "T", Language: "typescript", StarterCode: "let x = 1"}
	room, _ := env.newRoom(t, "t")

	const n = 8
	results := make([]*files.Registry, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.fileSvc.Ensure(context.Background(), room.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("ensure %d: %v", i, errs[i])
		}
		if results[i].ActivePath() != "src/App.tsx" || results[i].Content() != "let x = 1" {
			t.Fatalf("ensure %d diverged: %+v", i, results[i])
		}
	}
}

func TestUpdateRequiresDriver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, candidate := env.newRoom(t, "")

	if _, err := env.fileSvc.Update(ctx, room.ID, candidate, "src/App.tsx", "x"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("non-driver update: want ErrUnauthorized, got %v", err)
	}

	if _, err := env.driverSvc.Acquire(ctx, room.ID, candidate); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	reg, err := env.fileSvc.Update(ctx, room.ID, candidate, "src/util.ts", "export {}")
	if err != nil {
		t.Fatalf("driver update: %v", err)
	}
	if reg.Files["src/util.ts"] != "export {}" || reg.ActivePath() != "src/App.tsx" {
		t.Fatalf("update should return the new file without moving the pointer: %+v", reg)
	}

	reg, err = env.fileSvc.Switch(ctx, room.ID, "interviewer", "src/util.ts")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if reg.ActivePath() != "src/util.ts" || reg.Content() != "export {}" {
		t.Fatalf("unexpected registry after switch %+v", reg)
	}

	reg, err = env.fileSvc.Switch(ctx, room.ID, candidate, "src/missing.ts")
	if err != nil || reg.ActivePath() != "src/util.ts" {
		t.Fatalf("unknown path should be ignored: %q %v", reg.ActivePath(), err)
	}

	if _, err := env.roomSvc.AdvancePhase(ctx, room.ID, "interviewer", model.PhaseReflection); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := env.fileSvc.Update(ctx, room.ID, candidate, "src/App.tsx", "late"); !errors.Is(err, model.ErrEditorLocked) {
		t.Fatalf("update in reflection: want ErrEditorLocked, got %v", err)
	}
}

func TestUpdateIgnoresStaleCachedPhase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, candidate := env.newRoom(t, "")

	if _, err := env.driverSvc.Acquire(ctx, room.ID, candidate); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	stale, err := env.roomSvc.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if _, err := env.roomSvc.AdvancePhase(ctx, room.ID, "interviewer", model.PhaseEnded); err != nil {
		t.Fatalf("advance: %v", err)
	}
	// a slow read-through lands after the transition refreshed the cache
	env.roomSvc.cacheRoom(ctx, stale)

	if _, err := env.fileSvc.Update(ctx, room.ID, candidate, "src/App.tsx", "late"); !errors.Is(err, model.ErrEditorLocked) {
		t.Fatalf("update after end: want ErrEditorLocked, got %v", err)
	}
	view, err := env.session.Snapshot(ctx, room.ID, candidate)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if view.Phase != model.PhaseEnded || !view.EditorReadOnly {
		t.Fatalf("want read-only ended view, got phase=%s readOnly=%v", view.Phase, view.EditorReadOnly)
	}
}

func TestListRejectsOutsider(t *testing.T) {
	env := newTestEnv(t)
	room, _ := env.newRoom(t, "")
	if _, err := env.fileSvc.List(context.Background(), room.ID, "stranger"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}
