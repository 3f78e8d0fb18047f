package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsAdvance(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 1)
	s := New("@every 1s", func(ctx context.Context) (int, error) {
		calls.Add(1)
		select {
		case done <- struct{}{}:
		default:
		}
		return 1, nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("advance was never called")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New("every now and then", func(context.Context) (int, error) { return 0, nil })
	if err := s.Start(); err == nil {
		t.Fatalf("want error for malformed spec")
	}
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	var seen context.Context
	s := New("@every 1m", func(ctx context.Context) (int, error) {
		seen = ctx
		return 0, errors.New("mongo down")
	})
	s.RunOnce()
	if seen == nil {
		t.Fatalf("advance not called")
	}
	if _, ok := seen.Deadline(); !ok {
		t.Fatalf("run should carry a deadline")
	}
}
