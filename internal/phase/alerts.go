package phase

import (
	"time"

	"paircode/internal/model"
)

// AlertTracker turns a stream of Timer observations into one-shot alerts.
// Each level fires at most once per phase entry.
type AlertTracker struct {
	phase   model.Phase
	started time.Time
	fired   Level
}

var rank = map[Level]int{
	LevelNormal:   0,
	LevelWarning:  1,
	LevelCritical: 2,
	LevelExpired:  3,
}

// Reset forgets every fired alert
func (a *AlertTracker) Reset(p model.Phase, startedAt *time.Time) {
	a.phase = p
	a.started = time.Time{}
	if startedAt != nil {
		a.started = *startedAt
	}
	a.fired = LevelNormal
}

// Observe returns the alert to raise for t, if a new boundary was crossed.
// startedAt identifies the phase entry so re-entering resets the tracker.
func (a *AlertTracker) Observe(t Timer, startedAt *time.Time) (Level, bool) {
	var s time.Time
	if startedAt != nil {
		s = *startedAt
	}
	if t.Phase != a.phase || !s.Equal(a.started) {
		a.Reset(t.Phase, startedAt)
	}
	if t.Total == 0 {
		return "", false
	}
	if rank[t.Level] <= rank[a.fired] {
		return "", false
	}
	a.fired = t.Level
	return t.Level, true
}
