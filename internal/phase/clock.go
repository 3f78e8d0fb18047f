package phase

import (
	"fmt"
	"time"

	"paircode/internal/model"
)

// Durations maps each phase to its maximum length
type Durations map[model.Phase]time.Duration

// DefaultDurations is the interview schedule
var DefaultDurations = Durations{
	model.PhaseWaiting:    0,
	model.PhaseTone:       5 * time.Minute,
	model.PhaseCoding:     45 * time.Minute,
	model.PhaseReflection: 10 * time.Minute,
	model.PhaseEnded:      0,
}

const (
	WarningThreshold  = 5 * time.Minute
	CriticalThreshold = 2 * time.Minute
)

// For returns the duration of p. Unknown phases and negative values count as zero.
func (d Durations) For(p model.Phase) time.Duration {
	v := d[p]
	if v < 0 {
		return 0
	}
	return v
}

// Timed reports whether p carries a countdown
func (d Durations) Timed(p model.Phase) bool {
	return d.For(p) > 0
}

type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelExpired  Level = "expired"
)

// Timer is the derived countdown state for one phase
type Timer struct {
	Phase     model.Phase   `json:"phase"`
	Total     time.Duration `json:"total"`
	Remaining time.Duration `json:"remaining"`
	Level     Level         `json:"level"`
	Expired   bool          `json:"expired"`
	Critical  bool          `json:"critical"`
	Warning   bool          `json:"warning"`
}

// RemainingSeconds truncates the remaining time to whole seconds
func (t Timer) RemainingSeconds() int {
	return int(t.Remaining / time.Second)
}

// Remaining computes the countdown for phase p that started at startedAt.
// A nil startedAt means the phase was just entered and has its full duration left.
func Remaining(d Durations, p model.Phase, startedAt *time.Time, now time.Time) Timer {
	total := d.For(p)
	remaining := total
	if startedAt != nil {
		remaining = total - now.Sub(*startedAt)
		if remaining < 0 {
			remaining = 0
		}
		// clock skew can put the start in the future
		if remaining > total {
			remaining = total
		}
	}

	t := Timer{Phase: p, Total: total, Remaining: remaining}
	switch {
	case remaining == 0:
		t.Level, t.Expired = LevelExpired, true
	case remaining < CriticalThreshold:
		t.Level, t.Critical = LevelCritical, true
	case remaining < WarningThreshold:
		t.Level, t.Warning = LevelWarning, true
	default:
		t.Level = LevelNormal
	}
	return t
}

// FormatTime renders d as MM:SS
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
