// Package progresstrack decides which video player position reports are
// worth persisting.
package progresstrack

import "time"

// Sample is one position report.
type Sample struct {
	Percent float64
	Seconds float64
	At      time.Time
}

// Throttle holds the persist thresholds. A report is stored when it reaches
// CompleteAt for the first time, when it moved at least MinDelta percent, or
// when MinInterval passed since the last stored report and the position
// advanced. A report never lowers the stored percent.
type Throttle struct {
	MinInterval time.Duration
	MinDelta    float64
	CompleteAt  float64
}

// Default returns 15s, 5% and completion at 95%.
func Default() Throttle {
	return Throttle{MinInterval: 15 * time.Second, MinDelta: 5, CompleteAt: 95}
}

// ShouldPersist reports whether next should replace last. last is nil when
// nothing is stored yet.
func (t Throttle) ShouldPersist(last *Sample, next Sample) bool {
	if last == nil {
		return true
	}
	if next.Percent <= last.Percent {
		return false
	}
	if t.Completed(next.Percent) && !t.Completed(last.Percent) {
		return true
	}
	if next.Percent-last.Percent >= t.MinDelta {
		return true
	}
	return next.At.Sub(last.At) >= t.MinInterval
}

// Completed reports whether percent counts as finished.
func (t Throttle) Completed(percent float64) bool {
	return percent >= t.CompleteAt
}

// Percent converts a position into a percentage clamped to [0, 100].
// A non-positive duration yields 0.
func Percent(seconds, duration float64) float64 {
	if duration <= 0 || seconds <= 0 {
		return 0
	}
	p := seconds / duration * 100
	if p > 100 {
		return 100
	}
	return p
}
