// Package records tracks aggregate demographic and employment statistics.
package records

// RollingMean counts events inside a sliding time window.
type RollingMean struct {
	// Window is the horizon length in seconds.
	Window float64 `json:"window"`

	timestamps []float64 // ascending
}

// NewRollingMean creates a tracker over a window of the given length.
func NewRollingMean(window float64) *RollingMean {
	return &RollingMean{Window: window}
}

// Push records one event at time t. Timestamps must not go backwards.
func (r *RollingMean) Push(t float64) {
	r.timestamps = append(r.timestamps, t)
}

// Prune drops events older than now − Window.
func (r *RollingMean) Prune(now float64) {
	cutoff := now - r.Window
	i := 0
	for i < len(r.timestamps) && r.timestamps[i] < cutoff {
		i++
	}
	if i > 0 {
		r.timestamps = append(r.timestamps[:0], r.timestamps[i:]...)
	}
}

// Count returns the number of events currently in the window.
func (r *RollingMean) Count() int {
	return len(r.timestamps)
}

// Avg returns events per second across the window.
func (r *RollingMean) Avg() float64 {
	if r.Window <= 0 {
		return 0
	}
	return float64(len(r.timestamps)) / r.Window
}
