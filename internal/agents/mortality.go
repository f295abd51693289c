package agents

import "github.com/talgya/labormarket/internal/entropy"

// Mortality decides deaths with a constant per-person hazard rate.
// Each agent's fate in a tick comes from its own draw, so the order in which
// agents are visited never changes who dies.
type Mortality struct {
	// RatePerSecond is the death rate per person per game-second.
	RatePerSecond float64

	src *entropy.Source
}

// NewMortality creates a mortality process whose mean lifespan is
// averageLifespanYears. A non-positive lifespan disables deaths.
func NewMortality(src *entropy.Source, averageLifespanYears float64) *Mortality {
	m := &Mortality{src: src}
	if averageLifespanYears > 0 {
		m.RatePerSecond = 1 / (averageLifespanYears * SecondsPerYear)
	}
	return m
}

// Hazard returns the probability of dying within dt game-seconds, in [0, 1].
func (m *Mortality) Hazard(dt float64) float64 {
	h := m.RatePerSecond * dt
	switch {
	case h < 0:
		return 0
	case h > 1:
		return 1
	}
	return h
}

// Dies reports whether a dies during tick, which spans dt game-seconds.
func (m *Mortality) Dies(a *Agent, dt float64, tick uint64) bool {
	if !a.Alive {
		return false
	}
	h := m.Hazard(dt)
	if h <= 0 {
		return false
	}
	return m.src.Draw(uint64(a.ID), tick) < h
}
