// Package engine provides the tick-based simulation loop and the Simulation
// that owns all labor-market and demographic state.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward. Simulated time is derived from the
// tick counter, never from the wall clock, so runs are reproducible.
type Engine struct {
	Tick        uint64        // Next tick to run (monotonic, never resets)
	Interval    time.Duration // Wall-clock pacing per tick at speed 1.0
	TickSeconds float64       // Elapsed simulated seconds per tick
	ReportEvery uint64        // Ticks between OnReport calls (0 = never)

	// Callbacks populated during setup.
	OnTick   func(tick uint64, now float64) // Every tick
	OnReport func(tick uint64)              // Every ReportEvery ticks

	mu      sync.Mutex
	speed   float64 // 1.0 = real-time, 0 = paused
	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:    time.Second,
		TickSeconds: 1,
		speed:       1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. 0 pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = max(speed, 0)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Now returns the simulated time of the next tick.
func (e *Engine) Now() float64 {
	return float64(e.Tick) * e.TickSeconds
}

// Run starts the paced simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused. Sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// RunFor runs n ticks back to back without pacing.
func (e *Engine) RunFor(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.step()
	}
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step runs one tick and advances the counter.
func (e *Engine) step() {
	tick := e.Tick
	now := e.Now()

	if e.OnTick != nil {
		e.OnTick(tick, now)
	}

	if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(tick)
	}

	e.Tick++
}

// SimTime returns a human-readable game time from game-seconds.
func SimTime(gameSeconds float64) string {
	total := uint64(max(gameSeconds, 0))
	days := total / 86400
	years := days / 365
	return fmt.Sprintf("Year %d Day %d, %02d:%02d",
		years+1, days%365+1, (total/3600)%24, (total/60)%60)
}
