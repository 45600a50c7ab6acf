// Package engine drives repeated generation runs: one climate turn at a
// time, with a continental drift step every few turns.
package engine

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Engine drives the planet forward turn by turn.
type Engine struct {
	Interval   time.Duration // Minimum wall time per turn
	MaxTurns   uint64        // Stop after this many turns; 0 runs until Stop
	DriftEvery uint64        // Every Nth turn drifts instead; 0 never drifts

	// Callbacks, populated during setup. A drift turn calls OnDrift only.
	OnTurn  func(turn uint64)
	OnDrift func(turn uint64)

	turn    atomic.Uint64 // Completed turns (monotonic)
	running atomic.Bool
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{Interval: 2 * time.Second}
}

// Run starts the turn loop. Blocks until Stop is called or MaxTurns is reached.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("turn engine started", "turn", e.Turn(), "max_turns", e.MaxTurns, "drift_every", e.DriftEvery)

	for e.running.Load() {
		if e.MaxTurns > 0 && e.Turn() >= e.MaxTurns {
			break
		}
		start := time.Now()

		e.step()

		if elapsed := time.Since(start); elapsed < e.Interval {
			time.Sleep(e.Interval - elapsed)
		}
	}

	e.running.Store(false)
	slog.Info("turn engine stopped", "turn", e.Turn())
}

// Stop halts the loop after the current turn.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Turn returns the number of completed turns. Safe to call while Run is active.
func (e *Engine) Turn() uint64 {
	return e.turn.Load()
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// step advances one turn.
func (e *Engine) step() {
	turn := e.turn.Add(1)

	if e.DriftEvery > 0 && turn%e.DriftEvery == 0 && e.OnDrift != nil {
		e.OnDrift(turn)
		return
	}
	if e.OnTurn != nil {
		e.OnTurn(turn)
	}
}
