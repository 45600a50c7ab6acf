package engine

import "testing"

func TestRunStopsAtMaxTurns(t *testing.T) {
	e := NewEngine()
	e.Interval = 0
	e.MaxTurns = 6
	e.DriftEvery = 3

	var turns, drifts []uint64
	e.OnTurn = func(turn uint64) { turns = append(turns, turn) }
	e.OnDrift = func(turn uint64) { drifts = append(drifts, turn) }
	e.Run()

	if e.Turn() != 6 {
		t.Fatalf("Turn = %d, want 6", e.Turn())
	}
	if len(turns) != 4 || len(drifts) != 2 {
		t.Fatalf("turns %v drifts %v", turns, drifts)
	}
	if drifts[0] != 3 || drifts[1] != 6 {
		t.Fatalf("drift turns %v, want [3 6]", drifts)
	}
	if e.Running() {
		t.Fatal("engine still running after MaxTurns")
	}
}

func TestStopFromCallback(t *testing.T) {
	e := NewEngine()
	e.Interval = 0
	e.OnTurn = func(turn uint64) {
		if turn == 4 {
			e.Stop()
		}
	}
	e.Run()
	if e.Turn() != 4 {
		t.Fatalf("Turn = %d, want 4", e.Turn())
	}
}

func TestNoDriftWithoutCallback(t *testing.T) {
	e := NewEngine()
	e.Interval = 0
	e.MaxTurns = 4
	e.DriftEvery = 2
	n := 0
	e.OnTurn = func(uint64) { n++ }
	e.Run()
	if n != 4 {
		t.Fatalf("OnTurn called %d times, want 4 when OnDrift is unset", n)
	}
}
