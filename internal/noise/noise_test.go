package noise

import (
	"math"
	"testing"
)

func TestValueRangeAndLattice(t *testing.T) {
	for i := 0; i < 500; i++ {
		x := float64(i) * 0.173
		y := float64(i) * 0.291
		v := Value(x, y, 0)
		if v < 0 || v > 1 {
			t.Fatalf("value(%v,%v) = %v out of [0,1]", x, y, v)
		}
	}
	if got, want := Value(3, 4, 0), lattice(3, 4, 0); got != want {
		t.Fatalf("value at lattice point = %v, want %v", got, want)
	}
}

func TestValuePeriodic(t *testing.T) {
	const period = 8
	for _, y := range []float64{0.3, 2.7, 5.5} {
		a := Value(0.25, y, period)
		b := Value(0.25+period, y, period)
		if math.Abs(a-b) > 1e-12 {
			t.Fatalf("period %d not honored at y=%v: %v vs %v", period, y, a, b)
		}
	}
}

func TestFractalNormalised(t *testing.T) {
	for i := 0; i < 300; i++ {
		v := Fractal(float64(i)*0.37, float64(i)*0.11, 5, 0.5, 16)
		if v < 0 || v > 1 {
			t.Fatalf("fractal out of range: %v", v)
		}
	}
	a := Fractal(1.5, 2.5, 4, 0.5, 0)
	b := Fractal(1.5, 2.5, 4, 0.5, 0)
	if a != b {
		t.Fatal("fractal noise must be deterministic")
	}
}

func TestSimplexTableDeterministic(t *testing.T) {
	a := SimplexTable(24, 12, 7, 6)
	b := SimplexTable(24, 12, 7, 6)
	c := SimplexTable(24, 12, 8, 6)
	if len(a) != 24*12 {
		t.Fatalf("table length %d", len(a))
	}
	diff := false
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs between identical seeds", i)
		}
		if a[i] < -1.0001 || a[i] > 1.0001 {
			t.Fatalf("cell %d out of range: %v", i, a[i])
		}
		if a[i] != c[i] {
			diff = true
		}
	}
	if !diff {
		t.Fatal("different seeds produced identical tables")
	}
}
