package seed

import (
	"math/rand/v2"
	"testing"
)

func TestDeriveEmptySeed(t *testing.T) {
	if s := Derive("", "a", 1); s != nil {
		t.Fatal("empty seed must not produce a stream")
	}
}

func TestDeriveDeterministic(t *testing.T) {
	a := Derive("abc", "highland-cluster", 2, 3)
	b := Derive("abc", "highland-cluster", 2, 3)

	// Consuming from an unrelated stream must not affect a or b.
	other := Derive("abc", "lakes", 0)
	for i := 0; i < 50; i++ {
		other.Float64()
	}

	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestStreamIndependence(t *testing.T) {
	labels := []string{"a", "b", "c", "ab", "island-prune", "coast-jitter"}
	const draws = 64
	seqs := make(map[string][]float64, len(labels))
	for _, l := range labels {
		s := Derive("seed", l, 1)
		seq := make([]float64, draws)
		for i := range seq {
			seq[i] = s.Float64()
		}
		seqs[l] = seq
	}

	for i, a := range labels {
		for _, b := range labels[i+1:] {
			same := 0
			for k := 0; k < draws; k++ {
				if seqs[a][k] == seqs[b][k] {
					same++
				}
			}
			if same > 0 {
				t.Fatalf("streams %q and %q share %d of %d draws", a, b, same, draws)
			}
		}
	}
}

func TestLabelSeparatorAvoidsCollisions(t *testing.T) {
	a := Derive("s", "ab", "c")
	b := Derive("s", "a", "bc")
	if a.Float64() == b.Float64() {
		t.Fatal("distinct label paths should not collide")
	}
}

func TestPoissonMean(t *testing.T) {
	s := Derive("poisson", "mean")
	for _, mean := range []float64{0.5, 3, 12, 80} {
		const n = 4000
		sum := 0
		for i := 0; i < n; i++ {
			sum += s.Poisson(mean)
		}
		got := float64(sum) / n
		if got < mean*0.9-0.1 || got > mean*1.1+0.1 {
			t.Fatalf("poisson mean %v: sample mean %v", mean, got)
		}
	}
	if s.Poisson(0) != 0 || s.Poisson(-1) != 0 {
		t.Fatal("non-positive mean must yield zero")
	}
}

func TestFactoryAmbientFallback(t *testing.T) {
	f := NewFactory("", rand.New(rand.NewPCG(1, 2)))
	if f.Reproducible() {
		t.Fatal("unseeded factory reported reproducible")
	}
	if f.Stream("x") == nil {
		t.Fatal("unseeded factory must still hand out a stream")
	}

	seeded := NewFactory("abc", rand.New(rand.NewPCG(1, 2)))
	x := seeded.Must("x", 1).Float64()
	y := Derive("abc", "x", 1).Float64()
	if x != y {
		t.Fatalf("seeded factory stream differs from Derive: %v vs %v", x, y)
	}
}
