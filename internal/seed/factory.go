package seed

import (
	"fmt"
	"math/rand/v2"
)

// Factory hands out streams for one generation run. A seeded factory derives
// every stream from its seed; an unseeded factory shares one ambient generator.
type Factory struct {
	Seed    string
	Ambient *rand.Rand
}

// NewFactory returns a factory for seed. ambient is only consulted when seed
// is empty and may be nil in that case only if the caller never asks for a
// stream.
func NewFactory(seed string, ambient *rand.Rand) *Factory {
	return &Factory{Seed: seed, Ambient: ambient}
}

// Reproducible reports whether streams from this factory are seed-deterministic.
func (f *Factory) Reproducible() bool { return f.Seed != "" }

// Stream returns the stream for labels. Unseeded factories return a stream
// over the shared ambient generator.
func (f *Factory) Stream(labels ...any) *Stream {
	if s := Derive(f.Seed, labels...); s != nil {
		return s
	}
	if f.Ambient == nil {
		panic("seed: unseeded factory has no ambient generator")
	}
	return FromRand(f.Ambient)
}

// Must is Stream for call sites that promise seed-determinism. It panics if a
// seeded factory would ever produce a non-derived stream.
func (f *Factory) Must(labels ...any) *Stream {
	s := f.Stream(labels...)
	if f.Reproducible() && f.Ambient != nil && s.r == f.Ambient {
		panic(fmt.Sprintf("seed: seeded run fell back to ambient entropy for %v", labels))
	}
	return s
}
