package world

import (
	"math"

	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/seed"
)

const (
	lakeMinInland  = 2.0  // Lakes stay this far from the sea
	lakeAccept     = 0.55 // Per-step acceptance while growing a lake
	highlandMinLen = 3
)

// ReliefInput is what the lake and highland growers read.
type ReliefInput struct {
	Topo      grid.Topology
	Land      []bool
	Owner     []int // Center index per cell
	DistToSea []float64
	Centers   int
	LandRatio float64
}

// GrowLakes places Poisson(LakesPerCenter) lakes per center on inland cells
// that center owns.
func GrowLakes(in ReliefInput, cfg GenConfig, streams *seed.Factory) ([]bool, []Cluster) {
	n := in.Topo.Size()
	mustSize("lake land mask", len(in.Land), n)
	lake := make([]bool, n)
	var clusters []Cluster

	inland := func(i int) bool {
		return in.Land[i] && !lake[i] && in.DistToSea[i] >= lakeMinInland
	}
	for ci := 0; ci < in.Centers; ci++ {
		count := streams.Must("lakes", ci).Poisson(cfg.LakesPerCenter)
		for k := 0; k < count; k++ {
			s := streams.Must("lake", ci, k)
			cands := collect(n, func(i int) bool { return inland(i) && in.Owner[i] == ci })
			start := pickUniform(cands, s)
			if start < 0 {
				break
			}
			target := 2 + s.IntN(max(cfg.LakeSizeMax, 0)+1)
			cells := growCluster(in.Topo, start, growParams{
				Target:   target,
				Eligible: inland,
				Accept:   constAccept(lakeAccept),
			}, s)
			for _, c := range cells {
				lake[c] = true
			}
			clusters = append(clusters, Cluster{Kind: "lake", Target: target, Cells: cells})
		}
	}
	return lake, clusters
}

// GrowHighlands places highland clusters per center. Growth favors a random
// main axis with noisy perpendicular spread and never enters lakes.
func GrowHighlands(in ReliefInput, lake []bool, cfg GenConfig, streams *seed.Factory) ([]bool, []Cluster) {
	n := in.Topo.Size()
	mustSize("highland lake mask", len(lake), n)
	highland := make([]bool, n)
	var clusters []Cluster

	free := func(i int) bool { return in.Land[i] && !lake[i] && !highland[i] }
	mean := math.Max(0.5, in.LandRatio*cfg.HighlandsPerLand)
	for ci := 0; ci < in.Centers; ci++ {
		count := streams.Must("highlands", ci).Poisson(mean)
		for k := 0; k < count; k++ {
			s := streams.Must("highland-cluster", ci, k)
			cands := collect(n, func(i int) bool { return free(i) && in.Owner[i] == ci })
			start := pickUniform(cands, s)
			if start < 0 {
				break
			}
			target := s.Poisson(cfg.HighlandSize) + highlandMinLen
			axis := s.Angle()
			cells := growCluster(in.Topo, start, growParams{
				Target:   target,
				Moore:    true,
				Eligible: free,
				Accept: func(from, to int) float64 {
					dx, dy := in.Topo.Step(from, to)
					along := math.Abs(math.Cos(math.Atan2(float64(dy), float64(dx)) - axis))
					return 0.35 + 0.55*along + s.Range(-0.1, 0.1)
				},
			}, s)
			for _, c := range cells {
				highland[c] = true
			}
			clusters = append(clusters, Cluster{Kind: "highland", Target: target, Cells: cells})
		}
	}
	return highland, clusters
}

// ExtractAlpine marks highland cells at least depth (plus edge noise) away
// from any non-highland cell.
func ExtractAlpine(topo grid.Topology, highland []bool, depth float64, edgeNoise []float64, engine grid.DistanceEngine) []bool {
	n := topo.Size()
	mustSize("alpine highland mask", len(highland), n)
	mustSize("alpine noise", len(edgeNoise), n)
	alpine := make([]bool, n)
	if depth <= 0 {
		return alpine
	}
	sources := collect(n, func(i int) bool { return !highland[i] })
	dist := engine.Compute(sources, grid.OctileCost)
	for i, h := range highland {
		if h && dist[i] >= depth+edgeNoise[i]*0.5 {
			alpine[i] = true
		}
	}
	return alpine
}
