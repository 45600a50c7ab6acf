package world

import (
	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/seed"
)

// Cluster records one grown feature instance.
type Cluster struct {
	Kind   string `json:"kind"`
	Target int    `json:"target"`
	Cells  []int  `json:"cells"`
}

// growParams parameterises a breadth-first cluster growth.
type growParams struct {
	Target   int
	Moore    bool                       // 8-connectivity instead of 4
	Eligible func(i int) bool           // Cell may join the cluster
	Accept   func(from, to int) float64 // Probability a candidate is taken
}

// growCluster grows a cluster from start by breadth-first expansion. Each
// eligible neighbor is accepted with gp.Accept's probability; growth stops
// at the target size or when the frontier is exhausted. The returned cells
// are in insertion order and never exceed the target.
func growCluster(topo grid.Topology, start int, gp growParams, s *seed.Stream) []int {
	if gp.Target <= 0 || start < 0 || !gp.Eligible(start) {
		return nil
	}
	in := map[int]bool{start: true}
	cluster := []int{start}
	nbrs := make([]int, 0, 8)

	for head := 0; head < len(cluster) && len(cluster) < gp.Target; head++ {
		cur := cluster[head]
		if gp.Moore {
			nbrs = topo.Neighbors8(nbrs[:0], cur)
		} else {
			nbrs = topo.Neighbors4(nbrs[:0], cur)
		}
		for _, nb := range nbrs {
			if len(cluster) >= gp.Target {
				break
			}
			if in[nb] || !gp.Eligible(nb) {
				continue
			}
			if !s.Chance(gp.Accept(cur, nb)) {
				continue
			}
			in[nb] = true
			cluster = append(cluster, nb)
		}
	}
	return cluster
}

// constAccept returns an Accept callback with a fixed probability.
func constAccept(p float64) func(int, int) float64 {
	return func(int, int) float64 { return p }
}

// pickUniform returns a uniformly chosen cell from cands, or -1.
func pickUniform(cands []int, s *seed.Stream) int {
	if len(cands) == 0 {
		return -1
	}
	return cands[s.IntN(len(cands))]
}

// pickWeighted returns a cell from cands chosen proportionally to weight,
// or -1 when nothing carries positive weight.
func pickWeighted(cands []int, weight func(i int) float64, s *seed.Stream) int {
	total := 0.0
	for _, c := range cands {
		total += weight(c)
	}
	if total <= 0 {
		return -1
	}
	r := s.Float64() * total
	for _, c := range cands {
		w := weight(c)
		if w <= 0 {
			continue
		}
		if r < w {
			return c
		}
		r -= w
	}
	for i := len(cands) - 1; i >= 0; i-- {
		if weight(cands[i]) > 0 {
			return cands[i]
		}
	}
	return -1
}

// collect returns every index for which keep is true.
func collect(n int, keep func(i int) bool) []int {
	var out []int
	for i := 0; i < n; i++ {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
