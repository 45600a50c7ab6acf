package grid

import (
	"container/heap"
	"math"
)

// StepCost returns the cost of moving between two adjacent cells.
type StepCost func(t Topology, from, to int) float64

// OctileCost charges 1 for orthogonal and √2 for diagonal steps.
func OctileCost(t Topology, from, to int) float64 {
	dx, dy := t.Step(from, to)
	if dx != 0 && dy != 0 {
		return math.Sqrt2
	}
	return 1
}

// UnitCost charges 1 per step.
func UnitCost(Topology, int, int) float64 { return 1 }

// DistanceEngine computes multi-source shortest distances over a topology.
type DistanceEngine interface {
	Compute(sources []int, cost StepCost) []float64
}

// Dijkstra is the binary-heap multi-source Dijkstra engine over the
// Moore neighborhood of the topology.
type Dijkstra struct {
	Topo Topology
}

// NewDijkstra returns a distance engine for t.
func NewDijkstra(t Topology) *Dijkstra {
	return &Dijkstra{Topo: t}
}

// Compute returns the distance from every cell to its nearest source.
// Cells that cannot reach a source (or every cell, when sources is empty)
// get +Inf.
func (d *Dijkstra) Compute(sources []int, cost StepCost) []float64 {
	if cost == nil {
		cost = OctileCost
	}
	n := d.Topo.Size()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}

	pq := make(distQueue, 0, len(sources))
	for _, s := range sources {
		if s < 0 || s >= n || dist[s] == 0 {
			continue
		}
		dist[s] = 0
		pq = append(pq, distItem{cell: s, dist: 0})
	}
	heap.Init(&pq)

	nbrs := make([]int, 0, 8)
	for pq.Len() > 0 {
		it := heap.Pop(&pq).(distItem)
		if it.dist > dist[it.cell] {
			continue
		}
		nbrs = d.Topo.Neighbors8(nbrs[:0], it.cell)
		for _, nb := range nbrs {
			nd := it.dist + cost(d.Topo, it.cell, nb)
			if nd < dist[nb] {
				dist[nb] = nd
				heap.Push(&pq, distItem{cell: nb, dist: nd})
			}
		}
	}
	return dist
}

type distItem struct {
	cell int
	dist float64
}

// distQueue is a min-heap of cells keyed by tentative distance.
type distQueue []distItem

func (q distQueue) Len() int           { return len(q) }
func (q distQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q distQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any)        { *q = append(*q, x.(distItem)) }
func (q *distQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
