// Package flow implements the network-flow solver family: maximum flow,
// feasible flow under per-edge lower bounds ("demands") and reward-weighted
// maximum flow. All solvers operate on a dense Network and are pure
// functions: every call builds its own residual state and returns a fresh
// Result, so disjoint inputs may be solved from different goroutines.
package flow

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"vrpdfd/pkg/apperror"
)

// =============================================================================
// Network
// =============================================================================

// Network is the shared graph representation for all flow variants.
//
// Capacities is a dense Size×Size matrix. Neighbors holds the out-neighbour
// set of every node; iteration over a set is always in ascending index order,
// which keeps every solver deterministic.
//
// Invariants checked by Validate:
//   - Capacities[i][j] > 0 implies j ∈ Neighbors[i] (no phantom edges)
//   - no node lists Source as a neighbour (no edges into the source)
//   - Neighbors[Sink] is empty (no edges out of the sink)
//
// A neighbour entry with zero capacity is accepted; it carries no flow.
type Network struct {
	Size       int
	Capacities [][]float64
	Neighbors  []*bitset.BitSet
	Source     int
	Sink       int

	// stray holds AddEdge calls whose endpoints fall outside [0, Size).
	stray []edgeRef
}

type edgeRef struct {
	from, to int
}

// NewNetwork allocates an empty network with size nodes.
//
// Example:
//
//	net := flow.NewNetwork(4, 0, 3).
//	    AddEdge(0, 1, 3).
//	    AddEdge(0, 2, 2).
//	    AddEdge(1, 3, 2).
//	    AddEdge(2, 3, 3)
func NewNetwork(size, source, sink int) *Network {
	if size < 0 {
		size = 0
	}
	net := &Network{
		Size:       size,
		Capacities: newMatrix(size),
		Neighbors:  make([]*bitset.BitSet, size),
		Source:     source,
		Sink:       sink,
	}
	for i := range net.Neighbors {
		net.Neighbors[i] = bitset.New(uint(size))
	}
	return net
}

// AddEdge sets the capacity of the edge from→to and registers to as a
// neighbour of from. Out-of-range endpoints leave the graph untouched and are
// kept aside, so the next Validate reports them instead of panicking here.
func (n *Network) AddEdge(from, to int, capacity float64) *Network {
	if from < 0 || from >= n.Size || from >= len(n.Neighbors) || to < 0 || to >= n.Size {
		n.stray = append(n.stray, edgeRef{from: from, to: to})
		return n
	}
	n.Neighbors[from].Set(uint(to))
	if from < len(n.Capacities) && to < len(n.Capacities[from]) {
		n.Capacities[from][to] = capacity
	}
	return n
}

// NewNetworkFromLists builds a network from a dense capacity matrix and
// plain neighbour lists, the form in which host code usually holds them.
// The result is validated.
func NewNetworkFromLists(capacities [][]float64, neighbors [][]int, source, sink int) (*Network, error) {
	size := len(capacities)
	if len(neighbors) != size {
		return nil, apperror.InvalidGraph("neighbour list count does not match capacity rows",
			"rows", size, "neighbor_lists", len(neighbors))
	}

	net := &Network{
		Size:       size,
		Capacities: capacities,
		Neighbors:  make([]*bitset.BitSet, size),
		Source:     source,
		Sink:       sink,
	}
	for i, list := range neighbors {
		set := bitset.New(uint(size))
		for _, j := range list {
			// bitset растёт до j+1 бит, огромный индекс не должен дойти до Set
			if j < 0 || j >= size {
				return nil, apperror.InvalidGraph("node has invalid neighbor",
					"node", i, "neighbor", j)
			}
			set.Set(uint(j))
		}
		net.Neighbors[i] = set
	}

	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// HasEdge reports whether j is an out-neighbour of i.
func (n *Network) HasEdge(i, j int) bool {
	if i < 0 || i >= len(n.Neighbors) || j < 0 || n.Neighbors[i] == nil {
		return false
	}
	return n.Neighbors[i].Test(uint(j))
}

// EdgeCount returns the number of neighbour entries.
func (n *Network) EdgeCount() int {
	total := 0
	for _, set := range n.Neighbors {
		if set != nil {
			total += int(set.Count())
		}
	}
	return total
}

// TotalCapacity sums the capacity over all edges.
func (n *Network) TotalCapacity() float64 {
	sum := 0.0
	n.eachEdge(func(i, j int) {
		sum += n.Capacities[i][j]
	})
	return sum
}

// Clone returns a deep copy of the network.
func (n *Network) Clone() *Network {
	c := &Network{
		Size:       n.Size,
		Capacities: cloneMatrix(n.Capacities),
		Neighbors:  make([]*bitset.BitSet, len(n.Neighbors)),
		Source:     n.Source,
		Sink:       n.Sink,
		stray:      append([]edgeRef(nil), n.stray...),
	}
	for i, set := range n.Neighbors {
		if set != nil {
			c.Neighbors[i] = set.Clone()
		}
	}
	return c
}

// eachEdge calls fn for every neighbour entry in ascending (i, j) order.
func (n *Network) eachEdge(fn func(i, j int)) {
	for i, set := range n.Neighbors {
		if set == nil {
			continue
		}
		for j, ok := set.NextSet(0); ok; j, ok = set.NextSet(j + 1) {
			fn(i, int(j))
		}
	}
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks dimensions, source/sink placement, edge direction
// invariants and capacity consistency. The first violation is returned as
// an apperror with code INVALID_GRAPH and the offending index/value attached.
func (n *Network) Validate() error {
	if n == nil {
		return apperror.InvalidGraph("network is nil")
	}
	if n.Size <= 0 {
		return apperror.InvalidGraph("network size must be positive", "size", n.Size)
	}
	if err := checkMatrix("capacities", n.Capacities, n.Size); err != nil {
		return err
	}
	if len(n.Neighbors) != n.Size {
		return apperror.InvalidGraph("neighbour set count does not match size",
			"neighbor_sets", len(n.Neighbors), "size", n.Size)
	}
	if n.Source < 0 || n.Source >= n.Size {
		return apperror.InvalidGraph("source out of range", "source", n.Source, "size", n.Size)
	}
	if n.Sink < 0 || n.Sink >= n.Size {
		return apperror.InvalidGraph("sink out of range", "sink", n.Sink, "size", n.Size)
	}
	if n.Source == n.Sink {
		return apperror.InvalidGraph("source and sink must differ", "source", n.Source)
	}
	if len(n.stray) > 0 {
		e := n.stray[0]
		return apperror.InvalidGraph("node has invalid neighbor",
			"node", e.from, "neighbor", e.to)
	}

	for i, set := range n.Neighbors {
		if set == nil {
			continue
		}
		for j, ok := set.NextSet(0); ok; j, ok = set.NextSet(j + 1) {
			if int(j) >= n.Size || int(j) == n.Source {
				return apperror.InvalidGraph("node has invalid neighbor",
					"node", i, "neighbor", int(j))
			}
		}
	}
	if sinkSet := n.Neighbors[n.Sink]; sinkSet != nil && sinkSet.Count() > 0 {
		return apperror.InvalidGraph("sink must not have outgoing edges",
			"sink", n.Sink, "out_degree", int(sinkSet.Count()))
	}

	for i := 0; i < n.Size; i++ {
		for j := 0; j < n.Size; j++ {
			c := n.Capacities[i][j]
			if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
				return apperror.InvalidGraph("capacity must be finite and non-negative",
					"from", i, "to", j, "capacity", c)
			}
			if c > 0 && !n.HasEdge(i, j) {
				return apperror.InvalidGraph("capacity set on missing edge",
					"from", i, "to", j, "capacity", c)
			}
		}
	}
	return nil
}

func checkMatrix(name string, m [][]float64, size int) error {
	if len(m) != size {
		return apperror.InvalidGraph("matrix has wrong row count",
			"matrix", name, "rows", len(m), "expected", size)
	}
	for i, row := range m {
		if len(row) != size {
			return apperror.InvalidGraph("matrix row has wrong length",
				"matrix", name, "row", i, "length", len(row), "expected", size)
		}
	}
	return nil
}

func newMatrix(size int) [][]float64 {
	m := make([][]float64, size)
	for i := range m {
		m[i] = make([]float64, size)
	}
	return m
}

func cloneMatrix(src [][]float64) [][]float64 {
	dst := make([][]float64, len(src))
	for i, row := range src {
		dst[i] = make([]float64, len(row))
		copy(dst[i], row)
	}
	return dst
}
