package flow

import (
	"github.com/bits-and-blooms/bitset"

	"vrpdfd/pkg/domain"
)

// =============================================================================
// Residual Graph
// =============================================================================

// residual is the dense residual graph shared by the augmenting-path solvers.
//
// Every original edge (u, v) with capacity c contributes a forward residual
// entry cap[u][v] = c and a reverse entry cap[v][u] that starts at zero (or at
// the capacity of a real anti-parallel edge). Pushing f units along (u, v)
// moves f from cap[u][v] to cap[v][u], which lets later searches cancel flow.
//
// adj holds the residual neighbour sets: each node sees both its original
// out-neighbours and the tails of edges pointing at it.
//
// net records the signed net flow; net[u][v] == -net[v][u] at all times.
type residual struct {
	size int
	cap  [][]float64
	adj  []*bitset.BitSet
	net  [][]float64
}

// newResidual builds the residual graph of a network without validating it.
func newResidual(n *Network) *residual {
	r := &residual{
		size: n.Size,
		cap:  newMatrix(n.Size),
		adj:  make([]*bitset.BitSet, n.Size),
		net:  newMatrix(n.Size),
	}
	for i := range r.adj {
		r.adj[i] = bitset.New(uint(n.Size))
	}
	n.eachEdge(func(i, j int) {
		r.cap[i][j] += n.Capacities[i][j]
		r.adj[i].Set(uint(j))
		r.adj[j].Set(uint(i))
	})
	return r
}

// push moves f units of flow across the edge u→v.
func (r *residual) push(u, v int, f float64) {
	r.cap[u][v] -= f
	r.cap[v][u] += f
	r.net[u][v] += f
	r.net[v][u] -= f
}

// augment pushes f along the predecessor chain ending at sink.
func (r *residual) augment(parent []int, source, sink int, f float64) {
	for v := sink; v != source; {
		u := parent[v]
		r.push(u, v, f)
		v = u
	}
}

// flows returns the net flow matrix with negative entries clamped to zero.
// Where two anti-parallel edges both carried flow, only the net amount is kept
// on the dominant direction, which is an equivalent valid flow.
func (r *residual) flows() [][]float64 {
	out := newMatrix(r.size)
	for i := range out {
		for j := range out[i] {
			if v := r.net[i][j]; v > domain.Epsilon {
				out[i][j] = v
			}
		}
	}
	return out
}
