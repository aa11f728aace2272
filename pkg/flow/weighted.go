package flow

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
)

// =============================================================================
// Reward-weighted maximum flow
// =============================================================================
//
// Each round searches the residual graph for the simple path with the highest
// cumulative reward. Between two nodes u and v the search sees up to two
// residual arcs: the real edge u→v (earns weight[u][v] while it has spare
// capacity) and the cancellation of flow already on v→u (gives back
// weight[v][u]). The two are tracked separately, so anti-parallel edges keep
// their own weights and Value always equals Σ weight × flow.
//
// The search is label-correcting: a node is re-expanded whenever a path
// reaches it with a better reward than any seen before. Every frontier entry
// carries its own visited set and path, so cycles are impossible and the
// augmenting path is exactly the one that earned the sink label.
//
// Exponential in the worst case; intended for small layered networks.
// =============================================================================

const (
	// weightedStartFlow is the bottleneck assumed at the source.
	weightedStartFlow = 1e9
	// weightedNoLabel is the initial best reward of every node. Paths whose
	// reward does not exceed it are pruned.
	weightedNoLabel = -1.0
)

// rewardArc is one residual step of an augmenting path.
type rewardArc struct {
	from, to int
	// cancel: шаг уменьшает поток на ребре to→from, а не использует from→to
	cancel bool
}

// weightedEntry is a frontier entry of the reward search.
type weightedEntry struct {
	node    int
	flow    float64
	reward  float64
	visited *bitset.BitSet
	path    []rewardArc
}

// rewardResidual keeps the gross flow of every real edge, so flow on u→v and
// on v→u never net out against each other.
type rewardResidual struct {
	size     int
	capacity [][]float64
	weight   [][]float64
	flow     [][]float64
	adj      []*bitset.BitSet
}

func newRewardResidual(net *Network, weights [][]float64) *rewardResidual {
	r := &rewardResidual{
		size:     net.Size,
		capacity: net.Capacities,
		weight:   weights,
		flow:     newMatrix(net.Size),
		adj:      make([]*bitset.BitSet, net.Size),
	}
	for i := range r.adj {
		r.adj[i] = bitset.New(uint(net.Size))
	}
	net.eachEdge(func(i, j int) {
		r.adj[i].Set(uint(j))
		r.adj[j].Set(uint(i))
	})
	return r
}

// room returns how much more flow the arc accepts.
func (r *rewardResidual) room(a rewardArc) float64 {
	if a.cancel {
		return r.flow[a.to][a.from]
	}
	return r.capacity[a.from][a.to] - r.flow[a.from][a.to]
}

// reward returns the reward per unit pushed across the arc.
func (r *rewardResidual) reward(a rewardArc) float64 {
	if a.cancel {
		return -r.weight[a.to][a.from]
	}
	return r.weight[a.from][a.to]
}

func (r *rewardResidual) push(path []rewardArc, f float64) {
	for _, a := range path {
		if a.cancel {
			r.flow[a.to][a.from] = domain.ClampZero(r.flow[a.to][a.from] - f)
		} else {
			r.flow[a.from][a.to] += f
		}
	}
}

// flows returns the gross flow matrix with rounding noise removed.
func (r *rewardResidual) flows() [][]float64 {
	out := newMatrix(r.size)
	for i := range out {
		for j := range out[i] {
			if domain.IsPositive(r.flow[i][j]) {
				out[i][j] = r.flow[i][j]
			}
		}
	}
	return out
}

// MaximumWeightedFlow routes flow from source to sink preferring paths with
// the highest total reward and returns the accrued Σ reward × flow as Value.
//
// weights must be a Size×Size non-negative matrix with non-zero entries only
// on existing edges. Flow on anti-parallel edges is reported gross: each edge
// keeps its own amount and its own weight.
func MaximumWeightedFlow(net *Network, weights [][]float64) (*Result, error) {
	if err := validateWeights(net, weights); err != nil {
		return nil, err
	}

	r := newRewardResidual(net, weights)

	total := 0.0
	count := 0
	for {
		path, f, pathReward := bestRewardPath(r, net.Source, net.Sink)
		if f <= domain.Epsilon {
			break
		}
		r.push(path, f)
		total += pathReward * f
		count++
	}

	return &Result{
		Value:         total,
		Flow:          r.flows(),
		Augmentations: count,
	}, nil
}

func validateWeights(net *Network, weights [][]float64) error {
	if err := net.Validate(); err != nil {
		return err
	}
	if err := checkMatrix("flow_weights", weights, net.Size); err != nil {
		return err
	}
	for i := 0; i < net.Size; i++ {
		for j := 0; j < net.Size; j++ {
			w := weights[i][j]
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return apperror.InvalidGraph("flow weight must be finite and non-negative",
					"from", i, "to", j, "weight", w)
			}
			if w > 0 && !net.HasEdge(i, j) {
				return apperror.InvalidGraph("flow weight set on missing edge",
					"from", i, "to", j, "weight", w)
			}
		}
	}
	return nil
}

// bestRewardPath returns the recorded path of the best sink label, its
// bottleneck and its reward. A zero bottleneck means no augmenting path.
func bestRewardPath(r *rewardResidual, source, sink int) ([]rewardArc, float64, float64) {
	best := make([]float64, r.size)
	for i := range best {
		best[i] = weightedNoLabel
	}

	var (
		sinkPath   []rewardArc
		sinkFlow   float64
		sinkReward float64
	)

	frontier := []weightedEntry{{
		node:    source,
		flow:    weightedStartFlow,
		visited: bitset.New(uint(r.size)),
	}}

	for head := 0; head < len(frontier); head++ {
		cur := frontier[head]
		cur.visited.Set(uint(cur.node))
		if cur.flow <= domain.Epsilon {
			continue
		}

		adj := r.adj[cur.node]
		for v, ok := adj.NextSet(0); ok; v, ok = adj.NextSet(v + 1) {
			if cur.visited.Test(v) {
				continue
			}
			// сначала настоящее ребро, затем отмена встречного потока
			for _, cancel := range [2]bool{false, true} {
				a := rewardArc{from: cur.node, to: int(v), cancel: cancel}
				f := math.Min(cur.flow, r.room(a))
				w := cur.reward + r.reward(a)
				if f <= domain.Epsilon || w <= best[a.to] {
					continue
				}
				best[a.to] = w

				path := make([]rewardArc, len(cur.path)+1)
				copy(path, cur.path)
				path[len(cur.path)] = a

				if a.to == sink {
					sinkPath, sinkFlow, sinkReward = path, f, w
					continue
				}
				frontier = append(frontier, weightedEntry{
					node:    a.to,
					flow:    f,
					reward:  w,
					visited: cur.visited.Clone(),
					path:    path,
				})
			}
		}
	}

	return sinkPath, sinkFlow, sinkReward
}
