package flow

import (
	"math"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
)

// PathWithFlow is one source→sink path of a flow decomposition.
type PathWithFlow struct {
	Nodes []int   `json:"nodes"`
	Flow  float64 `json:"flow"`
}

// Decompose splits a flow matrix into source→sink paths. Each step follows
// the lowest-indexed edge with remaining flow, so the output is
// deterministic. Flow trapped in cycles is not reported.
func Decompose(flow [][]float64, source, sink int) []PathWithFlow {
	rest := cloneMatrix(flow)
	n := len(rest)
	var paths []PathWithFlow

	for {
		path := []int{source}
		onPath := make([]bool, n)
		onPath[source] = true
		bottleneck := math.Inf(1)

		for cur := source; cur != sink; {
			next := -1
			for j := 0; j < n; j++ {
				if !onPath[j] && rest[cur][j] > domain.Epsilon {
					next = j
					break
				}
			}
			if next == -1 {
				break
			}
			bottleneck = math.Min(bottleneck, rest[cur][next])
			path = append(path, next)
			onPath[next] = true
			cur = next
		}

		if path[len(path)-1] != sink {
			if len(path) == 1 {
				return paths
			}
			// dead end: drop the stuck edge and retry
			last := len(path) - 1
			rest[path[last-1]][path[last]] = 0
			continue
		}

		for k := 0; k+1 < len(path); k++ {
			rest[path[k]][path[k+1]] -= bottleneck
		}
		paths = append(paths, PathWithFlow{Nodes: path, Flow: bottleneck})
	}
}

// Verify checks a solver result against its network: every edge flow lies
// within [lower, capacity] (nil lower means zero) and conservation holds.
// Violations carry critical severity since they can only come from a solver
// defect.
func Verify(net *Network, res *Result, lower [][]float64) error {
	if err := CheckBounds(res.Flow, lower, net.Capacities); err != nil {
		return err
	}
	return CheckConservation(res.Flow, net.Source, net.Sink)
}

// CheckConservation verifies that inflow equals outflow at every node other
// than source and sink.
func CheckConservation(flow [][]float64, source, sink int) error {
	for v := range flow {
		if v == source || v == sink {
			continue
		}
		in, out := 0.0, 0.0
		for u := range flow {
			in += flow[u][v]
			out += flow[v][u]
		}
		if math.Abs(in-out) > domain.Epsilon*math.Max(1, math.Max(in, out)) {
			return apperror.New(apperror.CodeConservationViolation, "inflow differs from outflow").
				WithSeverity(apperror.SeverityCritical).
				WithDetails("node", v).
				WithDetails("inflow", in).
				WithDetails("outflow", out)
		}
	}
	return nil
}

// CheckBounds verifies lower[i][j] ≤ flow[i][j] ≤ upper[i][j] for every entry.
// A nil lower matrix means all-zero lower bounds.
func CheckBounds(flow, lower, upper [][]float64) error {
	for i := range flow {
		for j := range flow[i] {
			lo := 0.0
			if lower != nil {
				lo = lower[i][j]
			}
			f := flow[i][j]
			if domain.FloatLess(f, lo) || domain.FloatGreater(f, upper[i][j]) {
				return apperror.New(apperror.CodeCapacityOverflow, "edge flow out of bounds").
					WithSeverity(apperror.SeverityCritical).
					WithDetails("from", i).
					WithDetails("to", j).
					WithDetails("flow", f).
					WithDetails("lower", lo).
					WithDetails("upper", upper[i][j])
			}
		}
	}
	return nil
}
