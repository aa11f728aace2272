package flow

import (
	"vrpdfd/pkg/domain"
)

// =============================================================================
// Maximum flow (shortest augmenting paths)
// =============================================================================
//
// Edmonds–Karp style: repeatedly find the shortest augmenting path in the
// residual graph by BFS and push its bottleneck, until the sink becomes
// unreachable.
//
// Time Complexity: O(V × E²)
// Space Complexity: O(V²) (dense residual matrix)
// =============================================================================

// Result is the output of every flow solver.
type Result struct {
	// Value is the flow volume routed from source to sink, or the accrued
	// reward for MaximumWeightedFlow.
	Value float64 `json:"value"`

	// Flow is the dense Size×Size edge flow matrix, all entries ≥ 0.
	Flow [][]float64 `json:"flow"`

	// Augmentations is the number of augmenting paths used.
	Augmentations int `json:"augmentations"`
}

// Volume returns the net amount leaving the source according to Flow.
func (r *Result) Volume(source int) float64 {
	sum := 0.0
	for j := range r.Flow[source] {
		sum += r.Flow[source][j] - r.Flow[j][source]
	}
	return sum
}

// MaxFlow computes a maximum flow from net.Source to net.Sink.
//
// Returns an apperror with code INVALID_GRAPH if net violates any structural
// invariant; no flow work is done in that case.
func MaxFlow(net *Network) (*Result, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	res, _ := maxFlow(net)
	return res, nil
}

// maxFlow runs the solver without validation and also returns the final
// residual graph for callers that inspect saturation.
func maxFlow(net *Network) (*Result, *residual) {
	r := newResidual(net)
	augmentations, value := r.saturate(net.Source, net.Sink)
	return &Result{
		Value:         value,
		Flow:          r.flows(),
		Augmentations: augmentations,
	}, r
}

// saturate pushes flow along shortest augmenting paths until the sink is
// unreachable and returns the number of paths and the total pushed.
func (r *residual) saturate(source, sink int) (int, float64) {
	s := newSearch(r.size)
	total := 0.0
	count := 0
	for {
		f := s.shortestAugmentingPath(r, source, sink)
		if f <= domain.Epsilon {
			break
		}
		r.augment(s.parent, source, sink, f)
		total += f
		count++
	}
	return count, total
}
