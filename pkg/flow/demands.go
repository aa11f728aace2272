package flow

import (
	"math"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
)

// =============================================================================
// Flows with demands (lower bounds)
// =============================================================================
//
// Reduction to a circulation feasibility problem. With n original nodes:
//   - S' = n feeds every node i with the total demand entering i
//   - every node i drains the total demand leaving i into T' = n+1
//   - every original edge keeps only its slack, capacity - demand
//   - sink→source gets a capacity above the sum of all capacities
//
// A feasible flow exists iff the maximum S'→T' flow saturates every S' edge.
// Adding the demands back to the slack flow yields the edge flows.
// =============================================================================

// FlowsWithDemands finds a flow with demands[i][j] ≤ flow[i][j] ≤
// capacities[i][j] on every edge and conservation at every node other than
// source and sink.
//
// ok == false with a nil error means no such flow exists; infeasibility is a
// regular outcome, not an error. Malformed input, including a demand above
// its edge capacity, fails with INVALID_GRAPH.
//
// The returned flow is feasible but not necessarily maximal; use
// MaxFlowWithDemands for the largest feasible flow.
func FlowsWithDemands(net *Network, demands [][]float64) (*Result, bool, error) {
	if err := validateDemands(net, demands); err != nil {
		return nil, false, err
	}
	res, ok := feasibleFlow(net, demands)
	return res, ok, nil
}

// MaxFlowWithDemands first finds a feasible flow, then augments it from source
// to sink while never dropping an edge below its demand.
func MaxFlowWithDemands(net *Network, demands [][]float64) (*Result, bool, error) {
	if err := validateDemands(net, demands); err != nil {
		return nil, false, err
	}
	base, ok := feasibleFlow(net, demands)
	if !ok {
		return nil, false, nil
	}

	r := newBoundedResidual(net, demands, base.Flow)
	more, _ := r.saturate(net.Source, net.Sink)

	res := &Result{
		Flow:          boundedFlows(net, demands, r.net),
		Augmentations: base.Augmentations + more,
	}
	res.Value = res.Volume(net.Source)
	return res, true, nil
}

func validateDemands(net *Network, demands [][]float64) error {
	if err := net.Validate(); err != nil {
		return err
	}
	if err := checkMatrix("demands", demands, net.Size); err != nil {
		return err
	}
	for i := 0; i < net.Size; i++ {
		for j := 0; j < net.Size; j++ {
			d := demands[i][j]
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return apperror.InvalidGraph("demand must be finite and non-negative",
					"from", i, "to", j, "demand", d)
			}
			if d > net.Capacities[i][j] {
				return apperror.InvalidGraph("demand exceeds capacity",
					"from", i, "to", j, "demand", d, "capacity", net.Capacities[i][j])
			}
		}
	}
	return nil
}

// feasibleFlow builds the auxiliary network and runs one max-flow call on it.
func feasibleFlow(net *Network, demands [][]float64) (*Result, bool) {
	n := net.Size
	superSource, superSink := n, n+1

	in := make([]float64, n)
	out := make([]float64, n)
	net.eachEdge(func(i, j int) {
		in[j] += demands[i][j]
		out[i] += demands[i][j]
	})

	aux := NewNetwork(n+2, superSource, superSink)
	for i := 0; i < n; i++ {
		aux.AddEdge(superSource, i, in[i])
		aux.AddEdge(i, superSink, out[i])
	}
	net.eachEdge(func(i, j int) {
		aux.AddEdge(i, j, net.Capacities[i][j]-demands[i][j])
	})
	aux.AddEdge(net.Sink, net.Source, net.TotalCapacity()+1)

	auxRes, r := maxFlow(aux)

	for i := 0; i < n; i++ {
		if in[i]-r.net[superSource][i] > domain.Epsilon*math.Max(1, in[i]) {
			return nil, false
		}
	}

	flow := newMatrix(n)
	net.eachEdge(func(i, j int) {
		flow[i][j] = auxRes.Flow[i][j] + demands[i][j]
	})
	res := &Result{Flow: flow, Augmentations: auxRes.Augmentations}
	res.Value = res.Volume(net.Source)
	return res, true
}

// newBoundedResidual builds the residual graph around an existing feasible
// flow: forward room is capacity - flow, backward room is flow - demand.
func newBoundedResidual(net *Network, demands, flow [][]float64) *residual {
	r := newResidual(&Network{Size: net.Size, Capacities: newMatrix(net.Size), Neighbors: net.Neighbors})
	net.eachEdge(func(i, j int) {
		r.cap[i][j] += net.Capacities[i][j] - flow[i][j]
		r.cap[j][i] += flow[i][j] - demands[i][j]
		r.net[i][j] += flow[i][j]
		r.net[j][i] -= flow[i][j]
	})
	return r
}

// boundedFlows splits the signed net flow between each pair of nodes back
// onto the real edges so that every edge stays within [demand, capacity].
func boundedFlows(net *Network, demands, signed [][]float64) [][]float64 {
	out := newMatrix(net.Size)
	net.eachEdge(func(i, j int) {
		reverseDemand := 0.0
		if net.HasEdge(j, i) {
			reverseDemand = demands[j][i]
		}
		f := math.Max(demands[i][j], signed[i][j]+reverseDemand)
		if f > domain.Epsilon {
			out[i][j] = f
		}
	})
	return out
}
