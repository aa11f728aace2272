package flow

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrpdfd/pkg/apperror"
)

func demandMatrix(size int, entries map[[2]int]float64) [][]float64 {
	m := newMatrix(size)
	for k, v := range entries {
		m[k[0]][k[1]] = v
	}
	return m
}

func TestFlowsWithDemands_Feasible(t *testing.T) {
	net := diamond()
	demands := demandMatrix(4, map[[2]int]float64{
		{0, 1}: 1,
		{2, 3}: 2,
	})

	res, ok, err := FlowsWithDemands(net, demands)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, CheckBounds(res.Flow, demands, net.Capacities))
	require.NoError(t, CheckConservation(res.Flow, net.Source, net.Sink))
	assert.GreaterOrEqual(t, res.Flow[2][3], 2.0-1e-9)
	assert.InDelta(t, res.Volume(net.Source), res.Value, 1e-9)
}

func TestFlowsWithDemands_ZeroDemandsGiveValidFlow(t *testing.T) {
	net := diamond()
	res, ok, err := FlowsWithDemands(net, newMatrix(4))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, CheckBounds(res.Flow, nil, net.Capacities))
	require.NoError(t, CheckConservation(res.Flow, net.Source, net.Sink))
}

func TestFlowsWithDemands_Infeasible(t *testing.T) {
	// 1→3 must carry 2 but only 1 can enter node 1.
	net := NewNetwork(4, 0, 3).
		AddEdge(0, 1, 1).
		AddEdge(0, 2, 5).
		AddEdge(1, 3, 2).
		AddEdge(2, 3, 5)
	demands := demandMatrix(4, map[[2]int]float64{{1, 3}: 2})

	res, ok, err := FlowsWithDemands(net, demands)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestFlowsWithDemands_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		demands [][]float64
		key     string
		val     any
	}{
		{
			name:    "demand above capacity",
			demands: demandMatrix(4, map[[2]int]float64{{0, 2}: 2.5}),
			key:     "demand",
			val:     2.5,
		},
		{
			name:    "demand on missing edge",
			demands: demandMatrix(4, map[[2]int]float64{{1, 2}: 1}),
			key:     "capacity",
			val:     0.0,
		},
		{
			name:    "negative demand",
			demands: demandMatrix(4, map[[2]int]float64{{0, 1}: -1}),
			key:     "demand",
			val:     -1.0,
		},
		{
			name:    "wrong dimensions",
			demands: newMatrix(3),
			key:     "matrix",
			val:     "demands",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := FlowsWithDemands(diamond(), tt.demands)
			assert.False(t, ok)
			require.True(t, apperror.Is(err, apperror.CodeInvalidGraph), "got %v", err)
			v, found := apperror.Detail(err, tt.key)
			require.True(t, found)
			assert.Equal(t, tt.val, v)
		})
	}
}

func TestMaxFlowWithDemands_Infeasible(t *testing.T) {
	// 2→3 needs 3 units but at most 2 can reach node 2.
	demands := demandMatrix(4, map[[2]int]float64{{2, 3}: 3})

	res, ok, err := MaxFlowWithDemands(diamond(), demands)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestMaxFlowWithDemands_Maximises(t *testing.T) {
	net := diamond()
	demands := demandMatrix(4, map[[2]int]float64{{0, 1}: 1, {1, 3}: 1})

	res, ok, err := MaxFlowWithDemands(net, demands)
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 4.0, res.Value, 1e-9)
	require.NoError(t, CheckBounds(res.Flow, demands, net.Capacities))
	require.NoError(t, CheckConservation(res.Flow, net.Source, net.Sink))
}

// TestFlowsWithDemands_RandomProperties derives demands from a known feasible
// flow, so every instance must be reported feasible.
func TestFlowsWithDemands_RandomProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	for iter := 0; iter < 100; iter++ {
		net := randomNetwork(rng, 3+rng.IntN(5), 0.5)
		base, err := MaxFlow(net)
		require.NoError(t, err)

		demands := newMatrix(net.Size)
		for i := range demands {
			for j := range demands[i] {
				demands[i][j] = base.Flow[i][j] * rng.Float64()
			}
		}

		res, ok, err := FlowsWithDemands(net, demands)
		require.NoError(t, err)
		require.True(t, ok, "iteration %d", iter)
		require.NoError(t, CheckBounds(res.Flow, demands, net.Capacities))
		require.NoError(t, CheckConservation(res.Flow, net.Source, net.Sink))

		maxRes, ok, err := MaxFlowWithDemands(net, demands)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, CheckBounds(maxRes.Flow, demands, net.Capacities))
		require.NoError(t, CheckConservation(maxRes.Flow, net.Source, net.Sink))
		assert.InDelta(t, base.Value, maxRes.Value, 1e-6, "iteration %d", iter)
	}
}
