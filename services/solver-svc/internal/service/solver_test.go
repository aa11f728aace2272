package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/config"
	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/flow"
	"vrpdfd/pkg/telemetry"
	"vrpdfd/pkg/tsp"
)

type fixture struct {
	svc   *SolverService
	spans *tracetest.SpanRecorder
}

func newFixture(t *testing.T, tweak func(*config.Config)) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Tracing.Enabled = true
	cfg.Tracing.SampleRate = 1
	if tweak != nil {
		tweak(cfg)
	}

	rec := tracetest.NewSpanRecorder()
	tp := telemetry.New(telemetry.FromConfig(cfg), rec)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := New(cfg,
		WithLogger(slogt.New(t)),
		WithRegistry(prometheus.NewRegistry()),
		WithTelemetry(tp),
	)
	return &fixture{svc: svc, spans: rec}
}

func (f *fixture) operations(op, status string) float64 {
	return testutil.ToFloat64(f.svc.metrics.SolveOperationsTotal.WithLabelValues(op, status))
}

func diamond() *flow.Network {
	return flow.NewNetwork(4, 0, 3).
		AddEdge(0, 1, 3).
		AddEdge(0, 2, 2).
		AddEdge(1, 3, 2).
		AddEdge(2, 3, 3)
}

func square() []domain.Point {
	return []domain.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
}

func TestNew_Defaults(t *testing.T) {
	svc := New(nil)
	require.NotNil(t, svc)
	assert.Equal(t, config.Default().TSP.Seed, svc.seed)
	assert.NotNil(t, svc.Registry())
	assert.Zero(t, svc.MemoStats().Cached)
}

func TestMaxFlow_Instrumented(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.MaxFlow(context.Background(), diamond())
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.Value, 1e-9)

	assert.Equal(t, 1.0, f.operations(OpMaxFlow, "ok"))
	assert.Equal(t, 1, testutil.CollectAndCount(f.svc.metrics.SolveDuration))

	spans := f.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "solver.max_flow", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestMaxFlow_InvalidGraph(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.MaxFlow(context.Background(), flow.NewNetwork(2, 0, 0))
	assert.Nil(t, res)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidGraph))
	assert.Equal(t, 1.0, f.operations(OpMaxFlow, string(apperror.CodeInvalidGraph)))

	spans := f.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestCheckedFlow_RejectsInvalidFlow(t *testing.T) {
	f := newFixture(t, nil)
	span := trace.SpanFromContext(context.Background())

	tests := []struct {
		name string
		flow [][]float64
		code apperror.ErrorCode
	}{
		{
			name: "over capacity",
			flow: [][]float64{{0, 9, 0, 0}, {0, 0, 0, 9}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			code: apperror.CodeCapacityOverflow,
		},
		{
			name: "not conserved",
			flow: [][]float64{{0, 2, 0, 0}, {0, 0, 0, 1}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			code: apperror.CodeConservationViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := f.svc.checkedFlow(span, OpMaxFlow, diamond(), &flow.Result{Flow: tt.flow}, nil)
			assert.Nil(t, fields)
			require.True(t, apperror.Is(err, tt.code), "got %v", err)

			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.SeverityCritical, appErr.Severity)
			op, _ := apperror.Detail(err, "operation")
			assert.Equal(t, OpMaxFlow, op)
		})
	}
}

func TestFlowsWithDemands(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	demands := [][]float64{
		{0, 1, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 2},
		{0, 0, 0, 0},
	}
	res, ok, err := f.svc.FlowsWithDemands(ctx, diamond(), demands)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, flow.CheckBounds(res.Flow, demands, diamond().Capacities))

	res, ok, err = f.svc.MaxFlowWithDemands(ctx, diamond(), demands)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 4.0, res.Value, 1e-9)
}

func TestFlowsWithDemands_Infeasible(t *testing.T) {
	f := newFixture(t, nil)

	net := flow.NewNetwork(4, 0, 3).
		AddEdge(0, 1, 1).
		AddEdge(0, 2, 5).
		AddEdge(1, 3, 2).
		AddEdge(2, 3, 5)
	demands := [][]float64{
		{0, 0, 0, 0},
		{0, 0, 0, 2},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}

	res, ok, err := f.svc.FlowsWithDemands(context.Background(), net, demands)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
	assert.Equal(t, 1.0, f.operations(OpFlowsWithDemands, "ok"))
}

func TestWeightedFlow(t *testing.T) {
	f := newFixture(t, nil)

	net := flow.NewNetwork(4, 0, 3).
		AddEdge(0, 1, 2).
		AddEdge(0, 2, 2).
		AddEdge(1, 3, 2).
		AddEdge(2, 3, 1)
	weights := [][]float64{
		{0, 1, 5, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}

	res, err := f.svc.WeightedFlow(context.Background(), net, weights)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, res.Value, 1e-9)
	assert.InDelta(t, 3.0, res.Volume(net.Source), 1e-9)
}

func TestSolveTSP(t *testing.T) {
	tests := []struct {
		name   string
		tweak  func(*config.Config)
		method tsp.Method
	}{
		{"exact", nil, tsp.MethodHeldKarp},
		{"two opt", func(c *config.Config) { c.TSP.HeldKarpLimit = 2 }, tsp.MethodTwoOpt},
		{"genetic", func(c *config.Config) {
			c.TSP.HeldKarpLimit = 2
			c.TSP.Heuristic = string(tsp.HeuristicGenetic)
			c.TSP.Generations = 5
		}, tsp.MethodGenetic},
		{"fake", func(c *config.Config) { c.TSP.Fake = true }, tsp.MethodFake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.tweak)

			res, err := f.svc.SolveTSP(context.Background(), TSPRequest{Cities: square(), First: 2})
			require.NoError(t, err)
			assert.Equal(t, tt.method, res.Method)
			assert.Equal(t, 2, res.Tour[0])
			assert.Len(t, res.Tour, 4)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.TSPMethodTotal.WithLabelValues(string(tt.method))))
		})
	}
}

func TestSolveTSP_TourCache(t *testing.T) {
	tests := []struct {
		name       string
		capacity   int
		wantHits   uint64
		wantSolves float64
	}{
		{"repeat served from cache", 16, 1, 1},
		{"disabled cache", 0, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *config.Config) { c.Cache.TourCapacity = tt.capacity })
			req := TSPRequest{Cities: square(), First: 1}

			first, err := f.svc.SolveTSP(context.Background(), req)
			require.NoError(t, err)
			first.Tour[0] = 99

			second, err := f.svc.SolveTSP(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, 1, second.Tour[0])
			assert.InDelta(t, 4.0, second.Length, 1e-9)

			assert.Equal(t, tt.wantHits, f.svc.TourCacheStats().Hit)
			assert.Equal(t, tt.wantSolves,
				testutil.ToFloat64(f.svc.metrics.TSPMethodTotal.WithLabelValues(string(tsp.MethodHeldKarp))))

			spans := f.spans.Ended()
			require.Len(t, spans, 2)
			hit := false
			for _, ev := range spans[1].Events() {
				hit = hit || ev.Name == "tour_cache.hit"
			}
			assert.Equal(t, tt.wantHits == 1, hit)
		})
	}
}

func TestTourKey(t *testing.T) {
	base := TSPRequest{Cities: square(), First: 1}
	assert.Equal(t, tourKey(base), tourKey(TSPRequest{Cities: square(), First: 1}))
	assert.Len(t, tourKey(base), 32)

	for name, other := range map[string]TSPRequest{
		"first":  {Cities: square(), First: 2},
		"hint":   {Cities: square(), First: 1, Hint: []int{0, 1, 2, 3}},
		"cities": {Cities: square()[:3], First: 1},
	} {
		assert.NotEqual(t, tourKey(base), tourKey(other), name)
	}
}

func TestSolveTSP_Errors(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.SolveTSP(context.Background(), TSPRequest{})
	assert.True(t, apperror.Is(err, apperror.CodeEmptyInput))

	_, err = f.svc.SolveTSP(context.Background(), TSPRequest{Cities: square(), Hint: []int{0, 0, 1, 2}})
	assert.True(t, apperror.Is(err, apperror.CodeHintMismatch))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.SolveTSP(ctx, TSPRequest{Cities: square()})
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
	assert.Equal(t, 1.0, f.operations(OpTSP, string(apperror.CodeTimeout)))
}

func TestRouteOrder_NoProblem(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.RouteOrder(context.Background(), []int{1})
	assert.True(t, apperror.Is(err, apperror.CodeEmptyInput))

	assert.True(t, apperror.Is(f.svc.SetProblem(nil), apperror.CodeEmptyInput))
}

func TestRouteOrder_Memo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.svc.SetProblem(square()))

	first, err := f.svc.RouteOrder(ctx, []int{3, 1, 2})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.InDelta(t, 4.0, first.Length, 1e-9)
	require.Len(t, first.Order, 5)
	assert.Equal(t, 0, first.Order[0])
	assert.Equal(t, 0, first.Order[4])
	assert.ElementsMatch(t, []int{1, 2, 3}, first.Order[1:4])

	// Same set with duplicates and an explicit depot hits the same entry.
	again, err := f.svc.RouteOrder(ctx, []int{2, 0, 1, 3, 3})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, first.Order, again.Order)

	stats := f.svc.MemoStats()
	assert.Equal(t, uint64(1), stats.Hit)
	assert.Equal(t, uint64(1), stats.Miss)
	assert.Equal(t, uint64(1), stats.Cached)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.MemoHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.MemoEntries))
}

func TestRouteOrder_SubsetUsesProblemIndices(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.svc.SetProblem([]domain.Point{{X: 0, Y: 0}, {X: 9, Y: 9}, {X: 3, Y: 0}, {X: 3, Y: 4}}))

	res, err := f.svc.RouteOrder(context.Background(), []int{3, 2})
	require.NoError(t, err)
	assert.InDelta(t, 12.0, res.Length, 1e-9)
	assert.Contains(t, [][]int{{0, 2, 3, 0}, {0, 3, 2, 0}}, res.Order)

	depotOnly, err := f.svc.RouteOrder(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, depotOnly.Order)
	assert.Zero(t, depotOnly.Length)
}

func TestRouteOrder_OutOfRange(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.svc.SetProblem(square()))

	for _, c := range []int{-1, 4} {
		_, err := f.svc.RouteOrder(context.Background(), []int{1, c})
		require.True(t, apperror.Is(err, apperror.CodeCityNotFound), "customer %d", c)
		v, _ := apperror.Detail(err, "customer")
		assert.Equal(t, c, v)
	}
	assert.Zero(t, f.svc.MemoStats().Cached)
}

func TestRouteOrder_RefinementConverges(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Cache.RouteRefineThreshold = 2 })
	require.NoError(t, f.svc.SetProblem(square()))

	// The exact solver returns the same length for the hint, so the entry
	// converges right after the first solve.
	res, err := f.svc.RouteOrder(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.True(t, res.Converged)

	res, err = f.svc.RouteOrder(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.True(t, res.Converged)
}

func TestRouteOrder_BelowThresholdNotRefined(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.svc.SetProblem(square()))

	res, err := f.svc.RouteOrder(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.TSPMethodTotal.WithLabelValues(string(tsp.MethodHeldKarp))))
}

func TestRouteOrder_Eviction(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Cache.RouteCapacity = 1 })
	ctx := context.Background()
	require.NoError(t, f.svc.SetProblem(square()))

	_, err := f.svc.RouteOrder(ctx, []int{1})
	require.NoError(t, err)
	_, err = f.svc.RouteOrder(ctx, []int{2})
	require.NoError(t, err)

	res, err := f.svc.RouteOrder(ctx, []int{1})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, uint64(3), f.svc.MemoStats().Miss)
}

func TestSetProblem_ClearsMemo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.svc.SetProblem(square()))

	_, err := f.svc.RouteOrder(ctx, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, uint64(1), f.svc.MemoStats().Cached)

	require.NoError(t, f.svc.SetProblem([]domain.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}}))
	stats := f.svc.MemoStats()
	assert.Zero(t, stats.Cached)
	assert.Zero(t, stats.Miss)

	res, err := f.svc.RouteOrder(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	// 5 + 5 + sqrt(50) rounded up to 7.08
	assert.InDelta(t, 17.08, res.Length, 1e-9)
}

func TestSolveBatch(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Batch.Workers = 2 })

	jobs := []Job{
		{ID: "flow", Kind: OpMaxFlow, Network: diamond()},
		{Kind: OpTSP, Cities: square()},
		{Kind: "shortest_path"},
		{Kind: OpFlowsWithDemands, Network: diamond(), Demands: make([][]float64, 4)},
	}
	for i := range jobs[3].Demands {
		jobs[3].Demands[i] = make([]float64, 4)
	}

	results, err := f.svc.SolveBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	assert.Equal(t, "flow", results[0].ID)
	require.NoError(t, results[0].Err)
	assert.InDelta(t, 4.0, results[0].Flow.Value, 1e-9)

	_, err = uuid.Parse(results[1].ID)
	assert.NoError(t, err)
	require.NoError(t, results[1].Err)
	assert.InDelta(t, 4.0, results[1].Tour.Length, 1e-9)

	assert.True(t, apperror.Is(results[2].Err, apperror.CodeInvalidArgument))
	assert.Nil(t, results[2].Feasible)

	require.NoError(t, results[3].Err)
	require.NotNil(t, results[3].Feasible)
	assert.True(t, *results[3].Feasible)

	assert.Equal(t, 0.0, testutil.ToFloat64(f.svc.metrics.BatchJobsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.BatchJobsTotal.WithLabelValues("shortest_path", string(apperror.CodeInvalidArgument))))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.BatchJobsTotal.WithLabelValues(OpTSP, "ok")))
}

func TestSolveBatch_Cancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.svc.SolveBatch(ctx, []Job{
		{Kind: OpMaxFlow, Network: diamond()},
		{Kind: OpTSP, Cities: square()},
	})
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, apperror.Is(r.Err, apperror.CodeTimeout))
	}
}
