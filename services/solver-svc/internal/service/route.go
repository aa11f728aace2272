package service

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/lru"
	"vrpdfd/pkg/telemetry"
	"vrpdfd/pkg/tsp"
)

// =============================================================================
// Route memo
// =============================================================================
//
// The memo maps a sorted set of problem indices (depot 0 always included) to
// the best closed tour found for it. Sets larger than the refine threshold
// are re-solved with their cached tour as the hint on every lookup until a
// re-solve stops improving; the entry is then converged and served as-is.
//
// Entries are never invalidated individually: SetProblem clears the memo.
// =============================================================================

type route struct {
	length    float64
	tour      []int // позиции в ключе, tour[0] == 0
	method    tsp.Method
	converged bool
}

// Route результат RouteOrder
type Route struct {
	Length float64 `json:"length"`
	// Order индексы задачи: начинается и заканчивается депо
	Order     []int      `json:"order"`
	Method    tsp.Method `json:"method"`
	Cached    bool       `json:"cached"`
	Converged bool       `json:"converged"`
}

func compareKeys(a, b []int) int {
	return slices.Compare(a, b)
}

// SetProblem задаёт точки задачи: points[0] депо, остальные клиенты.
// Кэш маршрутов очищается вместе со счётчиками.
func (s *SolverService) SetProblem(points []domain.Point) error {
	if len(points) == 0 {
		return apperror.New(apperror.CodeEmptyInput, "problem has no depot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.problem = slices.Clone(points)
	s.routes.Clear()
	s.publishMemo()
	s.log.Info("problem loaded", "customers", len(points)-1)
	return nil
}

// RouteOrder возвращает кратчайший найденный замкнутый маршрут из депо через
// заданных клиентов. Повторы и депо в customers допустимы.
//
// Вызовы сериализуются: кэш маршрутов не потокобезопасен.
func (s *SolverService) RouteOrder(ctx context.Context, customers []int) (*Route, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	var out *Route
	attrs := []attribute.KeyValue{attribute.Int(telemetry.AttrCities, len(customers)+1)}
	err := s.observe(ctx, OpRoute, attrs, func(ctx context.Context, span trace.Span) ([]any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		var err error
		if out, err = s.routeOrder(ctx, customers); err != nil {
			return nil, err
		}
		s.publishMemo()
		span.SetAttributes(
			attribute.Bool(telemetry.AttrMemoHit, out.Cached),
			attribute.Bool(telemetry.AttrConverged, out.Converged),
		)
		return []any{"stops", len(out.Order) - 1, "length", out.Length, "cached", out.Cached}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SolverService) routeOrder(ctx context.Context, customers []int) (*Route, error) {
	if s.problem == nil {
		return nil, apperror.New(apperror.CodeEmptyInput, "no problem loaded")
	}
	key, err := s.routeKey(customers)
	if err != nil {
		return nil, err
	}

	cities := make([]domain.Point, len(key))
	for i, idx := range key {
		cities[i] = s.problem[idx]
	}

	entry, cached := s.routes.Get(key)
	if !cached {
		res, err := s.solveTour(ctx, cities, 0, nil)
		if err != nil {
			return nil, err
		}
		entry = &route{length: res.Length, tour: res.Tour, method: res.Method}
		s.routes.Set(key, entry)
	}

	if len(key) > s.cfg.Cache.RouteRefineThreshold && !entry.converged {
		res, err := s.solveTour(ctx, cities, 0, entry.tour)
		if err != nil {
			return nil, err
		}
		if domain.FloatEquals(res.Length, entry.length) {
			entry.converged = true
		} else if domain.FloatLess(res.Length, entry.length) {
			telemetry.AddEvent(ctx, "route.refined",
				attribute.Float64("route.previous_length", entry.length),
				attribute.Float64(telemetry.AttrLength, res.Length),
			)
			entry.length = res.Length
			entry.tour = res.Tour
			entry.method = res.Method
		}
	}

	order := make([]int, 0, len(key)+1)
	for _, pos := range entry.tour {
		order = append(order, key[pos])
	}
	order = append(order, 0)

	return &Route{
		Length:    entry.length,
		Order:     order,
		Method:    entry.method,
		Cached:    cached,
		Converged: entry.converged,
	}, nil
}

// routeKey возвращает отсортированное множество индексов вместе с депо
func (s *SolverService) routeKey(customers []int) ([]int, error) {
	key := make([]int, 0, len(customers)+1)
	key = append(key, 0)
	for _, c := range customers {
		if c < 0 || c >= len(s.problem) {
			return nil, apperror.NewWithField(apperror.CodeCityNotFound, "customer index out of range", "customers").
				WithDetails("customer", c).
				WithDetails("customers", len(s.problem)-1)
		}
		key = append(key, c)
	}
	slices.Sort(key)
	return slices.Compact(key), nil
}

// MemoStats возвращает счётчики кэша маршрутов
func (s *SolverService) MemoStats() lru.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routes.Snapshot()
}

// publishMemo обновляет gauges; вызывается под s.mu
func (s *SolverService) publishMemo() {
	s.metrics.SetMemo(s.routes.Hits(), s.routes.Misses(), s.routes.Len())
}
