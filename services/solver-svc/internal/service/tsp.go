package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/lru"
	"vrpdfd/pkg/telemetry"
	"vrpdfd/pkg/tsp"
)

// TSPRequest входные данные SolveTSP
type TSPRequest struct {
	Cities []domain.Point
	First  int
	Hint   []int
}

// TSPOptions собирает опции решателя из секции tsp конфигурации
func (s *SolverService) TSPOptions() *tsp.Options {
	c := s.cfg.TSP
	return tsp.DefaultOptions().
		WithHeuristic(tsp.Heuristic(c.Heuristic)).
		WithHeldKarpLimit(c.HeldKarpLimit).
		WithPrecision(c.Precision).
		WithGenetic(tsp.GeneticParams{
			Population:   c.Population,
			Generations:  c.Generations,
			MutationRate: c.MutationRate,
		}).
		WithRand(s.rng())
}

// SolveTSP решает задачу коммивояжёра. Генетическая эвристика проверяет ctx
// между поколениями и при истечении срока возвращает лучший найденный тур.
// Контекст, истёкший до начала решения, даёт ошибку TIMEOUT.
//
// Полные решения запоминаются в кэше туров (cache.tour_capacity) по ключу из
// городов, first и hint; повторный запрос возвращает копию без пересчёта.
func (s *SolverService) SolveTSP(ctx context.Context, req TSPRequest) (*tsp.Result, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	var res *tsp.Result
	attrs := []attribute.KeyValue{
		attribute.Int(telemetry.AttrCities, len(req.Cities)),
		attribute.String(telemetry.AttrHeuristic, s.cfg.TSP.Heuristic),
	}
	err := s.observe(ctx, OpTSP, attrs, func(ctx context.Context, _ trace.Span) ([]any, error) {
		key := tourKey(req)
		var cached bool
		res, cached = s.cachedTour(key)
		if !cached {
			var err error
			if res, err = s.solveTour(ctx, req.Cities, req.First, req.Hint); err != nil {
				return nil, err
			}
			// тур, прерванный по сроку, не кэшируем
			if ctx.Err() == nil {
				s.storeTour(key, res)
			}
		} else {
			telemetry.AddEvent(ctx, "tour_cache.hit", attribute.String(telemetry.AttrTourKey, key))
		}
		telemetry.SetAttributes(ctx, attribute.Bool(telemetry.AttrTourCacheHit, cached))
		telemetry.SetAttributes(ctx, telemetry.TourAttributes(string(res.Method), res.Length)...)
		return []any{"cities", len(req.Cities), "method", string(res.Method), "length", res.Length, "cached", cached}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// =============================================================================
// Tour cache
// =============================================================================

// tourKey канонический ключ запроса: sha256 от first, городов и hint
func tourKey(req TSPRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "f:%d;", req.First)
	for _, c := range req.Cities {
		fmt.Fprintf(&b, "c:%g:%g;", c.X, c.Y)
	}
	for _, h := range req.Hint {
		fmt.Fprintf(&b, "h:%d;", h)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

func (s *SolverService) cachedTour(key string) (*tsp.Result, bool) {
	s.toursMu.Lock()
	defer s.toursMu.Unlock()

	res, ok := s.tours.Get(key)
	if !ok {
		return nil, false
	}
	return cloneTour(res), true
}

func (s *SolverService) storeTour(key string, res *tsp.Result) {
	s.toursMu.Lock()
	defer s.toursMu.Unlock()
	s.tours.Set(key, cloneTour(res))
}

func cloneTour(res *tsp.Result) *tsp.Result {
	c := *res
	c.Tour = slices.Clone(res.Tour)
	return &c
}

// TourCacheStats возвращает счётчики кэша туров
func (s *SolverService) TourCacheStats() lru.Stats {
	s.toursMu.Lock()
	defer s.toursMu.Unlock()
	return s.tours.Snapshot()
}

// solveTour общий путь для SolveTSP и RouteOrder
func (s *SolverService) solveTour(ctx context.Context, cities []domain.Point, first int, hint []int) (*tsp.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTimeout, "deadline passed before solving")
	}

	var (
		res *tsp.Result
		err error
	)
	if s.cfg.TSP.Fake {
		res, err = tsp.Fake(cities, first, hint, s.rng())
	} else {
		opts := s.TSPOptions().
			WithFirst(first).
			WithHint(hint).
			WithContinue(func(int) bool { return ctx.Err() == nil })
		res, err = tsp.Solve(cities, opts)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTSP(string(res.Method), len(cities))
	return res, nil
}
