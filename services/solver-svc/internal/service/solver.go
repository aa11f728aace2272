// Package service wraps the pure flow and TSP solvers with logging, metrics,
// tracing, a memoised route table and bounded batch execution.
package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vrpdfd/pkg/config"
	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/logger"
	"vrpdfd/pkg/lru"
	"vrpdfd/pkg/metrics"
	"vrpdfd/pkg/telemetry"
	"vrpdfd/pkg/tsp"
)

// SolverService is safe for concurrent use. Flow calls share no state; the
// route memo and the tour cache are each guarded by their own mutex.
type SolverService struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	jobs     *metrics.JobTracker
	tracer   *telemetry.Provider
	seed     uint64

	mu      sync.Mutex
	problem []domain.Point
	routes  *lru.Ordered[[]int, *route]

	toursMu sync.Mutex
	tours   *lru.Hashed[string, *tsp.Result]
}

// Option настраивает SolverService
type Option func(*SolverService)

// WithLogger задаёт логгер (по умолчанию logger.Log с именем сервиса)
func WithLogger(l *slog.Logger) Option {
	return func(s *SolverService) { s.log = l }
}

// WithRegistry задаёт registry для метрик
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *SolverService) { s.registry = reg }
}

// WithTelemetry задаёт provider трассировки
func WithTelemetry(p *telemetry.Provider) Option {
	return func(s *SolverService) { s.tracer = p }
}

// WithSeed переопределяет зерно генератора из конфигурации
func WithSeed(seed uint64) Option {
	return func(s *SolverService) { s.seed = seed }
}

// New создаёт сервис. nil cfg означает config.Default().
func New(cfg *config.Config, opts ...Option) *SolverService {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &SolverService{
		cfg:  cfg,
		seed: cfg.TSP.Seed,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.WithService(cfg.App.Name)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.tracer == nil {
		s.tracer = telemetry.Noop()
	}

	s.metrics = metrics.New(s.registry, cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	s.metrics.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	s.jobs = metrics.NewJobTracker(s.metrics.BatchJobsInFlight)

	s.routes = lru.NewOrdered[[]int, *route](cfg.Cache.RouteCapacity, compareKeys)
	s.tours = lru.New[string, *tsp.Result](cfg.Cache.TourCapacity)
	return s
}

// Config возвращает конфигурацию сервиса
func (s *SolverService) Config() *config.Config {
	return s.cfg
}

// Registry возвращает registry с метриками сервиса
func (s *SolverService) Registry() *prometheus.Registry {
	return s.registry
}

// rng создаёт отдельный генератор на вызов: результаты воспроизводимы и
// не зависят от порядка параллельных вызовов
func (s *SolverService) rng() *rand.Rand {
	return rand.New(rand.NewPCG(s.seed, s.seed))
}

// observe оборачивает операцию в span, метрики и строку лога
func (s *SolverService) observe(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(ctx context.Context, span trace.Span) ([]any, error)) error {
	ctx, span := s.tracer.StartSpan(ctx, "solver."+operation, attrs...)
	defer span.End()

	start := time.Now()
	fields, err := fn(ctx, span)
	elapsed := time.Since(start)
	s.metrics.RecordSolveOperation(operation, err, elapsed)

	args := append([]any{"operation", operation}, fields...)
	args = append(args, "duration_ms", float64(elapsed.Microseconds())/1000)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.log.ErrorContext(ctx, "solve failed", append(args, "error", err)...)
		return err
	}
	s.log.InfoContext(ctx, "solve completed", args...)
	return nil
}

// deadline применяет tsp.time_limit, если он задан
func (s *SolverService) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.TSP.TimeLimit > 0 {
		return context.WithTimeout(ctx, s.cfg.TSP.TimeLimit)
	}
	return ctx, func() {}
}

