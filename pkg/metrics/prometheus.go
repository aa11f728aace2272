package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"vrpdfd/pkg/apperror"
)

// Metrics контейнер метрик решателя
type Metrics struct {
	// Операции решения
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	FlowValue            *prometheus.GaugeVec
	GraphNodesTotal      *prometheus.HistogramVec
	GraphEdgesTotal      *prometheus.HistogramVec
	Augmentations        *prometheus.HistogramVec

	// TSP
	TSPMethodTotal *prometheus.CounterVec
	TSPCities      prometheus.Histogram

	// Мемоизация маршрутов
	MemoHits    prometheus.Gauge
	MemoMisses  prometheus.Gauge
	MemoEntries prometheus.Gauge

	// Пакетное решение
	BatchJobsTotal    *prometheus.CounterVec
	BatchJobsInFlight prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

// New регистрирует метрики в reg. Каждый SolverService получает свой
// registry, поэтому глобального состояния нет.
func New(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		SolveOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"operation", "status"},
		),

		SolveDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.0001, .001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		FlowValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "flow_value",
				Help:      "Last calculated flow value",
			},
			[]string{"operation"},
		),

		GraphNodesTotal: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of nodes in processed networks",
				Buckets:   []float64{4, 8, 16, 32, 64, 128, 256, 512, 1024},
			},
			[]string{"operation"},
		),

		GraphEdgesTotal: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of edges in processed networks",
				Buckets:   []float64{8, 32, 128, 512, 2048, 8192, 32768},
			},
			[]string{"operation"},
		),

		Augmentations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "augmentations",
				Help:      "Augmenting paths applied per flow solve",
				Buckets:   []float64{1, 2, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"operation"},
		),

		TSPMethodTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tsp_method_total",
				Help:      "TSP solves by method",
			},
			[]string{"method"},
		),

		TSPCities: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tsp_cities",
				Help:      "Number of cities per TSP solve",
				Buckets:   []float64{3, 5, 10, 17, 25, 50, 100, 250, 500},
			},
		),

		MemoHits: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_memo_hits",
				Help:      "Route memo hits since the last reset",
			},
		),

		MemoMisses: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_memo_misses",
				Help:      "Route memo misses since the last reset",
			},
		),

		MemoEntries: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_memo_entries",
				Help:      "Routes currently held in the memo",
			},
		),

		BatchJobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_jobs_total",
				Help:      "Batch jobs by kind and status",
			},
			[]string{"kind", "status"},
		),

		BatchJobsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_jobs_in_flight",
				Help:      "Batch jobs currently running",
			},
		),

		ServiceInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	reg.MustRegister(NewRuntimeCollector(namespace, subsystem))
	return m
}

// Status возвращает метку статуса: "ok" или код ошибки приложения
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperror.Code(err))
}

// RecordSolveOperation записывает метрики операции решения
func (m *Metrics) RecordSolveOperation(operation string, err error, duration time.Duration) {
	m.SolveOperationsTotal.WithLabelValues(operation, Status(err)).Inc()
	m.SolveDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFlow записывает результат потоковой задачи
func (m *Metrics) RecordFlow(operation string, value float64, augmentations int) {
	m.FlowValue.WithLabelValues(operation).Set(value)
	m.Augmentations.WithLabelValues(operation).Observe(float64(augmentations))
}

// RecordGraphSize записывает размер сети
func (m *Metrics) RecordGraphSize(operation string, nodes, edges int) {
	m.GraphNodesTotal.WithLabelValues(operation).Observe(float64(nodes))
	m.GraphEdgesTotal.WithLabelValues(operation).Observe(float64(edges))
}

// RecordTSP записывает метод и размер задачи коммивояжёра
func (m *Metrics) RecordTSP(method string, cities int) {
	m.TSPMethodTotal.WithLabelValues(method).Inc()
	m.TSPCities.Observe(float64(cities))
}

// SetMemo выставляет счётчики кэша маршрутов
func (m *Metrics) SetMemo(hits, misses uint64, entries int) {
	m.MemoHits.Set(float64(hits))
	m.MemoMisses.Set(float64(misses))
	m.MemoEntries.Set(float64(entries))
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// WriteText выгружает всё содержимое g в текстовом формате Prometheus
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
