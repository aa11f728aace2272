package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сеть
	AttrGraphNodes  = "graph.nodes"
	AttrGraphEdges  = "graph.edges"
	AttrGraphSource = "graph.source"
	AttrGraphSink   = "graph.sink"

	// Поток
	AttrFlowValue     = "flow.value"
	AttrAugmentations = "flow.augmentations"
	AttrFeasible      = "flow.feasible"

	// TSP
	AttrCities    = "tsp.cities"
	AttrMethod    = "tsp.method"
	AttrLength    = "tsp.length"
	AttrHeuristic = "tsp.heuristic"

	// Кэш туров
	AttrTourKey      = "tsp.cache_key"
	AttrTourCacheHit = "tsp.cache_hit"

	// Кэш маршрутов
	AttrMemoHit   = "route.memo_hit"
	AttrConverged = "route.converged"
)

// GraphAttributes возвращает атрибуты сети
func GraphAttributes(nodes, edges, source, sink int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int(AttrGraphSource, source),
		attribute.Int(AttrGraphSink, sink),
	}
}

// FlowAttributes возвращает атрибуты результата потока
func FlowAttributes(value float64, augmentations int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64(AttrFlowValue, value),
		attribute.Int(AttrAugmentations, augmentations),
	}
}

// TourAttributes возвращает атрибуты решения TSP
func TourAttributes(method string, length float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.Float64(AttrLength, length),
	}
}
