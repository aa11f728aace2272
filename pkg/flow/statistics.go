package flow

import (
	"fmt"

	"vrpdfd/pkg/domain"
)

// =============================================================================
// Statistics
// =============================================================================

// Пороги загрузки ребра для уровней критичности
const (
	MediumUtilizationThreshold   = 0.7
	HighUtilizationThreshold     = 0.9
	CriticalUtilizationThreshold = 0.99
)

// Statistics сводка по потоку в сети
type Statistics struct {
	Edges              int     `json:"edges"`
	ActiveEdges        int     `json:"active_edges"`
	SaturatedEdges     int     `json:"saturated_edges"`
	ZeroFlowEdges      int     `json:"zero_flow_edges"`
	TotalCapacity      float64 `json:"total_capacity"`
	AverageUtilization float64 `json:"average_utilization"`
	Grade              Grade   `json:"grade"`
}

// Grade оценка использования пропускной способности
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Severity уровень критичности узкого места
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String возвращает строковое представление уровня критичности
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText пишет уровень строкой
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает строку из MarshalText
func (s *Severity) UnmarshalText(text []byte) error {
	for v := SeverityLow; v <= SeverityCritical; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Bottleneck ребро с высокой загрузкой
type Bottleneck struct {
	From        int      `json:"from"`
	To          int      `json:"to"`
	Utilization float64  `json:"utilization"`
	Impact      float64  `json:"impact"` // доля потока из источника
	Severity    Severity `json:"severity"`
}

// Stats считает загрузку рёбер сети под потоком res. Рёбра нулевой
// пропускной способности не учитываются.
func Stats(net *Network, res *Result) Statistics {
	var (
		stats       Statistics
		utilization float64
	)
	stats.TotalCapacity = net.TotalCapacity()

	net.eachEdge(func(i, j int) {
		capacity := net.Capacities[i][j]
		if !domain.IsPositive(capacity) {
			return
		}
		stats.Edges++

		f := res.Flow[i][j]
		if !domain.IsPositive(f) {
			stats.ZeroFlowEdges++
			return
		}
		stats.ActiveEdges++
		utilization += f / capacity
		if domain.FloatEquals(f, capacity) {
			stats.SaturatedEdges++
		}
	})

	if stats.ActiveEdges > 0 {
		stats.AverageUtilization = utilization / float64(stats.ActiveEdges)
	}
	stats.Grade = grade(stats.AverageUtilization)
	return stats
}

func grade(utilization float64) Grade {
	switch {
	case utilization >= 0.8:
		return GradeA
	case utilization >= 0.6:
		return GradeB
	case utilization >= 0.4:
		return GradeC
	case utilization >= 0.2:
		return GradeD
	default:
		return GradeF
	}
}

// Bottlenecks возвращает рёбра с загрузкой не ниже threshold в порядке
// возрастания (from, to).
func Bottlenecks(net *Network, res *Result, threshold float64) []Bottleneck {
	volume := res.Volume(net.Source)

	var out []Bottleneck
	net.eachEdge(func(i, j int) {
		capacity := net.Capacities[i][j]
		f := res.Flow[i][j]
		if !domain.IsPositive(capacity) || !domain.IsPositive(f) {
			return
		}

		u := f / capacity
		if domain.FloatLess(u, threshold) {
			return
		}

		var severity Severity
		switch {
		case u >= CriticalUtilizationThreshold:
			severity = SeverityCritical
		case u >= HighUtilizationThreshold:
			severity = SeverityHigh
		case u >= MediumUtilizationThreshold:
			severity = SeverityMedium
		default:
			severity = SeverityLow
		}

		impact := 0.0
		if domain.IsPositive(volume) {
			impact = f / volume
		}
		out = append(out, Bottleneck{From: i, To: j, Utilization: u, Impact: impact, Severity: severity})
	})
	return out
}
