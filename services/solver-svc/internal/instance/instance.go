// Package instance reads solver inputs from YAML files.
package instance

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/flow"
)

// Instance входной файл CLI. Заполнены могут быть любые секции.
type Instance struct {
	Name  string        `yaml:"name"`
	Flow  *FlowSection  `yaml:"flow"`
	TSP   *TSPSection   `yaml:"tsp"`
	Route *RouteSection `yaml:"route"`
	Jobs  []JobSpec     `yaml:"jobs"`
}

// JobSpec задание пакета. Kind совпадает с именем операции сервиса
// (max_flow, flows_with_demands, max_flow_with_demands, weighted_flow, tsp),
// flow-задания читают секцию flow, tsp-задания секцию tsp.
type JobSpec struct {
	ID   string       `yaml:"id"`
	Kind string       `yaml:"kind"`
	Flow *FlowSection `yaml:"flow"`
	TSP  *TSPSection  `yaml:"tsp"`
}

// Edge ребро сети с необязательной нижней границей и весом
type Edge struct {
	From     int     `yaml:"from"`
	To       int     `yaml:"to"`
	Capacity float64 `yaml:"capacity"`
	Demand   float64 `yaml:"demand"`
	Weight   float64 `yaml:"weight"`
}

// FlowSection сеть для max-flow, потока с нижними границами и взвешенного потока
type FlowSection struct {
	Size   int      `yaml:"size"`
	Source int      `yaml:"source"`
	Sink   int      `yaml:"sink"`
	Labels []string `yaml:"labels"`
	Edges  []Edge   `yaml:"edges"`
}

// TSPSection задача коммивояжёра
type TSPSection struct {
	Cities []domain.Point `yaml:"cities"`
	First  int            `yaml:"first"`
	Hint   []int          `yaml:"hint"`
}

// RouteSection депо (индекс 0) и клиенты для мемоизированных маршрутов
type RouteSection struct {
	Depot     domain.Point   `yaml:"depot"`
	Customers []domain.Point `yaml:"customers"`
	Queries   [][]int        `yaml:"queries"`
}

// Load читает файл
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "read instance").
			WithDetails("path", path)
	}
	return Decode(bytes.NewReader(data))
}

// Decode разбирает YAML; неизвестные поля считаются ошибкой
func Decode(r io.Reader) (*Instance, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var inst Instance
	if err := dec.Decode(&inst); err != nil {
		if err == io.EOF {
			return nil, apperror.New(apperror.CodeEmptyInput, "instance file is empty")
		}
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "malformed instance")
	}
	return &inst, nil
}

// Network строит сеть из списка рёбер. Для повторного ребра действует
// последнее значение.
func (s *FlowSection) Network() (*flow.Network, error) {
	if s.Size <= 0 {
		return nil, apperror.InvalidGraph("flow.size must be positive", "size", s.Size)
	}
	net := flow.NewNetwork(s.Size, s.Source, s.Sink)
	for _, e := range s.Edges {
		net.AddEdge(e.From, e.To, e.Capacity)
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// Demands возвращает матрицу нижних границ или nil, если их нет
func (s *FlowSection) Demands() [][]float64 {
	return s.matrix(func(e Edge) float64 { return e.Demand })
}

// Weights возвращает матрицу весов или nil, если их нет
func (s *FlowSection) Weights() [][]float64 {
	return s.matrix(func(e Edge) float64 { return e.Weight })
}

func (s *FlowSection) matrix(value func(Edge) float64) [][]float64 {
	var m [][]float64
	for _, e := range s.Edges {
		v := value(e)
		if v == 0 {
			continue
		}
		if m == nil {
			m = make([][]float64, s.Size)
			for i := range m {
				m[i] = make([]float64, s.Size)
			}
		}
		if e.From < 0 || e.From >= s.Size || e.To < 0 || e.To >= s.Size {
			// Network() уже отверг такие рёбра
			continue
		}
		m[e.From][e.To] = v
	}
	return m
}

// Points возвращает депо и клиентов одним списком, депо под индексом 0
func (s *RouteSection) Points() []domain.Point {
	points := make([]domain.Point, 0, len(s.Customers)+1)
	points = append(points, s.Depot)
	return append(points, s.Customers...)
}
