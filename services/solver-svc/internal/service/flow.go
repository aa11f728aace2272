package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/flow"
	"vrpdfd/pkg/telemetry"
)

// Имена операций для метрик, логов и span
const (
	OpMaxFlow            = "max_flow"
	OpFlowsWithDemands   = "flows_with_demands"
	OpMaxFlowWithDemands = "max_flow_with_demands"
	OpWeightedFlow       = "weighted_flow"
	OpTSP                = "tsp"
	OpRoute              = "route"
)

func graphAttrs(net *flow.Network) []attribute.KeyValue {
	if net == nil {
		return nil
	}
	return telemetry.GraphAttributes(net.Size, net.EdgeCount(), net.Source, net.Sink)
}

// checkedFlow проверяет результат решателя и записывает метрики
func (s *SolverService) checkedFlow(span trace.Span, operation string, net *flow.Network, res *flow.Result, lower [][]float64) ([]any, error) {
	if err := flow.Verify(net, res, lower); err != nil {
		return nil, apperror.Wrap(err, apperror.Code(err), "solver returned an invalid flow").
			WithSeverity(apperror.SeverityCritical).
			WithDetails("operation", operation)
	}
	return s.recordFlow(span, operation, net, res), nil
}

func (s *SolverService) recordFlow(span trace.Span, operation string, net *flow.Network, res *flow.Result) []any {
	s.metrics.RecordGraphSize(operation, net.Size, net.EdgeCount())
	s.metrics.RecordFlow(operation, res.Value, res.Augmentations)
	span.SetAttributes(telemetry.FlowAttributes(res.Value, res.Augmentations)...)
	stats := flow.Stats(net, res)
	return []any{
		"nodes", net.Size,
		"edges", net.EdgeCount(),
		"value", res.Value,
		"augmentations", res.Augmentations,
		"saturated", stats.SaturatedEdges,
		"utilization", stats.AverageUtilization,
	}
}

// MaxFlow решает задачу максимального потока
func (s *SolverService) MaxFlow(ctx context.Context, net *flow.Network) (*flow.Result, error) {
	var res *flow.Result
	err := s.observe(ctx, OpMaxFlow, graphAttrs(net), func(ctx context.Context, span trace.Span) ([]any, error) {
		var err error
		if res, err = flow.MaxFlow(net); err != nil {
			return nil, err
		}
		return s.checkedFlow(span, OpMaxFlow, net, res, nil)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FlowsWithDemands ищет допустимый поток с нижними границами
func (s *SolverService) FlowsWithDemands(ctx context.Context, net *flow.Network, demands [][]float64) (*flow.Result, bool, error) {
	return s.demands(ctx, OpFlowsWithDemands, net, demands, flow.FlowsWithDemands)
}

// MaxFlowWithDemands ищет максимальный поток среди допустимых
func (s *SolverService) MaxFlowWithDemands(ctx context.Context, net *flow.Network, demands [][]float64) (*flow.Result, bool, error) {
	return s.demands(ctx, OpMaxFlowWithDemands, net, demands, flow.MaxFlowWithDemands)
}

type demandSolver func(*flow.Network, [][]float64) (*flow.Result, bool, error)

func (s *SolverService) demands(ctx context.Context, operation string, net *flow.Network, demands [][]float64, solve demandSolver) (*flow.Result, bool, error) {
	var (
		res      *flow.Result
		feasible bool
	)
	err := s.observe(ctx, operation, graphAttrs(net), func(ctx context.Context, span trace.Span) ([]any, error) {
		var err error
		if res, feasible, err = solve(net, demands); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Bool(telemetry.AttrFeasible, feasible))
		if !feasible {
			s.log.WarnContext(ctx, "demands cannot be satisfied",
				"operation", operation, "nodes", net.Size)
			return []any{"nodes", net.Size, "feasible", false}, nil
		}
		fields, err := s.checkedFlow(span, operation, net, res, demands)
		if err != nil {
			return nil, err
		}
		return append(fields, "feasible", true), nil
	})
	if err != nil {
		return nil, false, err
	}
	return res, feasible, nil
}

// WeightedFlow решает задачу потока с максимальной наградой
func (s *SolverService) WeightedFlow(ctx context.Context, net *flow.Network, weights [][]float64) (*flow.Result, error) {
	var res *flow.Result
	err := s.observe(ctx, OpWeightedFlow, graphAttrs(net), func(ctx context.Context, span trace.Span) ([]any, error) {
		var err error
		if res, err = flow.MaximumWeightedFlow(net, weights); err != nil {
			return nil, err
		}
		fields, err := s.checkedFlow(span, OpWeightedFlow, net, res, nil)
		if err != nil {
			return nil, err
		}
		return append(fields, "volume", res.Volume(net.Source)), nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
