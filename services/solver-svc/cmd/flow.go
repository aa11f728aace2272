package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/flow"
	"vrpdfd/pkg/report"
	"vrpdfd/services/solver-svc/internal/service"
)

type flowOutput struct {
	Name          string              `json:"name,omitempty"`
	Operation     string              `json:"operation"`
	Feasible      *bool               `json:"feasible,omitempty"`
	Value         float64             `json:"value"`
	Volume        float64             `json:"volume"`
	Augmentations int                 `json:"augmentations"`
	Flow          [][]float64         `json:"flow"`
	Paths         []flow.PathWithFlow `json:"paths"`
	Stats         *flow.Statistics    `json:"stats,omitempty"`
	Bottlenecks   []flow.Bottleneck   `json:"bottlenecks,omitempty"`
}

func (a *app) flowCommand() *cobra.Command {
	var op string

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Solve max-flow, flow with demands or weighted max-flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, err := a.load()
			if err != nil {
				return err
			}
			if inst.Flow == nil {
				return apperror.New(apperror.CodeEmptyInput, "instance has no flow section")
			}
			net, err := inst.Flow.Network()
			if err != nil {
				return err
			}

			var (
				res       *flow.Result
				feasible  *bool
				operation string
			)
			ctx := cmd.Context()
			switch op {
			case opMax:
				operation = service.OpMaxFlow
				res, err = a.svc.MaxFlow(ctx, net)
			case opDemands, opMaxDemands:
				demands := inst.Flow.Demands()
				if demands == nil {
					demands = zeros(net.Size)
				}
				var ok bool
				if op == opDemands {
					operation = service.OpFlowsWithDemands
					res, ok, err = a.svc.FlowsWithDemands(ctx, net, demands)
				} else {
					operation = service.OpMaxFlowWithDemands
					res, ok, err = a.svc.MaxFlowWithDemands(ctx, net, demands)
				}
				feasible = &ok
			case opWeighted:
				weights := inst.Flow.Weights()
				if weights == nil {
					weights = zeros(net.Size)
				}
				operation = service.OpWeightedFlow
				res, err = a.svc.WeightedFlow(ctx, net, weights)
			default:
				return apperror.NewWithField(apperror.CodeInvalidArgument, "unknown flow operation", "op").
					WithDetails("op", op)
			}
			if err != nil {
				return err
			}

			out := flowOutput{Name: inst.Name, Operation: operation, Feasible: feasible}
			if res != nil {
				out.Value = res.Value
				out.Volume = res.Volume(net.Source)
				out.Augmentations = res.Augmentations
				out.Flow = res.Flow
				out.Paths = flow.Decompose(res.Flow, net.Source, net.Sink)
				stats := flow.Stats(net, res)
				out.Stats = &stats
				out.Bottlenecks = flow.Bottlenecks(net, res, flow.HighUtilizationThreshold)
			}
			if err := a.printJSON(out); err != nil {
				return err
			}

			if res == nil {
				return nil
			}
			rep := report.FlowReport{
				Title:     inst.Name,
				Operation: operation,
				Network:   net,
				Result:    res,
				Labels:    inst.Flow.Labels,
				Feasible:  feasible,
			}
			return a.writeReports(reportWriters{
				xlsx: func(w io.Writer) error { return report.WriteFlowWorkbook(w, rep) },
				pdf:  func(w io.Writer) error { return report.WriteFlowPDF(w, rep) },
			})
		},
	}

	cmd.Flags().StringVar(&op, "op", opMax,
		fmt.Sprintf("operation: %s, %s, %s or %s", opMax, opDemands, opMaxDemands, opWeighted))
	return cmd
}

func zeros(size int) [][]float64 {
	m := make([][]float64, size)
	for i := range m {
		m[i] = make([]float64, size)
	}
	return m
}
