package main

import (
	"github.com/spf13/cobra"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/lru"
	"vrpdfd/pkg/report"
	"vrpdfd/pkg/tsp"
	"vrpdfd/services/solver-svc/internal/service"
)

type routeOutput struct {
	Name   string           `json:"name,omitempty"`
	Routes []*service.Route `json:"routes"`
	Memo   lru.Stats        `json:"memo"`
}

func (a *app) routeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "route",
		Short: "Answer memoised route queries over a depot and its customers",
		Long: `Each query lists customer indices (1-based, 0 is the depot). The
answer is the closed route from the depot through those customers. Queries for
the same customer set are served from the route memo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, err := a.load()
			if err != nil {
				return err
			}
			if inst.Route == nil {
				return apperror.New(apperror.CodeEmptyInput, "instance has no route section")
			}

			points := inst.Route.Points()
			if err := a.svc.SetProblem(points); err != nil {
				return err
			}

			out := routeOutput{Name: inst.Name}
			for _, q := range inst.Route.Queries {
				r, err := a.svc.RouteOrder(cmd.Context(), q)
				if err != nil {
					return err
				}
				out.Routes = append(out.Routes, r)
			}
			out.Memo = a.svc.MemoStats()
			if err := a.printJSON(out); err != nil {
				return err
			}

			if len(out.Routes) == 0 {
				return nil
			}
			// В отчёт попадает последний маршрут
			last := out.Routes[len(out.Routes)-1]
			return a.writeReports(tourReport(report.TourReport{
				Title:  inst.Name,
				Cities: points,
				Result: &tsp.Result{
					Length: last.Length,
					Tour:   last.Order[:len(last.Order)-1],
					Method: last.Method,
				},
				Precision: a.cfg.TSP.Precision,
			}))
		},
	}
}
