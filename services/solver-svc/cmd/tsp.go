package main

import (
	"io"

	"github.com/spf13/cobra"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/report"
	"vrpdfd/pkg/tsp"
	"vrpdfd/services/solver-svc/internal/service"
)

type tspOutput struct {
	Name string `json:"name,omitempty"`
	*tsp.Result
	Legs []float64 `json:"legs"`
}

func (a *app) tspCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tsp",
		Short: "Solve a travelling salesman instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, err := a.load()
			if err != nil {
				return err
			}
			if inst.TSP == nil {
				return apperror.New(apperror.CodeEmptyInput, "instance has no tsp section")
			}

			res, err := a.svc.SolveTSP(cmd.Context(), service.TSPRequest{
				Cities: inst.TSP.Cities,
				First:  inst.TSP.First,
				Hint:   inst.TSP.Hint,
			})
			if err != nil {
				return err
			}

			precision := a.cfg.TSP.Precision
			if res.Method == tsp.MethodFake {
				precision = -1
			}
			err = a.printJSON(tspOutput{
				Name:   inst.Name,
				Result: res,
				Legs:   tsp.Legs(inst.TSP.Cities, res.Tour, precision),
			})
			if err != nil {
				return err
			}

			return a.writeReports(tourReport(report.TourReport{
				Title:     inst.Name,
				Cities:    inst.TSP.Cities,
				Result:    res,
				Precision: precision,
			}))
		},
	}
}

func tourReport(r report.TourReport) reportWriters {
	return reportWriters{
		xlsx: func(w io.Writer) error { return report.WriteTourWorkbook(w, r) },
		pdf:  func(w io.Writer) error { return report.WriteTourPDF(w, r) },
	}
}
