package main

import (
	"github.com/spf13/cobra"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/lru"
	"vrpdfd/services/solver-svc/internal/instance"
	"vrpdfd/services/solver-svc/internal/service"
)

type jobOutput struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Value    *float64     `json:"value,omitempty"`
	Feasible *bool        `json:"feasible,omitempty"`
	Length   *float64     `json:"length,omitempty"`
	Tour     []int        `json:"tour,omitempty"`
	Method   string       `json:"method,omitempty"`
	Error    *errorOutput `json:"error,omitempty"`
}

type batchOutput struct {
	Name      string      `json:"name,omitempty"`
	Jobs      []jobOutput `json:"jobs"`
	Failed    int         `json:"failed"`
	TourCache lru.Stats   `json:"tour_cache"`
}

func (a *app) batchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Run the jobs section in parallel",
		Long: `Jobs run on batch.workers goroutines and are reported in input order.
A failed job is reported with its error and does not stop the others. TSP jobs
over the same cities share the tour cache.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, err := a.load()
			if err != nil {
				return err
			}
			if len(inst.Jobs) == 0 {
				return apperror.New(apperror.CodeEmptyInput, "instance has no jobs section")
			}

			jobs := make([]service.Job, len(inst.Jobs))
			for i, spec := range inst.Jobs {
				job, err := toJob(spec)
				if err != nil {
					return apperror.Wrap(err, apperror.Code(err), "invalid job").
						WithDetails("index", i).
						WithDetails("id", spec.ID)
				}
				jobs[i] = job
			}

			results, batchErr := a.svc.SolveBatch(cmd.Context(), jobs)

			out := batchOutput{Name: inst.Name, Jobs: make([]jobOutput, len(results))}
			for i, r := range results {
				out.Jobs[i] = jobResult(r)
				if r.Err != nil {
					out.Failed++
				}
			}
			out.TourCache = a.svc.TourCacheStats()
			if err := a.printJSON(out); err != nil {
				return err
			}
			return batchErr
		},
	}
}

// toJob переводит описание из файла в задание сервиса. Неизвестный kind
// не отвергается здесь: сервис вернёт ошибку в результате задания.
func toJob(spec instance.JobSpec) (service.Job, error) {
	job := service.Job{ID: spec.ID, Kind: spec.Kind}

	switch spec.Kind {
	case service.OpTSP:
		if spec.TSP == nil {
			return job, apperror.NewWithField(apperror.CodeEmptyInput, "tsp job has no tsp section", "tsp")
		}
		job.Cities = spec.TSP.Cities
		job.First = spec.TSP.First
		job.Hint = spec.TSP.Hint

	case service.OpMaxFlow, service.OpFlowsWithDemands, service.OpMaxFlowWithDemands, service.OpWeightedFlow:
		if spec.Flow == nil {
			return job, apperror.NewWithField(apperror.CodeEmptyInput, "flow job has no flow section", "flow")
		}
		net, err := spec.Flow.Network()
		if err != nil {
			return job, err
		}
		job.Network = net
		if job.Demands = spec.Flow.Demands(); job.Demands == nil {
			job.Demands = zeros(net.Size)
		}
		if job.Weights = spec.Flow.Weights(); job.Weights == nil {
			job.Weights = zeros(net.Size)
		}
	}
	return job, nil
}

func jobResult(r service.JobResult) jobOutput {
	out := jobOutput{ID: r.ID, Kind: r.Kind, Feasible: r.Feasible}
	if r.Err != nil {
		out.Error = newErrorOutput(r.Err)
		return out
	}
	if r.Flow != nil {
		out.Value = &r.Flow.Value
	}
	if r.Tour != nil {
		out.Length = &r.Tour.Length
		out.Tour = r.Tour.Tour
		out.Method = string(r.Tour.Method)
	}
	return out
}
