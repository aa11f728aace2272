package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/flow"
	"vrpdfd/pkg/metrics"
	"vrpdfd/pkg/tsp"
)

// Job одно независимое задание пакета. Kind совпадает с именем операции:
// OpMaxFlow, OpFlowsWithDemands, OpMaxFlowWithDemands, OpWeightedFlow или OpTSP.
type Job struct {
	ID   string
	Kind string

	Network *flow.Network
	Demands [][]float64
	Weights [][]float64

	Cities []domain.Point
	First  int
	Hint   []int
}

// JobResult результат задания. Ошибка задания не прерывает остальные.
type JobResult struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Flow     *flow.Result `json:"flow,omitempty"`
	Feasible *bool        `json:"feasible,omitempty"`
	Tour     *tsp.Result  `json:"tour,omitempty"`
	Err      error        `json:"-"`
}

// SolveBatch выполняет задания параллельно, не более batch.workers
// одновременно. Результаты возвращаются в порядке заданий. Ошибка
// возвращается только если ctx отменён до запуска всех заданий.
func (s *SolverService) SolveBatch(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Batch.Workers, 1))

	for i, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		results[i] = JobResult{ID: job.ID, Kind: job.Kind}

		if err := gctx.Err(); err != nil {
			results[i].Err = apperror.Wrap(err, apperror.CodeTimeout, "batch cancelled before job started")
			continue
		}

		g.Go(func() error {
			s.runJob(gctx, job, &results[i])
			return nil
		})
	}

	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.log.InfoContext(ctx, "batch completed", "jobs", len(jobs), "failed", failed)

	if err := ctx.Err(); err != nil {
		return results, apperror.Wrap(err, apperror.CodeTimeout, "batch cancelled")
	}
	return results, nil
}

func (s *SolverService) runJob(ctx context.Context, job Job, out *JobResult) {
	s.jobs.Start(job.Kind)
	defer s.jobs.End(job.Kind)

	var feasible bool
	switch job.Kind {
	case OpMaxFlow:
		out.Flow, out.Err = s.MaxFlow(ctx, job.Network)
	case OpFlowsWithDemands:
		out.Flow, feasible, out.Err = s.FlowsWithDemands(ctx, job.Network, job.Demands)
		out.Feasible = &feasible
	case OpMaxFlowWithDemands:
		out.Flow, feasible, out.Err = s.MaxFlowWithDemands(ctx, job.Network, job.Demands)
		out.Feasible = &feasible
	case OpWeightedFlow:
		out.Flow, out.Err = s.WeightedFlow(ctx, job.Network, job.Weights)
	case OpTSP:
		out.Tour, out.Err = s.SolveTSP(ctx, TSPRequest{Cities: job.Cities, First: job.First, Hint: job.Hint})
	default:
		out.Err = apperror.NewWithField(apperror.CodeInvalidArgument, "unknown job kind", "kind").
			WithDetails("kind", job.Kind)
	}
	if out.Err != nil {
		out.Feasible = nil
	}

	s.metrics.BatchJobsTotal.WithLabelValues(job.Kind, metrics.Status(out.Err)).Inc()
}
