// Package main is the entry point of the vrpdfd-solver command.
//
// vrpdfd-solver reads a YAML problem instance, runs one of the solvers and
// prints the result as JSON on stdout. Logs go to stderr (or a rotated file),
// so stdout stays machine-readable.
//
// # Commands
//
//	vrpdfd-solver flow  --input net.yaml [--op max|demands|max-demands|weighted]
//	vrpdfd-solver tsp   --input cities.yaml
//	vrpdfd-solver route --input route.yaml
//	vrpdfd-solver batch --input jobs.yaml
//
// Every command accepts --xlsx and --pdf to write a report and --metrics to
// append the Prometheus registry in text exposition format to the output.
//
// # Errors
//
// A failed command prints one JSON object to stderr with the application
// error code, the matching gRPC code, the message and its details. The exit
// status is the numeric gRPC code (3 for INVALID_ARGUMENT, 9 for
// FAILED_PRECONDITION and so on).
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: VRPDFD_)
//  2. Config file (--config, CONFIG_PATH, config.yaml, config/config.yaml,
//     /etc/vrpdfd/config.yaml)
//  3. Default values
//
// Key options (environment variable format):
//
//	VRPDFD_LOG_LEVEL               - debug, info, warn, error (default: info)
//	VRPDFD_TSP_HELD_KARP_LIMIT     - largest instance solved exactly (default: 17)
//	VRPDFD_TSP_HEURISTIC           - two_opt or genetic (default: two_opt)
//	VRPDFD_TSP_TIME_LIMIT          - wall clock budget per solve, 0 disables
//	VRPDFD_CACHE_ROUTE_CAPACITY    - route memo size (default: 10000)
//	VRPDFD_BATCH_WORKERS           - parallel batch jobs (default: 4)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc/status"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/logger"
)

func main() {
	// =========================================================================
	// Signal handling
	// =========================================================================
	//
	// SIGINT/SIGTERM cancel the root context. The genetic heuristic checks
	// it between generations and returns the best tour found so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "code", apperror.Code(err), "error", err)
		code := writeError(os.Stderr, err)
		stop()
		os.Exit(code)
	}
}

// errorOutput ошибка в машиночитаемом виде
type errorOutput struct {
	Code     apperror.ErrorCode `json:"code"`
	GRPCCode string             `json:"grpc_code"`
	Message  string             `json:"message"`
	Field    string             `json:"field,omitempty"`
	Severity string             `json:"severity,omitempty"`
	Cause    string             `json:"cause,omitempty"`
	Details  map[string]any     `json:"details,omitempty"`
}

func newErrorOutput(err error) *errorOutput {
	st := status.Convert(apperror.ToGRPC(err))
	out := &errorOutput{
		Code:     apperror.Code(err),
		GRPCCode: st.Code().String(),
		Message:  err.Error(),
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		out.Message = appErr.Message
		out.Field = appErr.Field
		out.Severity = appErr.Severity.String()
		out.Details = appErr.Details
		if appErr.Cause != nil {
			out.Cause = appErr.Cause.Error()
		}
	}
	return out
}

// writeError печатает ошибку и возвращает код выхода процесса
func writeError(w io.Writer, err error) int {
	out := newErrorOutput(err)
	if encErr := json.NewEncoder(w).Encode(out); encErr != nil {
		fmt.Fprintln(w, "error:", err)
	}

	code := int(status.Code(apperror.ToGRPC(err)))
	if code == 0 {
		return 1
	}
	return code
}
