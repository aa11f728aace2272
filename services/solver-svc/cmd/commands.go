package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vrpdfd/pkg/apperror"
	"vrpdfd/pkg/config"
	"vrpdfd/pkg/logger"
	"vrpdfd/pkg/metrics"
	"vrpdfd/pkg/telemetry"
	"vrpdfd/services/solver-svc/internal/instance"
	"vrpdfd/services/solver-svc/internal/service"
)

// Операции команды flow
const (
	opMax        = "max"
	opDemands    = "demands"
	opMaxDemands = "max-demands"
	opWeighted   = "weighted"
)

type app struct {
	configPath  string
	inputPath   string
	xlsxPath    string
	pdfPath     string
	dumpMetrics bool
	logLevel    string

	out     io.Writer
	cfg     *config.Config
	svc     *service.SolverService
	tracer  *telemetry.Provider
	closers []io.Closer
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "vrpdfd-solver",
		Short:         "Flow and routing solvers for vehicle routing with drones",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid flags")
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: CONFIG_PATH or standard locations)")
	flags.StringVarP(&a.inputPath, "input", "i", "", "YAML instance file")
	flags.StringVar(&a.xlsxPath, "xlsx", "", "write an Excel report to this path")
	flags.StringVar(&a.pdfPath, "pdf", "", "write a PDF report to this path")
	flags.BoolVar(&a.dumpMetrics, "metrics", false, "print the Prometheus registry after the result")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level")
	_ = root.MarkPersistentFlagRequired("input")

	root.AddCommand(a.flowCommand(), a.tspCommand(), a.routeCommand(), a.batchCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	// =========================================================================
	// Configuration Loading
	// =========================================================================
	var opts []config.LoaderOption
	if a.configPath != "" {
		opts = append(opts, config.WithConfigPaths(a.configPath))
	}
	cfg, err := config.NewLoader(opts...).Load()
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "load config")
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	// =========================================================================
	// Logger, Telemetry, Service
	// =========================================================================
	a.closers = append(a.closers, logger.InitWithConfig(logger.FromConfig(cfg.Log)))
	runID := uuid.NewString()
	log := logger.WithRunID(runID).With("service", cfg.App.Name, "command", cmd.Name())

	a.tracer = telemetry.New(telemetry.FromConfig(cfg))
	a.svc = service.New(cfg,
		service.WithLogger(log),
		service.WithTelemetry(a.tracer),
	)

	for _, w := range cfg.Check().WarningMessages() {
		log.Warn("config warning", "warning", w)
	}
	log.Debug("solver ready",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"input", a.inputPath,
	)
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	if a.dumpMetrics {
		if err := metrics.WriteText(a.out, a.svc.Registry()); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if err := a.tracer.Shutdown(cmd.Context()); err != nil {
		logger.Warn("telemetry shutdown failed", "error", err)
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
	return nil
}

func (a *app) load() (*instance.Instance, error) {
	return instance.Load(a.inputPath)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	// В development вывод читают глазами, иначе одна строка на результат
	if a.cfg.IsDevelopment() {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// reportWriters пишут один и тот же отчёт в разных форматах
type reportWriters struct {
	xlsx func(io.Writer) error
	pdf  func(io.Writer) error
}

// writeReports создаёт файлы отчётов, заданные --xlsx и --pdf
func (a *app) writeReports(r reportWriters) error {
	if err := writeReport(a.xlsxPath, r.xlsx); err != nil {
		return err
	}
	return writeReport(a.pdfPath, r.pdf)
}

func writeReport(path string, write func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
