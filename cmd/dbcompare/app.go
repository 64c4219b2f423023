package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/lpizzi13/DM-project/internal/adapter/catalog"
	"github.com/lpizzi13/DM-project/internal/adapter/csvfile"
	"github.com/lpizzi13/DM-project/internal/adapter/mcp"
	graph "github.com/lpizzi13/DM-project/internal/adapter/neo4j"
	"github.com/lpizzi13/DM-project/internal/adapter/postgres"
	"github.com/lpizzi13/DM-project/internal/config"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"github.com/lpizzi13/DM-project/internal/core/service"
	"github.com/lpizzi13/DM-project/internal/journal"
	"github.com/lpizzi13/DM-project/internal/plot"
	"github.com/lpizzi13/DM-project/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "dbcompare"

// app carries what every subcommand shares once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	store  *csvfile.Store
	tracer trace.Tracer
	inst   port.Instrumentation
	otel   *telemetry.Provider
}

func newApp(cmd *cobra.Command, runBenchmarks bool) (*app, error) {
	overrides := overridesFromFlags(cmd.Flags())
	overrides.RunBenchmarks = runBenchmarks

	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    cmd.OutOrStdout(),
		store:  csvfile.NewStore(),
		tracer: telemetry.NoopTracer(),
		inst:   telemetry.NoopInstruments(),
	}

	if cfg.OTelEnabled {
		provider, err := telemetry.Init(cmd.Context(), serviceName, version)
		if err != nil {
			return nil, fmt.Errorf("initializing telemetry: %w", err)
		}
		a.otel = provider
		a.tracer = telemetry.Tracer()
		a.inst = telemetry.NewInstruments()
		logger.Info("opentelemetry enabled")
	}

	logger.Info("starting dbcompare",
		slog.String("version", version),
		slog.String("results_root", cfg.ResultsRoot),
		slog.Bool("use_indexes", cfg.UseIndexes),
		slog.Bool("run_benchmarks", cfg.RunBenchmarks),
		slog.String("log_level", cfg.LogLevel.String()),
	)
	return a, nil
}

func (a *app) close() {
	if a.otel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}
}

func (a *app) catalog() (*domain.Catalog, error) {
	cat, err := catalog.Load(a.cfg.CatalogFile, domain.NewSelectValidator())
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

func (a *app) compareService(out io.Writer) *service.CompareService {
	return service.NewCompareService(a.store, a.logger, out, a.tracer, a.inst)
}

// runPipeline prepares the results tree, optionally benchmarks both
// backends, then compares and plots.
func runPipeline(cmd *cobra.Command, runBenchmarks bool) error {
	a, err := newApp(cmd, runBenchmarks)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	layout := a.cfg.Layout()

	if err := csvfile.Prepare(layout, a.cfg.RunBenchmarks); err != nil {
		return fmt.Errorf("preparing results tree: %w", err)
	}

	if a.cfg.RunBenchmarks {
		cat, err := a.catalog()
		if err != nil {
			return err
		}
		if err := a.benchmark(ctx, layout, cat); err != nil {
			return err
		}
	}

	if _, err := a.compareService(a.out).CompareAll(ctx, layout); err != nil {
		return err
	}

	if a.cfg.Plot {
		return a.plot(ctx, layout)
	}
	return nil
}

// benchmark runs the relational runner, then the graph runner, each with
// its own connection.
func (a *app) benchmark(ctx context.Context, layout domain.Layout, cat *domain.Catalog) error {
	j, err := journal.Open(a.cfg.JournalFile)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	opts := service.BenchmarkOptions{
		UseIndexes: a.cfg.UseIndexes,
		Warmups:    a.cfg.Warmups,
		Repeats:    a.cfg.Repeats,
	}

	connect := []func(context.Context) (port.QueryRunner, error){a.relationalRunner, a.graphRunner}
	for _, open := range connect {
		runner, err := open(ctx)
		if err != nil {
			return err
		}
		bench := service.NewBenchmarkService(runner, a.store, j, a.logger, a.out, a.tracer, a.inst)
		_, err = bench.Run(ctx, layout, cat, opts)
		if cerr := runner.Close(ctx); cerr != nil {
			a.logger.Warn("closing runner", slog.String("benchmark.side", runner.Side()), slog.String("error", cerr.Error()))
		}
		if err != nil {
			return fmt.Errorf("%s benchmark: %w", runner.Side(), err)
		}
	}
	return nil
}

func (a *app) relationalRunner(ctx context.Context) (port.QueryRunner, error) {
	pool, err := postgres.NewPool(ctx, a.cfg.RelationalURL, postgres.PoolOptions{
		MaxConns: a.cfg.PoolMaxConns,
		MinConns: a.cfg.PoolMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to relational database: %w", err)
	}
	a.logger.Info("database pool connected",
		slog.String("db.system", "postgresql"),
		slog.String("db.url", redactDSN(a.cfg.RelationalURL)),
	)
	return postgres.NewRunner(pool, a.cfg.QueryTimeout, a.logger), nil
}

func (a *app) graphRunner(ctx context.Context) (port.QueryRunner, error) {
	driver, err := graph.NewDriver(ctx, a.cfg.GraphURI, graph.Auth{
		User:     a.cfg.GraphUser,
		Password: a.cfg.GraphPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to graph database: %w", err)
	}
	a.logger.Info("graph driver connected",
		slog.String("db.system", "neo4j"),
		slog.String("db.url", a.cfg.GraphURI),
	)
	return graph.NewRunner(driver, a.cfg.GraphDatabase, a.cfg.QueryTimeout, a.logger), nil
}

func (a *app) plot(ctx context.Context, layout domain.Layout) error {
	written, err := plot.NewRenderer(a.store, a.logger).Render(ctx, layout)
	if err != nil {
		return fmt.Errorf("rendering plots: %w", err)
	}
	if len(written) > 0 {
		fmt.Fprintf(a.out, "📊 %d plots written to %s\n", len(written), layout.Plots)
	}
	return nil
}

func runPlot(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	layout := a.cfg.Layout()
	if err := csvfile.PreparePlots(layout); err != nil {
		return fmt.Errorf("preparing plots directory: %w", err)
	}
	return a.plot(cmd.Context(), layout)
}

// runServe exposes the comparison tools over MCP on stdio. Comparison
// progress is discarded since stdout carries the protocol.
func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	cat, err := a.catalog()
	if err != nil {
		return err
	}

	s := mcp.NewServer(version, cat, a.compareService(nil), a.cfg.Layout(), a.logger, a.tracer, a.inst)

	a.logger.Info("serving MCP over stdio")
	if err := mcpserver.NewStdioServer(s).Listen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// redactDSN masks the password of a connection URL for logging.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
