package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// BenchmarkOptions controls one benchmark pass over a catalog.
type BenchmarkOptions struct {
	UseIndexes bool
	Warmups    int
	Repeats    int
}

// BenchmarkService times every catalog query on one backend and persists
// the per-run timings, the last result set and a cumulative summary row.
type BenchmarkService struct {
	runner  port.QueryRunner
	store   port.TimingStore
	journal port.RunJournal
	logger  *slog.Logger
	out     io.Writer
	tracer  trace.Tracer
	inst    port.Instrumentation
	now     func() time.Time
}

func NewBenchmarkService(runner port.QueryRunner, store port.TimingStore, journal port.RunJournal, logger *slog.Logger, out io.Writer, tracer trace.Tracer, inst port.Instrumentation) *BenchmarkService {
	if journal == nil {
		journal = port.NoopJournal{}
	}
	if out == nil {
		out = io.Discard
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &BenchmarkService{
		runner:  runner,
		store:   store,
		journal: journal,
		logger:  logger,
		out:     out,
		tracer:  tracer,
		inst:    inst,
		now:     time.Now,
	}
}

// Run applies the index policy and benchmarks every catalog query in order.
// Every summary row appended by one call shares a timestamp and run ID.
func (s *BenchmarkService) Run(ctx context.Context, layout domain.Layout, cat *domain.Catalog, opts BenchmarkOptions) ([]domain.TimingSummary, error) {
	side := s.runner.Side()
	ctx, span := s.tracer.Start(ctx, "BenchmarkService.Run",
		trace.WithAttributes(
			attribute.String("benchmark.side", side),
			attribute.Bool("benchmark.indexes", opts.UseIndexes),
			attribute.Int("benchmark.repeats", opts.Repeats),
		),
	)
	defer span.End()

	if opts.Repeats < 1 {
		return nil, fmt.Errorf("repeats must be positive, got %d", opts.Repeats)
	}

	defs := cat.RelationalIndexes
	if side == domain.GraphSide {
		defs = cat.GraphIndexes
	}
	if err := s.runner.ApplyIndexes(ctx, defs, opts.UseIndexes); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s: applying indexes: %w", side, err)
	}

	runID := uuid.NewString()
	ts := s.now()
	s.logger.InfoContext(ctx, "benchmark started",
		slog.String("benchmark.side", side),
		slog.String("benchmark.run_id", runID),
		slog.Int("benchmark.queries", len(cat.Queries)),
	)

	summaries := make([]domain.TimingSummary, 0, len(cat.Queries))
	for _, q := range cat.Queries {
		sum, err := s.runQuery(ctx, layout, q, opts, runID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summaries, fmt.Errorf("%s: %s: %w", side, q.Name, err)
		}
		sum.Timestamp = ts
		if err := s.store.AppendTimingSummary(layout.TimingSummaryPath(side), sum); err != nil {
			return summaries, fmt.Errorf("%s: appending summary: %w", side, err)
		}
		summaries = append(summaries, sum)
	}

	_, _ = fmt.Fprintf(s.out, "\n✅ %s benchmark completed. CSV files written to %s\n", side, layout.BackendDir(side))
	return summaries, nil
}

func (s *BenchmarkService) runQuery(ctx context.Context, layout domain.Layout, q domain.Query, opts BenchmarkOptions, runID string) (domain.TimingSummary, error) {
	side := s.runner.Side()
	ctx, span := s.tracer.Start(ctx, "BenchmarkService.runQuery",
		trace.WithAttributes(attribute.String("query.name", q.Name)),
	)
	defer span.End()

	_, _ = fmt.Fprintf(s.out, "\n=== %s ===\n", q.Name)

	for i := 1; i <= opts.Warmups; i++ {
		if _, _, err := s.execute(ctx, q, runID, i, true); err != nil {
			return domain.TimingSummary{}, fmt.Errorf("warmup %d: %w", i, err)
		}
	}

	times := make([]float64, 0, opts.Repeats)
	var last *port.ResultSet
	for i := 1; i <= opts.Repeats; i++ {
		rs, ms, err := s.execute(ctx, q, runID, i, false)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return domain.TimingSummary{}, fmt.Errorf("run %d: %w", i, err)
		}
		times = append(times, ms)
		last = rs
	}

	stats := domain.ComputeStats(times)
	_, _ = fmt.Fprintf(s.out, "Average: %.2f ms | StdDev: %.2f ms | Min: %.2f ms | Max: %.2f ms\n",
		stats.AvgMS, stats.StdDev, stats.MinMS, stats.MaxMS)

	if err := s.store.WriteRuns(layout.RunsPath(side, q.Name), times); err != nil {
		return domain.TimingSummary{}, fmt.Errorf("writing timings: %w", err)
	}
	if err := s.store.WriteResult(layout.ResultPath(side, q.Name), last); err != nil {
		return domain.TimingSummary{}, fmt.Errorf("writing result: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("benchmark.avg_ms", stats.AvgMS),
		attribute.Int("db.response.rows", len(last.Rows)),
	)
	return domain.TimingSummary{
		Query:    q.Name,
		Stats:    stats,
		RowsLast: len(last.Rows),
		RunID:    runID,
	}, nil
}

// execute times one execution including the full fetch.
func (s *BenchmarkService) execute(ctx context.Context, q domain.Query, runID string, iteration int, warmup bool) (*port.ResultSet, float64, error) {
	side := s.runner.Side()

	start := time.Now()
	rs, err := s.runner.Execute(ctx, q)
	ms := float64(time.Since(start).Nanoseconds()) / 1e6

	entry := port.JournalEntry{
		RunID:      runID,
		Side:       side,
		Query:      q.Name,
		Iteration:  iteration,
		Warmup:     warmup,
		DurationMS: ms,
		Err:        err,
	}
	if rs != nil {
		entry.RowsReturned = len(rs.Rows)
	}
	s.journal.Record(ctx, entry)

	if err != nil {
		s.inst.IncrementQueryErrors(ctx, side, q.Name)
		s.logger.ErrorContext(ctx, "query failed",
			slog.String("benchmark.side", side),
			slog.String("query.name", q.Name),
			slog.String("error", err.Error()),
		)
		return nil, 0, err
	}
	if !warmup {
		s.inst.RecordQueryDuration(ctx, side, q.Name, ms)
	}
	return rs, ms, nil
}
