package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// CompareService pairs the result files of both backends, diffs every pair
// and writes the diff and summary reports.
type CompareService struct {
	store  port.ReportStore
	logger *slog.Logger
	out    io.Writer
	tracer trace.Tracer
	inst   port.Instrumentation
}

// NewCompareService builds the service. Progress lines go to out; a nil out
// discards them.
func NewCompareService(store port.ReportStore, logger *slog.Logger, out io.Writer, tracer trace.Tracer, inst port.Instrumentation) *CompareService {
	if out == nil {
		out = io.Discard
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &CompareService{
		store:  store,
		logger: logger,
		out:    out,
		tracer: tracer,
		inst:   inst,
	}
}

// Pair is a query name present in both backend directories.
type Pair struct {
	Query          string
	RelationalPath string
	GraphPath      string
}

// Pairs returns the query names found in both backend directories, sorted.
func (s *CompareService) Pairs(layout domain.Layout) ([]Pair, error) {
	rel, err := s.store.ResultFiles(layout.Relational)
	if err != nil {
		return nil, err
	}
	graph, err := s.store.ResultFiles(layout.Graph)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(rel))
	for name, relPath := range rel {
		if graphPath, ok := graph[name]; ok {
			pairs = append(pairs, Pair{Query: name, RelationalPath: relPath, GraphPath: graphPath})
		}
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return cmp.Compare(a.Query, b.Query) })
	return pairs, nil
}

// CompareAll diffs every pair in name order and writes the summary report.
// Diffs left by an earlier comparison are removed first. Finding no pairs at
// all is fatal and returns a *domain.NoPairsError; CompareAll then writes no
// summary, though the caller may already have purged the reports.
func (s *CompareService) CompareAll(ctx context.Context, layout domain.Layout) ([]domain.ComparisonResult, error) {
	ctx, span := s.tracer.Start(ctx, "CompareService.CompareAll",
		trace.WithAttributes(attribute.String("compare.root", layout.Root)),
	)
	defer span.End()

	pairs, err := s.Pairs(layout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pairing result files: %w", err)
	}
	if len(pairs) == 0 {
		err := &domain.NoPairsError{RelationalDir: layout.Relational, GraphDir: layout.Graph}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := s.store.ResetReports(layout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("resetting reports: %w", err)
	}

	_, _ = fmt.Fprintln(s.out, "▶️ Comparing results…")
	results := make([]domain.ComparisonResult, 0, len(pairs))
	for _, p := range pairs {
		res, err := s.ComparePair(ctx, layout, p)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, err
		}
		results = append(results, res)
	}

	summaryPath := layout.SummaryPath()
	if err := s.store.WriteSummary(summaryPath, results); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return results, fmt.Errorf("writing summary: %w", err)
	}

	_, _ = fmt.Fprintf(s.out, "\n📄 Summary written to %s\n", summaryPath)
	_, _ = fmt.Fprintf(s.out, "📄 Per-query diffs written to %s\n", layout.DiffPath("*"))
	span.SetAttributes(attribute.Int("compare.pairs", len(results)))
	s.logger.InfoContext(ctx, "comparison finished",
		slog.Int("compare.pairs", len(results)),
		slog.String("compare.summary", summaryPath),
	)
	return results, nil
}

// ComparePair diffs one pair and writes its diff file. A pair whose result
// file is malformed is reported with status error and the batch goes on;
// I/O failures reading or writing files are returned.
func (s *CompareService) ComparePair(ctx context.Context, layout domain.Layout, p Pair) (domain.ComparisonResult, error) {
	ctx, span := s.tracer.Start(ctx, "CompareService.ComparePair",
		trace.WithAttributes(attribute.String("query.name", p.Query)),
	)
	defer span.End()

	res, diff, err := s.load(p)
	switch {
	case errors.Is(err, domain.ErrMalformedResult):
		s.logger.WarnContext(ctx, "result file malformed",
			slog.String("query.name", p.Query),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		res = domain.ComparisonResult{Query: p.Query, Status: domain.StatusError, Details: err.Error()}
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ComparisonResult{Query: p.Query}, fmt.Errorf("reading results of %s: %w", p.Query, err)
	}

	if diff != nil {
		if err := s.store.WriteDiff(layout.DiffPath(p.Query), diff); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, fmt.Errorf("writing diff for %s: %w", p.Query, err)
		}
	}

	span.SetAttributes(
		attribute.String("compare.status", string(res.Status)),
		attribute.Int("compare.only_mysql", res.OnlyRelationalRows),
		attribute.Int("compare.only_neo4j", res.OnlyGraphRows),
	)
	s.inst.RecordComparison(ctx, string(res.Status))
	s.printResult(res)
	return res, nil
}

func (s *CompareService) load(p Pair) (domain.ComparisonResult, *domain.Diff, error) {
	rel, err := s.store.LoadTable(p.RelationalPath)
	if err != nil {
		return domain.ComparisonResult{}, nil, err
	}
	graph, err := s.store.LoadTable(p.GraphPath)
	if err != nil {
		return domain.ComparisonResult{}, nil, err
	}
	res, diff := domain.Compare(p.Query, rel, graph)
	return res, diff, nil
}

func (s *CompareService) printResult(r domain.ComparisonResult) {
	icon := "❌"
	if r.Equal() {
		icon = "✅"
	}
	_, _ = fmt.Fprintf(s.out, "%s %s: %s (rows mysql=%d, neo4j=%d, only_mysql=%d, only_neo4j=%d)\n",
		icon, r.Query, r.Status, r.RelationalRows, r.GraphRows, r.OnlyRelationalRows, r.OnlyGraphRows)
}

// Diff returns the diff file of one query as a table. A query without a
// diff file yields an empty table.
func (s *CompareService) Diff(layout domain.Layout, query string) (domain.Table, error) {
	if err := domain.ValidateQueryName(query); err != nil {
		return domain.Table{}, err
	}
	return s.store.LoadTable(layout.DiffPath(query))
}

// Summary returns the last written summary report as a table.
func (s *CompareService) Summary(layout domain.Layout) (domain.Table, error) {
	return s.store.LoadTable(layout.SummaryPath())
}
