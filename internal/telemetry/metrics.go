package telemetry

import (
	"context"

	"github.com/lpizzi13/DM-project/internal/core/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/lpizzi13/DM-project"

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	QueryDuration metric.Float64Histogram
	QueryErrors   metric.Int64Counter
	Comparisons   metric.Int64Counter
	ToolDuration  metric.Float64Histogram
}

var _ port.Instrumentation = (*Instruments)(nil)

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return newInstrumentsFromMeter(otel.Meter(meterName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return newInstrumentsFromMeter(noop.NewMeterProvider().Meter(meterName))
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	queryDuration, _ := meter.Float64Histogram("dbcompare.query.duration",
		metric.WithDescription("Timed benchmark query duration in milliseconds, including the full fetch"),
		metric.WithUnit("ms"),
	)
	queryErrors, _ := meter.Int64Counter("dbcompare.query.errors",
		metric.WithDescription("Total number of failed benchmark query executions"),
	)
	comparisons, _ := meter.Int64Counter("dbcompare.comparisons",
		metric.WithDescription("Compared query pairs by outcome status"),
	)
	toolDuration, _ := meter.Float64Histogram("dbcompare.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		QueryDuration: queryDuration,
		QueryErrors:   queryErrors,
		Comparisons:   comparisons,
		ToolDuration:  toolDuration,
	}
}

func (i *Instruments) RecordQueryDuration(ctx context.Context, side, query string, ms float64) {
	i.QueryDuration.Record(ctx, ms, metric.WithAttributes(queryAttrs(side, query)...))
}

func (i *Instruments) IncrementQueryErrors(ctx context.Context, side, query string) {
	i.QueryErrors.Add(ctx, 1, metric.WithAttributes(queryAttrs(side, query)...))
}

func (i *Instruments) RecordComparison(ctx context.Context, status string) {
	i.Comparisons.Add(ctx, 1, metric.WithAttributes(attribute.String("compare.status", status)))
}

func (i *Instruments) RecordToolDuration(ctx context.Context, tool string, ms float64) {
	i.ToolDuration.Record(ctx, ms, metric.WithAttributes(attribute.String("mcp.tool", tool)))
}

func queryAttrs(side, query string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("benchmark.side", side),
		attribute.String("query.name", query),
	}
}
