package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordQueryDuration(ctx context.Context, side, query string, ms float64)
	IncrementQueryErrors(ctx context.Context, side, query string)
	RecordComparison(ctx context.Context, status string)
	RecordToolDuration(ctx context.Context, tool string, ms float64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordQueryDuration(context.Context, string, string, float64) {}
func (NoopInstrumentation) IncrementQueryErrors(context.Context, string, string)         {}
func (NoopInstrumentation) RecordComparison(context.Context, string)                     {}
func (NoopInstrumentation) RecordToolDuration(context.Context, string, float64)          {}
