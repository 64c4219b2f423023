package port

import "context"

// JournalEntry represents a single timed query execution.
type JournalEntry struct {
	RunID        string
	Side         string
	Query        string
	Iteration    int
	Warmup       bool
	RowsReturned int
	DurationMS   float64
	Err          error
}

// RunJournal records query executions.
type RunJournal interface {
	Record(ctx context.Context, entry JournalEntry)
	Close() error
}

// NoopJournal discards all entries.
type NoopJournal struct{}

func (NoopJournal) Record(context.Context, JournalEntry) {}
func (NoopJournal) Close() error                         { return nil }
