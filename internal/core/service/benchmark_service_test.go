package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lpizzi13/DM-project/internal/adapter/csvfile"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock QueryRunner ---

type mockRunner struct {
	side      string
	results   map[string]*port.ResultSet
	failOn    string
	calls     map[string]int
	indexDefs []domain.IndexDef
	indexesOn bool
	indexErr  error
}

func newMockRunner(side string) *mockRunner {
	return &mockRunner{side: side, results: map[string]*port.ResultSet{}, calls: map[string]int{}}
}

func (m *mockRunner) Side() string { return m.side }

func (m *mockRunner) ApplyIndexes(_ context.Context, defs []domain.IndexDef, enabled bool) error {
	m.indexDefs = defs
	m.indexesOn = enabled
	return m.indexErr
}

func (m *mockRunner) Execute(_ context.Context, q domain.Query) (*port.ResultSet, error) {
	m.calls[q.Name]++
	if q.Name == m.failOn {
		return nil, errors.New("syntax error")
	}
	if rs, ok := m.results[q.Name]; ok {
		return rs, nil
	}
	return &port.ResultSet{}, nil
}

func (m *mockRunner) Close(context.Context) error { return nil }

// --- recording RunJournal ---

type recordingJournal struct {
	mu      sync.Mutex
	entries []port.JournalEntry
}

func (j *recordingJournal) Record(_ context.Context, e port.JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

func (j *recordingJournal) Close() error { return nil }

func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Queries: []domain.Query{
			{Name: "top_movies", SQL: "SELECT 1", Cypher: "RETURN 1"},
			{Name: "genres", SQL: "SELECT 2", Cypher: "RETURN 2"},
		},
		RelationalIndexes: []domain.IndexDef{{Name: "idx_rel", Create: "CREATE INDEX idx_rel ON ratings(movieid)"}},
		GraphIndexes:      []domain.IndexDef{{Name: "idx_graph", Create: "CREATE INDEX idx_graph FOR (m:Movie) ON (m.id)"}},
	}
}

func TestBenchmarkService_Run(t *testing.T) {
	l := testLayout(t)
	runner := newMockRunner(domain.RelationalSide)
	runner.results["top_movies"] = &port.ResultSet{
		Columns: []string{"movieid", "avg_rating"},
		Rows:    [][]any{{int64(1), 4.5}, {int64(2), 4.0}},
	}
	journal := &recordingJournal{}
	inst := &recordingInst{}
	var out bytes.Buffer

	svc := NewBenchmarkService(runner, csvfile.NewStore(), journal, testLogger(), &out, nil, inst)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 14, 5, 9, 0, time.Local) }

	sums, err := svc.Run(context.Background(), l, testCatalog(), BenchmarkOptions{UseIndexes: true, Warmups: 1, Repeats: 3})
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.True(t, runner.indexesOn)
	assert.Equal(t, "idx_rel", runner.indexDefs[0].Name)
	assert.Equal(t, 4, runner.calls["top_movies"])
	assert.Equal(t, 4, runner.calls["genres"])

	assert.Equal(t, "top_movies", sums[0].Query)
	assert.Equal(t, 3, sums[0].Stats.Runs)
	assert.Equal(t, 2, sums[0].RowsLast)
	assert.NotEmpty(t, sums[0].RunID)
	assert.Equal(t, sums[0].RunID, sums[1].RunID)

	assert.Equal(t, "movieid,avg_rating\n1,4.5\n2,4.0\n", readFile(t, l.ResultPath(domain.RelationalSide, "top_movies")))
	assert.Empty(t, readFile(t, l.ResultPath(domain.RelationalSide, "genres")))

	store := csvfile.NewStore()
	times, err := store.ReadRuns(l.RunsPath(domain.RelationalSide, "top_movies"))
	require.NoError(t, err)
	assert.Len(t, times, 3)

	rows, err := store.ReadTimingSummary(l.TimingSummaryPath(domain.RelationalSide))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-01 14:05:09", rows[0].Timestamp.Format(domain.TimestampLayout))
	assert.Equal(t, rows[0].Timestamp, rows[1].Timestamp)

	require.Len(t, journal.entries, 8)
	assert.True(t, journal.entries[0].Warmup)
	assert.False(t, journal.entries[1].Warmup)
	assert.Equal(t, 2, journal.entries[1].RowsReturned)
	assert.Equal(t, 6, inst.queries)

	assert.Contains(t, out.String(), "=== top_movies ===")
	assert.Contains(t, out.String(), "Average: ")
}

func TestBenchmarkService_SummaryAccumulates(t *testing.T) {
	l := testLayout(t)
	runner := newMockRunner(domain.GraphSide)
	svc := NewBenchmarkService(runner, csvfile.NewStore(), nil, testLogger(), nil, nil, nil)
	opts := BenchmarkOptions{Repeats: 1}

	_, err := svc.Run(context.Background(), l, testCatalog(), opts)
	require.NoError(t, err)
	_, err = svc.Run(context.Background(), l, testCatalog(), opts)
	require.NoError(t, err)

	assert.False(t, runner.indexesOn)
	assert.Equal(t, "idx_graph", runner.indexDefs[0].Name)

	rows, err := csvfile.NewStore().ReadTimingSummary(l.TimingSummaryPath(domain.GraphSide))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.NotEqual(t, rows[0].RunID, rows[2].RunID)
	assert.Zero(t, rows[0].Stats.StdDev)
}

func TestBenchmarkService_QueryFailure(t *testing.T) {
	l := testLayout(t)
	runner := newMockRunner(domain.RelationalSide)
	runner.failOn = "genres"
	inst := &recordingInst{}
	journal := &recordingJournal{}

	svc := NewBenchmarkService(runner, csvfile.NewStore(), journal, testLogger(), nil, nil, inst)
	sums, err := svc.Run(context.Background(), l, testCatalog(), BenchmarkOptions{Repeats: 2})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "genres")
	assert.Contains(t, err.Error(), "syntax error")
	assert.Len(t, sums, 1)
	assert.Equal(t, 1, inst.errors)
	require.NotEmpty(t, journal.entries)
	assert.Error(t, journal.entries[len(journal.entries)-1].Err)
}

func TestBenchmarkService_IndexFailure(t *testing.T) {
	l := testLayout(t)
	runner := newMockRunner(domain.RelationalSide)
	runner.indexErr = errors.New("permission denied for table ratings")

	svc := NewBenchmarkService(runner, csvfile.NewStore(), nil, testLogger(), nil, nil, nil)
	_, err := svc.Run(context.Background(), l, testCatalog(), BenchmarkOptions{UseIndexes: true, Repeats: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "applying indexes")
	assert.Empty(t, runner.calls)
}

func TestBenchmarkService_InvalidRepeats(t *testing.T) {
	svc := NewBenchmarkService(newMockRunner(domain.RelationalSide), csvfile.NewStore(), nil, testLogger(), nil, nil, nil)
	_, err := svc.Run(context.Background(), testLayout(t), testCatalog(), BenchmarkOptions{Repeats: 0})
	assert.ErrorContains(t, err, "repeats must be positive")
}
