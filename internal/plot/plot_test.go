package plot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lpizzi13/DM-project/internal/adapter/csvfile"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedTimings(t *testing.T, l domain.Layout, side string, avgs map[string]float64, order []string) {
	t.Helper()
	store := csvfile.NewStore()
	for _, q := range order {
		avg := avgs[q]
		require.NoError(t, store.WriteRuns(l.RunsPath(side, q), []float64{avg - 1, avg, avg + 1}))
		require.NoError(t, store.AppendTimingSummary(l.TimingSummaryPath(side), domain.TimingSummary{
			Timestamp: time.Now(),
			Query:     q,
			Stats:     domain.ComputeStats([]float64{avg - 1, avg, avg + 1}),
		}))
	}
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", path)
}

func TestRenderer_Render(t *testing.T) {
	l := domain.NewLayout(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, csvfile.Prepare(l, true))

	seedTimings(t, l, domain.RelationalSide, map[string]float64{"q1": 12, "q2": 1500}, []string{"q1", "q2"})
	seedTimings(t, l, domain.GraphSide, map[string]float64{"q1": 40, "q2": 3}, []string{"q1", "q2"})
	require.NoError(t, os.Remove(l.RunsPath(domain.GraphSide, "q2")))

	files, err := NewRenderer(csvfile.NewStore(), testLogger()).Render(context.Background(), l)
	require.NoError(t, err)

	assert.Equal(t, []string{l.SummaryChartPath(), l.LinePlotPath("q1")}, files)
	for _, f := range files {
		assertPNG(t, f)
	}
	assert.NoFileExists(t, l.LinePlotPath("q2"))
}

func TestRenderer_MissingSummaries(t *testing.T) {
	l := domain.NewLayout(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, csvfile.Prepare(l, true))
	seedTimings(t, l, domain.RelationalSide, map[string]float64{"q1": 12}, []string{"q1"})

	files, err := NewRenderer(csvfile.NewStore(), testLogger()).Render(context.Background(), l)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NoFileExists(t, l.SummaryChartPath())
}

func TestPairAverages_LatestRowWins(t *testing.T) {
	rel := []domain.TimingSummary{
		{Query: "b", Stats: domain.TimingStats{AvgMS: 1}},
		{Query: "a", Stats: domain.TimingStats{AvgMS: 2}},
		{Query: "b", Stats: domain.TimingStats{AvgMS: 3}},
		{Query: "only_rel", Stats: domain.TimingStats{AvgMS: 4}},
	}
	graph := []domain.TimingSummary{
		{Query: "a", Stats: domain.TimingStats{AvgMS: 20}},
		{Query: "b", Stats: domain.TimingStats{AvgMS: 30}},
	}

	queries, rv, gv := pairAverages(rel, graph)
	assert.Equal(t, []string{"b", "a"}, queries)
	assert.Equal(t, []float64{3, 2}, rv)
	assert.Equal(t, []float64{30, 20}, gv)
}

func TestPowerOfTenTicks(t *testing.T) {
	ticks := powerOfTenTicks(-0.5, 2.2)
	var labels []string
	for _, tk := range ticks {
		labels = append(labels, tk.Label)
	}
	assert.Equal(t, []string{"1", "10", "100"}, labels)

	narrow := powerOfTenTicks(1.1, 1.5)
	require.Len(t, narrow, 2)
	assert.Equal(t, "12.6", narrow[0].Label)
}

func TestLog10Values(t *testing.T) {
	got := log10Values([]float64{1, 100, 0, -3})
	require.Len(t, got, 4)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 2, got[1], 1e-12)
	assert.Zero(t, got[2])
	assert.Zero(t, got[3])
}
