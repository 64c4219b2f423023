// Package plot renders timing charts from the benchmark summaries.
package plot

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	relationalLabel = "MySQL"
	graphLabel      = "Neo4j"
	barWidth        = vg.Length(14) // points
)

// Renderer draws the summary bar chart and the per-query line plots.
type Renderer struct {
	store  port.TimingStore
	logger *slog.Logger
}

func NewRenderer(store port.TimingStore, logger *slog.Logger) *Renderer {
	return &Renderer{store: store, logger: logger}
}

// Render writes every chart into layout.Plots and returns the files written.
// Missing timing summaries leave nothing to plot and are not an error.
func (r *Renderer) Render(ctx context.Context, layout domain.Layout) ([]string, error) {
	rel, err := r.store.ReadTimingSummary(layout.TimingSummaryPath(domain.RelationalSide))
	if err != nil {
		return nil, err
	}
	graph, err := r.store.ReadTimingSummary(layout.TimingSummaryPath(domain.GraphSide))
	if err != nil {
		return nil, err
	}
	if len(rel) == 0 || len(graph) == 0 {
		r.logger.WarnContext(ctx, "timing summaries missing, nothing to plot",
			slog.Int("summary.mysql_rows", len(rel)),
			slog.Int("summary.neo4j_rows", len(graph)),
		)
		return nil, nil
	}

	queries, relAvg, graphAvg := pairAverages(rel, graph)
	if len(queries) == 0 {
		r.logger.WarnContext(ctx, "timing summaries share no queries, nothing to plot")
		return nil, nil
	}

	var written []string
	chart := layout.SummaryChartPath()
	if err := summaryChart(queries, relAvg, graphAvg, chart); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", chart, err)
	}
	written = append(written, chart)

	for _, q := range queries {
		relRuns, err := r.store.ReadRuns(layout.RunsPath(domain.RelationalSide, q))
		if err != nil {
			return written, err
		}
		graphRuns, err := r.store.ReadRuns(layout.RunsPath(domain.GraphSide, q))
		if err != nil {
			return written, err
		}
		if len(relRuns) == 0 || len(graphRuns) == 0 {
			r.logger.DebugContext(ctx, "per-run timings missing, skipping line plot", slog.String("query.name", q))
			continue
		}
		path := layout.LinePlotPath(q)
		if err := linePlot(q, relRuns, graphRuns, path); err != nil {
			return written, fmt.Errorf("rendering %s: %w", path, err)
		}
		written = append(written, path)
	}

	r.logger.InfoContext(ctx, "plots rendered", slog.Int("plot.files", len(written)))
	return written, nil
}

// pairAverages returns, in relational summary order, every query present in
// both summaries with its average on each side. Summaries accumulate across
// runs, so the latest row of a query wins.
func pairAverages(rel, graph []domain.TimingSummary) ([]string, []float64, []float64) {
	latest := func(rows []domain.TimingSummary) (map[string]float64, []string) {
		avg := make(map[string]float64, len(rows))
		var order []string
		for _, row := range rows {
			if _, seen := avg[row.Query]; !seen {
				order = append(order, row.Query)
			}
			avg[row.Query] = row.Stats.AvgMS
		}
		return avg, order
	}
	relAvg, order := latest(rel)
	graphAvg, _ := latest(graph)

	var queries []string
	var rv, gv []float64
	for _, q := range order {
		g, ok := graphAvg[q]
		if !ok {
			continue
		}
		queries = append(queries, q)
		rv = append(rv, relAvg[q])
		gv = append(gv, g)
	}
	return queries, rv, gv
}

// summaryChart draws grouped bars of the average time per query. Bar heights
// are log10 of the milliseconds with ticks labelled in milliseconds, since
// gonum's log scale cannot draw bars rising from zero.
func summaryChart(queries []string, relAvg, graphAvg []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Average Execution Time Comparison (log scale)"
	p.Y.Label.Text = "Average Time (ms)"
	p.Y.Tick.Marker = plot.TickerFunc(powerOfTenTicks)

	relBars, err := plotter.NewBarChart(log10Values(relAvg), barWidth)
	if err != nil {
		return err
	}
	relBars.Color = plotutil.Color(0)
	relBars.LineStyle.Width = 0
	relBars.Offset = -barWidth / 2

	graphBars, err := plotter.NewBarChart(log10Values(graphAvg), barWidth)
	if err != nil {
		return err
	}
	graphBars.Color = plotutil.Color(1)
	graphBars.LineStyle.Width = 0
	graphBars.Offset = barWidth / 2

	p.Add(relBars, graphBars)
	p.Legend.Add(relationalLabel, relBars)
	p.Legend.Add(graphLabel, graphBars)
	p.Legend.Top = true
	p.NominalX(queries...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

// linePlot draws the time of every execution of one query on both sides.
func linePlot(query string, relRuns, graphRuns []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Execution Times - " + query
	p.X.Label.Text = "Execution"
	p.Y.Label.Text = "Time (ms)"

	if err := plotutil.AddLinePoints(p,
		relationalLabel, runPoints(relRuns),
		graphLabel, runPoints(graphRuns),
	); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func runPoints(times []float64) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i, t := range times {
		pts[i].X = float64(i)
		pts[i].Y = t
	}
	return pts
}

// log10Values maps milliseconds to bar heights. Non-positive averages
// cannot be drawn on a log axis and get a zero-height bar.
func log10Values(ms []float64) plotter.Values {
	out := make(plotter.Values, len(ms))
	for i, v := range ms {
		if v > 0 {
			out[i] = math.Log10(v)
		}
	}
	return out
}

// powerOfTenTicks labels every integer exponent in [lo, hi] with the
// millisecond value it stands for. A range inside one decade gets its two
// ends labelled instead.
func powerOfTenTicks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for e := math.Ceil(lo); e <= math.Floor(hi); e++ {
		ticks = append(ticks, plot.Tick{Value: e, Label: fmt.Sprintf("%g", math.Pow(10, e))})
	}
	if len(ticks) == 0 {
		for _, e := range []float64{lo, hi} {
			ticks = append(ticks, plot.Tick{Value: e, Label: fmt.Sprintf("%.3g", math.Pow(10, e))})
		}
	}
	return ticks
}
