package domain

import (
	"fmt"
	"math"
	"time"
)

// TimestampLayout formats the run timestamp of a timing summary row.
const TimestampLayout = "2006-01-02 15:04:05"

// TimingStats aggregates the timed executions of one query.
type TimingStats struct {
	Runs   int
	AvgMS  float64
	StdDev float64
	MinMS  float64
	MaxMS  float64
}

// ComputeStats returns mean, sample standard deviation (0 below two runs),
// min and max of the given durations in milliseconds.
func ComputeStats(timesMS []float64) TimingStats {
	st := TimingStats{Runs: len(timesMS)}
	if len(timesMS) == 0 {
		return st
	}
	st.MinMS, st.MaxMS = timesMS[0], timesMS[0]
	var sum float64
	for _, t := range timesMS {
		sum += t
		st.MinMS = math.Min(st.MinMS, t)
		st.MaxMS = math.Max(st.MaxMS, t)
	}
	st.AvgMS = sum / float64(len(timesMS))
	if len(timesMS) > 1 {
		var sq float64
		for _, t := range timesMS {
			d := t - st.AvgMS
			sq += d * d
		}
		st.StdDev = math.Sqrt(sq / float64(len(timesMS)-1))
	}
	return st
}

// TimingSummary is one row of a side's cumulative timing summary.
type TimingSummary struct {
	Timestamp time.Time
	Query     string
	Stats     TimingStats
	RowsLast  int
	RunID     string
}

// TimingSummaryHeader is the header row of a timing summary file.
var TimingSummaryHeader = []string{
	"timestamp", "query_name", "runs", "avg_ms", "stdev_ms", "min_ms", "max_ms", "rows_last", "run_id",
}

func (s TimingSummary) Record() []string {
	return []string{
		s.Timestamp.Format(TimestampLayout),
		s.Query,
		fmt.Sprint(s.Stats.Runs),
		fmt.Sprintf("%.4f", s.Stats.AvgMS),
		fmt.Sprintf("%.4f", s.Stats.StdDev),
		fmt.Sprintf("%.4f", s.Stats.MinMS),
		fmt.Sprintf("%.4f", s.Stats.MaxMS),
		fmt.Sprint(s.RowsLast),
		s.RunID,
	}
}

// RunsHeader is the header row of a per-execution timing file.
var RunsHeader = []string{"run", "time_ms"}
