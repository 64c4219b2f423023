package port

import "github.com/lpizzi13/DM-project/internal/core/domain"

// ReportStore reads result files and writes comparison reports.
type ReportStore interface {
	// ResultFiles maps query name to path for every result file in dir.
	ResultFiles(dir string) (map[string]string, error)
	// LoadTable returns an empty table, not an error, when path is absent.
	// Unparseable content is reported as domain.ErrMalformedResult.
	LoadTable(path string) (domain.Table, error)
	WriteDiff(path string, diff *domain.Diff) error
	WriteSummary(path string, results []domain.ComparisonResult) error
	// ResetReports creates the report directories of l and empties them.
	ResetReports(l domain.Layout) error
}

// TimingStore persists what a benchmark runner measured.
type TimingStore interface {
	WriteRuns(path string, timesMS []float64) error
	WriteResult(path string, rs *ResultSet) error
	AppendTimingSummary(path string, row domain.TimingSummary) error
	ReadRuns(path string) ([]float64, error)
	ReadTimingSummary(path string) ([]domain.TimingSummary, error)
}
