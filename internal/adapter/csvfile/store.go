package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
)

// Store reads and writes every CSV artifact under a results tree.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

var (
	_ port.ReportStore = (*Store)(nil)
	_ port.TimingStore = (*Store)(nil)
)

// ResultFiles maps query name to path for every *.csv file directly in dir.
// A missing directory yields no files.
func (s *Store) ResultFiles(dir string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+domain.ResultExt))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	files := make(map[string]string, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("inspecting %s: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		files[domain.QueryName(m)] = m
	}
	return files, nil
}

// LoadTable parses a result file: the first record is the header, every
// other record a row. A missing or empty file yields an empty table. CSV
// syntax errors wrap domain.ErrMalformedResult; other errors are I/O.
func (s *Store) LoadTable(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Table{}, nil
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := readAll(f)
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return domain.Table{}, fmt.Errorf("%w: %s: %w", domain.ErrMalformedResult, path, parseErr)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return domain.Table{}, nil
	}
	return domain.NewTable(records[0], records[1:]), nil
}

func (s *Store) ResetReports(l domain.Layout) error {
	return Prepare(l, false)
}

func (s *Store) WriteDiff(path string, diff *domain.Diff) error {
	return writeFile(path, diff.Records())
}

func (s *Store) WriteSummary(path string, results []domain.ComparisonResult) error {
	records := make([][]string, 0, len(results)+1)
	records = append(records, domain.SummaryHeader)
	for _, r := range results {
		records = append(records, r.Record())
	}
	return writeFile(path, records)
}

func (s *Store) WriteRuns(path string, timesMS []float64) error {
	records := make([][]string, 0, len(timesMS)+1)
	records = append(records, domain.RunsHeader)
	for i, t := range timesMS {
		records = append(records, []string{strconv.Itoa(i + 1), domain.FormatFloat(t)})
	}
	return writeFile(path, records)
}

// WriteResult writes the header (when the backend reported columns) and
// every row of rs.
func (s *Store) WriteResult(path string, rs *port.ResultSet) error {
	records := make([][]string, 0, len(rs.Rows)+1)
	if len(rs.Columns) > 0 {
		records = append(records, rs.Columns)
	}
	for _, row := range rs.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = FormatCell(v)
		}
		records = append(records, rec)
	}
	return writeFile(path, records)
}

// AppendTimingSummary appends one row, writing the header first when the
// file is new.
func (s *Store) AppendTimingSummary(path string, row domain.TimingSummary) error {
	_, err := os.Stat(path)
	writeHeader := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if writeHeader {
		_ = w.Write(domain.TimingSummaryHeader)
	}
	_ = w.Write(row.Record())
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadRuns returns the time_ms column of a per-execution timing file.
func (s *Store) ReadRuns(path string) ([]float64, error) {
	tbl, err := s.LoadTable(path)
	if err != nil {
		return nil, err
	}
	times := make([]float64, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		v, ok := number(row["time_ms"])
		if !ok {
			return nil, fmt.Errorf("%s: row %d: time_ms is not a number", path, i+1)
		}
		times = append(times, v)
	}
	return times, nil
}

// ReadTimingSummary parses a timing summary by column name, so files
// written without the run_id column still load.
func (s *Store) ReadTimingSummary(path string) ([]domain.TimingSummary, error) {
	tbl, err := s.LoadTable(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TimingSummary, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		avg, ok := number(row["avg_ms"])
		if !ok {
			return nil, fmt.Errorf("%s: row %d: avg_ms is not a number", path, i+1)
		}
		sum := domain.TimingSummary{
			Query: row["query_name"].Text(),
			RunID: row["run_id"].Text(),
			Stats: domain.TimingStats{AvgMS: avg},
		}
		sum.Stats.StdDev, _ = number(row["stdev_ms"])
		sum.Stats.MinMS, _ = number(row["min_ms"])
		sum.Stats.MaxMS, _ = number(row["max_ms"])
		if runs, ok := number(row["runs"]); ok {
			sum.Stats.Runs = int(runs)
		}
		if rows, ok := number(row["rows_last"]); ok {
			sum.RowsLast = int(rows)
		}
		if ts, err := time.ParseInLocation(domain.TimestampLayout, row["timestamp"].Text(), time.Local); err == nil {
			sum.Timestamp = ts
		}
		out = append(out, sum)
	}
	return out, nil
}

func number(v domain.Value) (float64, bool) {
	switch v.Kind() {
	case domain.KindInt:
		return float64(v.Int64()), true
	case domain.KindFloat:
		return v.Float(), true
	default:
		return 0, false
	}
}

// readAll reads every record, tolerating ragged rows and stray quotes.
func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func writeFile(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
