package journal

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/lpizzi13/DM-project/internal/core/port"
)

// fileEntry is the NDJSON-serializable form of a journal record.
type fileEntry struct {
	Timestamp    string  `json:"ts"`
	RunID        string  `json:"run_id"`
	Side         string  `json:"side"`
	Query        string  `json:"query"`
	Iteration    int     `json:"iteration"`
	Warmup       bool    `json:"warmup"`
	RowsReturned int     `json:"rows_returned"`
	DurationMS   float64 `json:"duration_ms"`
	Error        *string `json:"error"`
}

// FileJournal writes one JSON object per timed execution to a file.
type FileJournal struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileJournal opens (or creates) the file at path for append-only writing.
func NewFileJournal(path string) (*FileJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileJournal{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

func (j *FileJournal) Record(_ context.Context, entry port.JournalEntry) {
	fe := fileEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		RunID:        entry.RunID,
		Side:         entry.Side,
		Query:        entry.Query,
		Iteration:    entry.Iteration,
		Warmup:       entry.Warmup,
		RowsReturned: entry.RowsReturned,
		DurationMS:   entry.DurationMS,
	}
	if entry.Err != nil {
		s := entry.Err.Error()
		fe.Error = &s
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(fe) // best-effort; a journal write never fails a benchmark
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Open returns a FileJournal for path, or a no-op journal when path is empty.
func Open(path string) (port.RunJournal, error) {
	if path == "" {
		return port.NoopJournal{}, nil
	}
	return NewFileJournal(path)
}
