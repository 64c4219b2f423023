package domain

import (
	"errors"
	"fmt"
)

// ErrNoPairs means the two backend directories share no result file name.
var ErrNoPairs = errors.New("no common result files")

// ErrMalformedResult marks a result file that was read but could not be
// parsed as CSV.
var ErrMalformedResult = errors.New("malformed result file")

// NoPairsError names both directories searched when pairing found nothing.
type NoPairsError struct {
	RelationalDir string
	GraphDir      string
}

func (e *NoPairsError) Error() string {
	return fmt.Sprintf("No common result files found in %s and %s. Make sure both runners saved CSVs with the same base names.",
		e.RelationalDir, e.GraphDir)
}

func (e *NoPairsError) Unwrap() error { return ErrNoPairs }
