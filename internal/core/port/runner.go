package port

import (
	"context"

	"github.com/lpizzi13/DM-project/internal/core/domain"
)

// ResultSet is the header and rows of one query execution, values as the
// driver returned them.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// QueryRunner executes catalog queries against one backend.
type QueryRunner interface {
	// Side is the report label of the backend ("mysql" or "neo4j").
	Side() string
	// ApplyIndexes creates every index when enabled and drops them otherwise.
	ApplyIndexes(ctx context.Context, defs []domain.IndexDef, enabled bool) error
	// Execute runs the backend's statement for q and fetches every row.
	Execute(ctx context.Context, q domain.Query) (*ResultSet, error)
	Close(ctx context.Context) error
}
