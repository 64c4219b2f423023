package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
)

// Runner executes catalog SQL on PostgreSQL. Its results are reported under
// the relational side label.
type Runner struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       *slog.Logger
}

var _ port.QueryRunner = (*Runner)(nil)

func NewRunner(pool *pgxpool.Pool, queryTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		pool:         pool,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (r *Runner) Side() string { return domain.RelationalSide }

// Execute runs q.SQL with q.SQLParams in a read-only transaction and fetches
// every row.
func (r *Runner) Execute(ctx context.Context, q domain.Query) (*port.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL scopes the timeout to this transaction, so PostgreSQL cancels
	// the query server-side even if the Go context is cancelled first.
	timeoutMS := r.queryTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%d'", timeoutMS)); err != nil {
		return nil, fmt.Errorf("setting statement timeout: %w", err)
	}

	rows, err := tx.Query(ctx, q.SQL, q.SQLParams...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	rs, err := collectRows(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return rs, nil
}

// ApplyIndexes creates every index when enabled and drops each by name
// otherwise. The first failing statement aborts.
func (r *Runner) ApplyIndexes(ctx context.Context, defs []domain.IndexDef, enabled bool) error {
	for _, d := range defs {
		stmt := d.Create
		if !enabled {
			stmt = dropIndexSQL(d.Name)
		}
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("index %s: %w", d.Name, err)
		}
		r.logger.DebugContext(ctx, "index statement applied",
			slog.String("db.system", "postgresql"),
			slog.String("db.statement", stmt),
		)
	}
	return nil
}

func (r *Runner) Close(context.Context) error {
	r.pool.Close()
	return nil
}

func dropIndexSQL(name string) string {
	return "DROP INDEX IF EXISTS " + pgx.Identifier{name}.Sanitize()
}
