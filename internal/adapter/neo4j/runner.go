package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Runner executes catalog Cypher on Neo4j.
type Runner struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
	logger       *slog.Logger
}

var _ port.QueryRunner = (*Runner)(nil)

func NewRunner(driver neo4j.DriverWithContext, database string, queryTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		driver:       driver,
		database:     database,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (r *Runner) Side() string { return domain.GraphSide }

// Execute runs q.Cypher with q.CypherParams in a read session and collects
// every record. Columns come from the result keys, so an empty result still
// carries its header.
func (r *Runner) Execute(ctx context.Context, q domain.Query) (*port.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, q.Cypher, q.CypherParams, neo4j.WithTxTimeout(r.queryTimeout))
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	keys, err := result.Keys()
	if err != nil {
		return nil, fmt.Errorf("reading result keys: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting records: %w", err)
	}

	rs := &port.ResultSet{Columns: keys, Rows: make([][]any, 0, len(records))}
	for _, rec := range records {
		rs.Rows = append(rs.Rows, rec.Values)
	}
	return rs, nil
}

// ApplyIndexes creates every index when enabled and drops each by name
// otherwise. The first failing statement aborts.
func (r *Runner) ApplyIndexes(ctx context.Context, defs []domain.IndexDef, enabled bool) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer func() { _ = session.Close(ctx) }()

	for _, d := range defs {
		stmt := d.Create
		if !enabled {
			stmt = dropIndexCypher(d.Name)
		}
		result, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			return fmt.Errorf("index %s: %w", d.Name, err)
		}
		r.logger.DebugContext(ctx, "index statement applied",
			slog.String("db.system", "neo4j"),
			slog.String("db.statement", stmt),
		)
	}
	return nil
}

func (r *Runner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// dropIndexCypher backtick-quotes name so any index name is a valid
// identifier.
func dropIndexCypher(name string) string {
	return "DROP INDEX " + quoteIdentifier(name) + " IF EXISTS"
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
