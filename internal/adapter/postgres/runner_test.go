package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lpizzi13/DM-project/internal/adapter/postgres"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testSchema is a small MovieLens-shaped dataset.
const testSchema = `
	CREATE TABLE movie (
		movieid INTEGER PRIMARY KEY,
		title   TEXT NOT NULL
	);
	CREATE TABLE ratings (
		userid    INTEGER NOT NULL,
		movieid   INTEGER NOT NULL REFERENCES movie(movieid),
		rating    REAL NOT NULL,
		timestamp BIGINT NOT NULL
	);

	INSERT INTO movie VALUES (1, 'Heat'), (2, 'Alien'), (3, 'Brazil');
	INSERT INTO ratings VALUES
		(1, 1, 4.0, 900000000), (2, 1, 5.0, 900000001),
		(1, 2, 3.5, 900000002), (3, 3, 2.0, 900000003);
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("movielens"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, connStr, postgres.PoolOptions{MaxConns: 2, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)

	return pool
}

func TestRunner_Execute(t *testing.T) {
	pool := setupTestDB(t)
	runner := postgres.NewRunner(pool, 10*time.Second, testLogger())

	rs, err := runner.Execute(context.Background(), domain.Query{
		Name: "avg_by_movie",
		SQL: `SELECT m.movieid AS "movieId", m.title, ROUND(AVG(r.rating)::numeric, 2)::float8 AS avg_rating, COUNT(*) AS votes
		      FROM movie m JOIN ratings r ON r.movieid = m.movieid
		      WHERE r.userid <> $1
		      GROUP BY m.movieid, m.title ORDER BY m.movieid`,
		SQLParams: []any{3},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"movieId", "title", "avg_rating", "votes"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, []any{int32(1), "Heat", 4.5, int64(2)}, rs.Rows[0])
	assert.Equal(t, []any{int32(2), "Alien", 3.5, int64(1)}, rs.Rows[1])
}

func TestRunner_Execute_ReadOnly(t *testing.T) {
	pool := setupTestDB(t)
	runner := postgres.NewRunner(pool, 10*time.Second, testLogger())

	_, err := runner.Execute(context.Background(), domain.Query{Name: "wipe", SQL: "DELETE FROM ratings"})
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "read-only")
}

func TestRunner_Execute_StatementTimeout(t *testing.T) {
	pool := setupTestDB(t)
	runner := postgres.NewRunner(pool, 1*time.Second, testLogger())

	_, err := runner.Execute(context.Background(), domain.Query{Name: "slow", SQL: "SELECT pg_sleep(30)"})
	require.Error(t, err)

	errMsg := strings.ToLower(err.Error())
	assert.True(t,
		strings.Contains(errMsg, "statement timeout") ||
			strings.Contains(errMsg, "cancel") ||
			strings.Contains(errMsg, "57014") ||
			strings.Contains(errMsg, "deadline exceeded") ||
			strings.Contains(errMsg, "timeout"),
		"expected timeout-related error, got: %s", err,
	)
}

func TestRunner_ApplyIndexes(t *testing.T) {
	pool := setupTestDB(t)
	runner := postgres.NewRunner(pool, 10*time.Second, testLogger())
	ctx := context.Background()

	defs := []domain.IndexDef{
		{Name: "idx_title", Create: "CREATE INDEX IF NOT EXISTS idx_title ON movie (title)"},
		{Name: "idx_userid", Create: "CREATE INDEX IF NOT EXISTS idx_userid ON ratings (userid)"},
	}
	countIndexes := func() int {
		var n int
		err := pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM pg_indexes WHERE indexname IN ('idx_title', 'idx_userid')").Scan(&n)
		require.NoError(t, err)
		return n
	}

	require.NoError(t, runner.ApplyIndexes(ctx, defs, true))
	assert.Equal(t, 2, countIndexes())

	// Creating twice is a no-op.
	require.NoError(t, runner.ApplyIndexes(ctx, defs, true))

	require.NoError(t, runner.ApplyIndexes(ctx, defs, false))
	assert.Equal(t, 0, countIndexes())

	// Dropping absent indexes succeeds.
	require.NoError(t, runner.ApplyIndexes(ctx, defs, false))
}

func TestRunner_ApplyIndexes_Failure(t *testing.T) {
	pool := setupTestDB(t)
	runner := postgres.NewRunner(pool, 10*time.Second, testLogger())

	err := runner.ApplyIndexes(context.Background(),
		[]domain.IndexDef{{Name: "idx_bad", Create: "CREATE INDEX idx_bad ON missing_table (x)"}}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index idx_bad")
}
