package neo4j_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	graph "github.com/lpizzi13/DM-project/internal/adapter/neo4j"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
)

const testPassword = "letmein123"

// testGraph is a small MovieLens-shaped dataset.
const testGraph = `
	CREATE (heat:Movie {movieId: 1, title: 'Heat'}),
	       (alien:Movie {movieId: 2, title: 'Alien'}),
	       (u1:User {userId: 1}), (u2:User {userId: 2}),
	       (u1)-[:RATED {rating: 4.0, timestamp: 900000000}]->(heat),
	       (u2)-[:RATED {rating: 5.0, timestamp: 900000001}]->(heat),
	       (u1)-[:RATED {rating: 3.5, timestamp: 900000002}]->(alien)
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestGraph(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcneo4j.Run(ctx, "neo4j:5", tcneo4j.WithAdminPassword(testPassword))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	boltURL, err := container.BoltUrl(ctx)
	require.NoError(t, err)

	driver, err := graph.NewDriver(ctx, boltURL, graph.Auth{User: "neo4j", Password: testPassword})
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close(ctx) })

	_, err = neo4j.ExecuteQuery(ctx, driver, testGraph, nil, neo4j.EagerResultTransformer)
	require.NoError(t, err)

	return driver
}

func TestRunner_Execute(t *testing.T) {
	driver := setupTestGraph(t)
	runner := graph.NewRunner(driver, "neo4j", 30*time.Second, testLogger())

	rs, err := runner.Execute(context.Background(), domain.Query{
		Name: "avg_by_movie",
		Cypher: `MATCH (m:Movie)<-[r:RATED]-(u:User)
		         WHERE u.userId <> $excluded
		         RETURN m.movieId AS movieId, m.title AS title, round(avg(r.rating), 2) AS avg_rating, count(r) AS votes
		         ORDER BY movieId`,
		CypherParams: map[string]any{"excluded": 99},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"movieId", "title", "avg_rating", "votes"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, []any{int64(1), "Heat", 4.5, int64(2)}, rs.Rows[0])
	assert.Equal(t, []any{int64(2), "Alien", 3.5, int64(1)}, rs.Rows[1])
}

func TestRunner_Execute_EmptyResultKeepsHeader(t *testing.T) {
	driver := setupTestGraph(t)
	runner := graph.NewRunner(driver, "neo4j", 30*time.Second, testLogger())

	rs, err := runner.Execute(context.Background(), domain.Query{
		Name:   "none",
		Cypher: "MATCH (m:Movie {title: 'Missing'}) RETURN m.movieId AS movieId",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"movieId"}, rs.Columns)
	assert.Empty(t, rs.Rows)
}

func TestRunner_Execute_SyntaxError(t *testing.T) {
	driver := setupTestGraph(t)
	runner := graph.NewRunner(driver, "neo4j", 30*time.Second, testLogger())

	_, err := runner.Execute(context.Background(), domain.Query{Name: "bad", Cypher: "MATCH RETURN"})
	assert.Error(t, err)
}

func TestRunner_ApplyIndexes(t *testing.T) {
	driver := setupTestGraph(t)
	runner := graph.NewRunner(driver, "neo4j", 30*time.Second, testLogger())
	ctx := context.Background()

	defs := []domain.IndexDef{
		{Name: "movie_title_index", Create: "CREATE INDEX movie_title_index IF NOT EXISTS FOR (m:Movie) ON (m.title)"},
	}
	countIndexes := func() int64 {
		res, err := neo4j.ExecuteQuery(ctx, driver,
			"SHOW INDEXES YIELD name WHERE name = 'movie_title_index' RETURN count(*) AS n",
			nil, neo4j.EagerResultTransformer)
		require.NoError(t, err)
		n, _ := res.Records[0].Get("n")
		return n.(int64)
	}

	require.NoError(t, runner.ApplyIndexes(ctx, defs, true))
	assert.Equal(t, int64(1), countIndexes())

	require.NoError(t, runner.ApplyIndexes(ctx, defs, false))
	assert.Equal(t, int64(0), countIndexes())

	require.NoError(t, runner.ApplyIndexes(ctx, defs, false))
}
