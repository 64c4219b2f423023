package main

import (
	"github.com/lpizzi13/DM-project/internal/config"
	"github.com/spf13/pflag"
)

func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("results-root", "", "Results directory (default results, or results_with_indexes with --use-index)")
	fs.Bool("use-index", false, "Create the catalog indexes before benchmarking instead of dropping them")
	fs.Bool("no-plot", false, "Skip rendering timing charts")

	fs.String("relational-url", "", "PostgreSQL connection URL (overrides RELATIONAL_URL)")
	fs.Int32("pool-max-conns", 0, "Maximum connections in the PostgreSQL pool (default 4)")
	fs.Int32("pool-min-conns", 0, "Minimum idle connections in the PostgreSQL pool (default 1)")

	fs.String("neo4j-uri", "", "Neo4j bolt URI (overrides NEO4J_URI)")
	fs.String("neo4j-user", "", "Neo4j user (overrides NEO4J_USER)")
	fs.String("neo4j-password", "", "Neo4j password (overrides NEO4J_PASSWORD)")
	fs.String("neo4j-database", "", "Neo4j database (overrides NEO4J_DATABASE)")

	fs.Int("repeats", 0, "Timed executions per query (default 10)")
	fs.Int("warmups", 0, "Untimed executions per query before timing (default 1)")
	fs.Duration("query-timeout", 0, "Timeout of a single query execution (default 5m)")
	fs.String("catalog", "", "Path to a query catalog YAML (default: built-in MovieLens catalog)")
	fs.String("journal", "", "Path to an NDJSON journal of every execution")

	fs.String("log-level", "", "Log level: debug, info, warn, error")
	fs.Bool("otel", false, "Enable OpenTelemetry tracing and metrics")
}

// overridesFromFlags keeps only the flags the user actually set, so unset
// flags never mask environment variables.
func overridesFromFlags(fs *pflag.FlagSet) config.Overrides {
	noPlot, _ := fs.GetBool("no-plot")
	otelEnabled, _ := fs.GetBool("otel")

	return config.Overrides{
		ResultsRoot:   changed(fs, "results-root", fs.GetString),
		UseIndexes:    changed(fs, "use-index", fs.GetBool),
		RelationalURL: changed(fs, "relational-url", fs.GetString),
		GraphURI:      changed(fs, "neo4j-uri", fs.GetString),
		GraphUser:     changed(fs, "neo4j-user", fs.GetString),
		GraphPassword: changed(fs, "neo4j-password", fs.GetString),
		GraphDatabase: changed(fs, "neo4j-database", fs.GetString),
		Repeats:       changed(fs, "repeats", fs.GetInt),
		Warmups:       changed(fs, "warmups", fs.GetInt),
		QueryTimeout:  changed(fs, "query-timeout", fs.GetDuration),
		CatalogFile:   changed(fs, "catalog", fs.GetString),
		JournalFile:   changed(fs, "journal", fs.GetString),
		LogLevel:      changed(fs, "log-level", fs.GetString),
		OTelEnabled:   otelEnabled,
		NoPlot:        noPlot,
		PoolMaxConns:  changed(fs, "pool-max-conns", fs.GetInt32),
		PoolMinConns:  changed(fs, "pool-min-conns", fs.GetInt32),
	}
}

// changed returns the value of a flag set on the command line, or nil.
// Every lookup names a flag registered by addConfigFlags with the matching
// type, so get cannot fail.
func changed[T any](fs *pflag.FlagSet, name string, get func(string) (T, error)) *T {
	if !fs.Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return nil
	}
	return &v
}
