package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lpizzi13/DM-project/internal/core/domain"
)

const (
	defaultResultsRoot        = "results"
	defaultIndexedResultsRoot = "results_with_indexes"
)

type Config struct {
	// Results tree. Empty until Load resolves it from UseIndexes.
	ResultsRoot string
	UseIndexes  bool

	// Pipeline steps.
	RunBenchmarks bool
	Plot          bool

	// Relational backend.
	RelationalURL string
	PoolMaxConns  int32 // default: 4
	PoolMinConns  int32 // default: 1

	// Graph backend.
	GraphURI      string
	GraphUser     string
	GraphPassword string
	GraphDatabase string

	// Benchmark harness.
	Repeats      int
	Warmups      int
	QueryTimeout time.Duration
	CatalogFile  string // optional path to catalog YAML; empty uses the embedded catalog
	JournalFile  string // optional path to NDJSON run journal

	// Logging.
	LogLevel slog.Level

	// Observability.
	OTelEnabled bool
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	ResultsRoot   *string
	UseIndexes    *bool
	RelationalURL *string
	GraphURI      *string
	GraphUser     *string
	GraphPassword *string
	GraphDatabase *string
	Repeats       *int
	Warmups       *int
	QueryTimeout  *time.Duration
	CatalogFile   *string
	JournalFile   *string
	LogLevel      *string
	OTelEnabled   bool
	RunBenchmarks bool
	NoPlot        bool

	// Connection pool overrides.
	PoolMaxConns *int32
	PoolMinConns *int32
}

// Load builds a Config from environment variables, then applies CLI overrides,
// then validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if cfg.ResultsRoot == "" {
		cfg.ResultsRoot = defaultResultsRoot
		if cfg.UseIndexes {
			cfg.ResultsRoot = defaultIndexedResultsRoot
		}
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Layout returns the directory layout under the results root.
func (c *Config) Layout() domain.Layout {
	return domain.NewLayout(c.ResultsRoot)
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		Plot:          true,
		GraphURI:      "bolt://localhost:7687",
		GraphUser:     "neo4j",
		GraphDatabase: "neo4j",
		Repeats:       10,
		Warmups:       1,
		QueryTimeout:  5 * time.Minute,
		PoolMaxConns:  4,
		PoolMinConns:  1,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	cfg.ResultsRoot = os.Getenv("RESULTS_ROOT")

	if v := os.Getenv("USE_INDEXES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid USE_INDEXES value %q: %w", v, err)
		}
		cfg.UseIndexes = b
	}

	cfg.RelationalURL = os.Getenv("RELATIONAL_URL")
	if cfg.RelationalURL == "" {
		cfg.RelationalURL = os.Getenv("DATABASE_URL")
	}

	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.GraphURI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.GraphUser = v
	}
	cfg.GraphPassword = os.Getenv("NEO4J_PASSWORD")
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		cfg.GraphDatabase = v
	}

	if err := loadHarnessEnvVars(cfg); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	return loadPoolEnvVars(cfg)
}

// loadHarnessEnvVars reads the benchmark harness environment variables.
func loadHarnessEnvVars(cfg *Config) error {
	if v := os.Getenv("REPEATS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid REPEATS value %q: must be a positive integer", v)
		}
		cfg.Repeats = n
	}
	if v := os.Getenv("WARMUP_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid WARMUP_RUNS value %q: must be a non-negative integer", v)
		}
		cfg.Warmups = n
	}
	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUERY_TIMEOUT value %q: %w", v, err)
		}
		cfg.QueryTimeout = d
	}
	cfg.CatalogFile = os.Getenv("CATALOG_FILE")
	cfg.JournalFile = os.Getenv("JOURNAL_FILE")
	return nil
}

// loadPoolEnvVars reads connection pool environment variables.
func loadPoolEnvVars(cfg *Config) error {
	if v := os.Getenv("POOL_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid POOL_MAX_CONNS value %q: must be a positive integer", v)
		}
		cfg.PoolMaxConns = int32(n)
	}
	if v := os.Getenv("POOL_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid POOL_MIN_CONNS value %q: must be a non-negative integer", v)
		}
		cfg.PoolMinConns = int32(n)
	}
	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.ResultsRoot != nil {
		cfg.ResultsRoot = *o.ResultsRoot
	}
	if o.UseIndexes != nil {
		cfg.UseIndexes = *o.UseIndexes
	}
	if o.RelationalURL != nil {
		cfg.RelationalURL = *o.RelationalURL
	}
	if o.GraphURI != nil {
		cfg.GraphURI = *o.GraphURI
	}
	if o.GraphUser != nil {
		cfg.GraphUser = *o.GraphUser
	}
	if o.GraphPassword != nil {
		cfg.GraphPassword = *o.GraphPassword
	}
	if o.GraphDatabase != nil {
		cfg.GraphDatabase = *o.GraphDatabase
	}
	if o.Repeats != nil {
		if *o.Repeats <= 0 {
			return fmt.Errorf("invalid --repeats value: must be a positive integer")
		}
		cfg.Repeats = *o.Repeats
	}
	if o.Warmups != nil {
		if *o.Warmups < 0 {
			return fmt.Errorf("invalid --warmups value: must be a non-negative integer")
		}
		cfg.Warmups = *o.Warmups
	}
	if o.QueryTimeout != nil {
		cfg.QueryTimeout = *o.QueryTimeout
	}
	if o.CatalogFile != nil {
		cfg.CatalogFile = *o.CatalogFile
	}
	if o.JournalFile != nil {
		cfg.JournalFile = *o.JournalFile
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if err := applyPoolOverrides(cfg, o); err != nil {
		return err
	}

	cfg.RunBenchmarks = o.RunBenchmarks
	cfg.Plot = !o.NoPlot
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

// applyPoolOverrides applies connection pool CLI flag overrides.
func applyPoolOverrides(cfg *Config, o Overrides) error {
	if o.PoolMaxConns != nil {
		if *o.PoolMaxConns <= 0 {
			return fmt.Errorf("invalid --pool-max-conns value: must be a positive integer")
		}
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		if *o.PoolMinConns < 0 {
			return fmt.Errorf("invalid --pool-min-conns value: must be a non-negative integer")
		}
		cfg.PoolMinConns = *o.PoolMinConns
	}
	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.RunBenchmarks && cfg.RelationalURL == "" {
		return fmt.Errorf("RELATIONAL_URL is required to run benchmarks (set via env var or --relational-url flag)")
	}
	if cfg.RunBenchmarks && cfg.GraphURI == "" {
		return fmt.Errorf("NEO4J_URI is required to run benchmarks (set via env var or --neo4j-uri flag)")
	}
	if cfg.QueryTimeout <= 0 {
		return fmt.Errorf("invalid QUERY_TIMEOUT value %s: must be positive", cfg.QueryTimeout)
	}
	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
