package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

type fileCatalog struct {
	Queries []fileQuery `yaml:"queries"`
	Indexes struct {
		Relational []fileIndex `yaml:"relational"`
		Graph      []fileIndex `yaml:"graph"`
	} `yaml:"indexes"`
}

type fileQuery struct {
	Name         string         `yaml:"name"`
	SQL          string         `yaml:"sql"`
	SQLParams    []any          `yaml:"sql_params"`
	Cypher       string         `yaml:"cypher"`
	CypherParams map[string]any `yaml:"cypher_params"`
}

type fileIndex struct {
	Name   string `yaml:"name"`
	Create string `yaml:"create"`
}

// Load returns the catalog at path, or the embedded MovieLens catalog when
// path is empty.
func Load(path string, validator port.QueryValidator) (*domain.Catalog, error) {
	if path == "" {
		return Default(validator)
	}
	return LoadFromFile(path, validator)
}

// LoadFromFile reads a YAML catalog file and returns a validated Catalog.
func LoadFromFile(path string, validator port.QueryValidator) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data, validator)
}

// Default returns the embedded catalog.
func Default(validator port.QueryValidator) (*domain.Catalog, error) {
	return Parse(defaultCatalog, validator)
}

// Parse decodes and validates a YAML catalog. A nil validator skips the SQL
// check.
func Parse(data []byte, validator port.QueryValidator) (*domain.Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}

	cat := &domain.Catalog{
		Queries:           make([]domain.Query, 0, len(fc.Queries)),
		RelationalIndexes: toIndexDefs(fc.Indexes.Relational),
		GraphIndexes:      toIndexDefs(fc.Indexes.Graph),
	}
	for _, q := range fc.Queries {
		cat.Queries = append(cat.Queries, domain.Query{
			Name:         q.Name,
			SQL:          q.SQL,
			SQLParams:    q.SQLParams,
			Cypher:       q.Cypher,
			CypherParams: q.CypherParams,
		})
	}

	var check func(string) error
	if validator != nil {
		check = validator.Validate
	}
	if err := cat.Validate(check); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return cat, nil
}

func toIndexDefs(in []fileIndex) []domain.IndexDef {
	out := make([]domain.IndexDef, len(in))
	for i, idx := range in {
		out[i] = domain.IndexDef{Name: idx.Name, Create: idx.Create}
	}
	return out
}
