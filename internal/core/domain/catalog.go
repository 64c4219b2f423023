package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownQuery = errors.New("unknown query")

// Query is one named analytical question expressed for both backends.
type Query struct {
	Name         string
	SQL          string
	SQLParams    []any
	Cypher       string
	CypherParams map[string]any
}

// IndexDef names an index and the statement that creates it.
type IndexDef struct {
	Name   string
	Create string
}

// Catalog is the fixed set of benchmark queries plus each backend's
// index list. It is built once and never modified.
type Catalog struct {
	Queries           []Query
	RelationalIndexes []IndexDef
	GraphIndexes      []IndexDef
}

// Names returns the query names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Queries))
	for i, q := range c.Queries {
		names[i] = q.Name
	}
	return names
}

func (c *Catalog) Lookup(name string) (Query, error) {
	for _, q := range c.Queries {
		if q.Name == name {
			return q, nil
		}
	}
	return Query{}, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
}

// Validate checks names are usable as file stems and unique, that every
// query has both statements, and that every SQL statement passes sqlCheck.
func (c *Catalog) Validate(sqlCheck func(string) error) error {
	if len(c.Queries) == 0 {
		return errors.New("catalog has no queries")
	}
	seen := make(map[string]bool, len(c.Queries))
	for i, q := range c.Queries {
		if err := ValidateQueryName(q.Name); err != nil {
			return fmt.Errorf("queries[%d]: %w", i, err)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true

		if strings.TrimSpace(q.Cypher) == "" {
			return fmt.Errorf("query %q: cypher is required", q.Name)
		}
		if sqlCheck != nil {
			if err := sqlCheck(q.SQL); err != nil {
				return fmt.Errorf("query %q: sql: %w", q.Name, err)
			}
		}
	}
	if err := validateIndexes("relational", c.RelationalIndexes); err != nil {
		return err
	}
	return validateIndexes("graph", c.GraphIndexes)
}

// ValidateQueryName rejects names that cannot be a result file stem.
func ValidateQueryName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("query name is empty")
	case name != strings.TrimSpace(name):
		return fmt.Errorf("query name %q has surrounding whitespace", name)
	case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
		return fmt.Errorf("query name %q is not a valid file name", name)
	}
	return nil
}

func validateIndexes(kind string, defs []IndexDef) error {
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("indexes.%s[%d]: name is required", kind, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("indexes.%s[%d]: duplicate name %q", kind, i, d.Name)
		}
		seen[d.Name] = true
		if strings.TrimSpace(d.Create) == "" {
			return fmt.Errorf("indexes.%s[%q]: create statement is required", kind, d.Name)
		}
	}
	return nil
}
