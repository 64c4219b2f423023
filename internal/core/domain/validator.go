package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrNotAllowed     = errors.New("only SELECT queries are allowed")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
	ErrParseFailed    = errors.New("failed to parse SQL")
)

// SelectValidator checks benchmark SQL with PostgreSQL's own parser.
// Only a single SELECT statement passes, so a catalog can never mutate the
// data it measures.
type SelectValidator struct{}

func NewSelectValidator() *SelectValidator {
	return &SelectValidator{}
}

// Validate parses the SQL and rejects anything that isn't a single SELECT statement.
func (v *SelectValidator) Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	switch len(tree.Stmts) {
	case 0:
		return ErrEmptyQuery
	case 1:
	default:
		return ErrMultiStatement
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ErrEmptyQuery
	}
	if _, ok := stmt.Node.(*pg_query.Node_SelectStmt); !ok {
		return ErrNotAllowed
	}
	return nil
}
