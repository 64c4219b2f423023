package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lpizzi13/DM-project/internal/core/port"
)

// collectRows drains pgx.Rows into a ResultSet, keeping the column order of
// the statement.
func collectRows(rows pgx.Rows) (*port.ResultSet, error) {
	fields := rows.FieldDescriptions()
	rs := &port.ResultSet{Columns: make([]string, len(fields))}
	for i, fd := range fields {
		rs.Columns[i] = fd.Name
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return rs, nil
}
