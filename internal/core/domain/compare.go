package domain

import (
	"fmt"
	"strings"
)

// Status classifies the outcome of comparing one query's results.
type Status string

const (
	StatusEqual           Status = "equal"
	StatusDifferent       Status = "different"
	StatusNoCommonColumns Status = "no_common_columns"
	// StatusError marks a pair whose result files could not be read.
	StatusError Status = "error"
)

// Report labels for the two backends. They name the sides in diff and
// summary files regardless of which engines produced the results.
const (
	RelationalSide = "mysql"
	GraphSide      = "neo4j"

	OnlyRelationalTag = "only_" + RelationalSide
	OnlyGraphTag      = "only_" + GraphSide
)

// Diff holds the keys present on only one side, each block sorted.
type Diff struct {
	Columns        []string
	OnlyRelational []Key
	OnlyGraph      []Key
}

// ComparisonResult is the outcome for one query name.
type ComparisonResult struct {
	Query              string `json:"query"`
	Status             Status `json:"status"`
	RelationalRows     int    `json:"mysql_rows"`
	GraphRows          int    `json:"neo4j_rows"`
	OnlyRelationalRows int    `json:"only_in_mysql"`
	OnlyGraphRows      int    `json:"only_in_neo4j"`
	Details            string `json:"details"`
}

// Equal reports whether the comparison found no differences.
func (r ComparisonResult) Equal() bool { return r.Status == StatusEqual }

// Compare diffs the relational and graph results of one query on their
// common columns. The returned Diff is nil when there are no common columns.
func Compare(query string, relational, graph Table) (ComparisonResult, *Diff) {
	res := ComparisonResult{
		Query:          query,
		RelationalRows: len(relational.Rows),
		GraphRows:      len(graph.Rows),
	}

	common := CommonColumns(relational.Header, graph.Header)
	if len(common) == 0 {
		res.Status = StatusNoCommonColumns
		res.Details = fmt.Sprintf("No common columns between %s and %s",
			formatHeader(relational.Header), formatHeader(graph.Header))
		return res, nil
	}

	rset := BuildKeySet(relational.Rows, common)
	gset := BuildKeySet(graph.Rows, common)
	diff := &Diff{
		Columns:        common,
		OnlyRelational: rset.Minus(gset),
		OnlyGraph:      gset.Minus(rset),
	}

	res.OnlyRelationalRows = len(diff.OnlyRelational)
	res.OnlyGraphRows = len(diff.OnlyGraph)
	res.Status = StatusDifferent
	if res.OnlyRelationalRows == 0 && res.OnlyGraphRows == 0 {
		res.Status = StatusEqual
	}
	res.Details = "Diff saved to " + DiffFileName(query)
	return res, diff
}

// Records lays the diff out as CSV records, header first.
func (d *Diff) Records() [][]string {
	out := make([][]string, 0, 1+len(d.OnlyRelational)+len(d.OnlyGraph))
	out = append(out, append([]string{"side"}, d.Columns...))
	for _, k := range d.OnlyRelational {
		out = append(out, append([]string{OnlyRelationalTag}, k.Texts()...))
	}
	for _, k := range d.OnlyGraph {
		out = append(out, append([]string{OnlyGraphTag}, k.Texts()...))
	}
	return out
}

// SummaryHeader is the header row of the comparison summary file.
var SummaryHeader = []string{
	"query", "status", "mysql_rows", "neo4j_rows", "only_in_mysql", "only_in_neo4j", "details",
}

// Record lays the result out as one summary row.
func (r ComparisonResult) Record() []string {
	return []string{
		r.Query,
		string(r.Status),
		fmt.Sprint(r.RelationalRows),
		fmt.Sprint(r.GraphRows),
		fmt.Sprint(r.OnlyRelationalRows),
		fmt.Sprint(r.OnlyGraphRows),
		r.Details,
	}
}

// formatHeader renders a header as a bracketed list of quoted names,
// e.g. ['m1', 'm2'].
func formatHeader(h []string) string {
	quoted := make([]string, len(h))
	for i, c := range h {
		quoted[i] = "'" + c + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
