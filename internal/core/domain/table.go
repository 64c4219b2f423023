package domain

// Row maps a column name to its typed value.
type Row map[string]Value

// Table is the parsed content of one result file.
type Table struct {
	Header []string
	Rows   []Row
}

// NewTable builds a Table from raw string records. Short records are padded
// with empty strings; fields past the header width are ignored. When the
// header repeats a name, the rightmost field wins.
func NewTable(header []string, records [][]string) Table {
	t := Table{Header: header, Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		row := make(Row, len(header))
		for i, col := range header {
			raw := ""
			if i < len(rec) {
				raw = rec[i]
			}
			row[col] = ParseValue(raw)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Empty reports whether the table has neither a header nor rows, the state
// of a result file that does not exist.
func (t Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// CommonColumns returns the columns of left that also appear in right,
// preserving left's order. Repeated names in left are kept.
func CommonColumns(left, right []string) []string {
	inRight := make(map[string]struct{}, len(right))
	for _, c := range right {
		inRight[c] = struct{}{}
	}
	var common []string
	for _, c := range left {
		if _, ok := inRight[c]; ok {
			common = append(common, c)
		}
	}
	return common
}
