package core

// RowSet is one table of string cells read from an import source. The first
// row is the header. Name identifies the table in errors (a file path or
// spreadsheet tab title) and plays no part in classification.
type RowSet struct {
	Name string
	Rows [][]string
}

// Header returns the first row, or nil for an empty table.
func (rs RowSet) Header() []string {
	if len(rs.Rows) == 0 {
		return nil
	}
	return rs.Rows[0]
}
