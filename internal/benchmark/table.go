package benchmark

// Table is an ordered set of named string columns. Header lookup is exact.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table over columns and rows. Rows shorter than the header
// are padded with empty cells.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindex()
	t.Rows = make([][]string, 0, len(rows))
	for _, row := range rows {
		t.Rows = append(t.Rows, t.fit(row))
	}
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		if _, exists := t.index[col]; !exists {
			t.index[col] = i
		}
	}
}

func (t *Table) fit(row []string) []string {
	out := make([]string, len(t.Columns))
	copy(out, row)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether the table carries the column.
func (t *Table) Has(col string) bool {
	if t == nil {
		return false
	}
	if t.index == nil {
		t.reindex()
	}
	_, ok := t.index[col]
	return ok
}

// Value returns the cell at row for col, or "" when the column is absent.
func (t *Table) Value(row int, col string) string {
	if !t.Has(col) || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][t.index[col]]
}

// Set writes a cell, ignoring unknown columns.
func (t *Table) Set(row int, col, value string) {
	if !t.Has(col) || row < 0 || row >= len(t.Rows) {
		return
	}
	t.Rows[row][t.index[col]] = value
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return NewTable(nil, nil)
	}
	return NewTable(t.Columns, t.Rows)
}

// Select returns a new table holding the given row indexes in order.
func (t *Table) Select(rows []int) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	out.reindex()
	out.Rows = make([][]string, 0, len(rows))
	for _, idx := range rows {
		if idx < 0 || idx >= len(t.Rows) {
			continue
		}
		out.Rows = append(out.Rows, append([]string(nil), t.Rows[idx]...))
	}
	return out
}

// WithColumns returns a copy that appends the named columns. Existing columns
// are left in place and values are filled through fill.
func (t *Table) WithColumns(cols []string, fill func(row int) []string) *Table {
	columns := append([]string(nil), t.Columns...)
	for _, col := range cols {
		if !t.Has(col) {
			columns = append(columns, col)
		}
	}
	out := &Table{Columns: columns}
	out.reindex()
	out.Rows = make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		next := out.fit(row)
		values := fill(i)
		for j, col := range cols {
			if j < len(values) {
				next[out.index[col]] = values[j]
			}
		}
		out.Rows = append(out.Rows, next)
	}
	return out
}

// Column returns every value of col, or nil when absent.
func (t *Table) Column(col string) []string {
	if !t.Has(col) {
		return nil
	}
	idx := t.index[col]
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}
