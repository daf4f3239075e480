package dataset

import (
	"fmt"
	"strings"
)

// Table is an ordered collection of named columns and their rows.
// Row order is preserved from the source file; the scrubber depends on
// it for first-wins de-duplication.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty table with the given column set.
// Column names are trimmed and lowercased so that header variations in
// source files ("Customer_ID ", "customer_id") address the same column.
func New(name string, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: no columns", name)
	}

	index := make(map[string]int, len(columns))
	normalized := make([]string, len(columns))
	for i, col := range columns {
		c := NormalizeColumn(col)
		if c == "" {
			return nil, fmt.Errorf("table %s: empty column name at position %d", name, i)
		}
		if _, exists := index[c]; exists {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, c)
		}
		index[c] = i
		normalized[i] = c
	}

	return &Table{
		name:    name,
		columns: normalized,
		index:   index,
	}, nil
}

// NormalizeColumn standardizes a column name: trimmed, lowercased,
// spaces replaced with underscores.
func NormalizeColumn(col string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", "_")
}

// Name returns the table name (normally the source name, e.g. "customers").
func (t *Table) Name() string {
	return t.name
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// HasColumn reports whether the table declares the given column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.index[NormalizeColumn(col)]
	return ok
}

// ColumnIndex returns the position of the given column.
func (t *Table) ColumnIndex(col string) (int, error) {
	i, ok := t.index[NormalizeColumn(col)]
	if !ok {
		return 0, fmt.Errorf("table %s: column %q not found", t.name, col)
	}
	return i, nil
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// AppendRow adds a row. The cell count must match the column count.
func (t *Table) AppendRow(cells []any) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("table %s: row has %d cells, expected %d", t.name, len(cells), len(t.columns))
	}
	row := make([]any, len(cells))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the cells of row i. The returned slice is the live row;
// the scrubber mutates it in place.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Cell returns the value at (row, column).
func (t *Table) Cell(row int, col string) (any, error) {
	i, err := t.ColumnIndex(col)
	if err != nil {
		return nil, err
	}
	return t.rows[row][i], nil
}

// SetCell replaces the value at (row, column).
func (t *Table) SetCell(row int, col string, value any) error {
	i, err := t.ColumnIndex(col)
	if err != nil {
		return err
	}
	t.rows[row][i] = value
	return nil
}

// IsNull reports whether a cell value counts as missing: nil, or a
// string that is empty or a conventional NA marker after trimming.
func IsNull(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "n/a", "null", "none", "nan":
		return true
	}
	return false
}

// Keep retains only the rows whose indices appear in keep, preserving
// encounter order. Indices must be sorted ascending.
func (t *Table) Keep(keep []int) {
	rows := make([][]any, 0, len(keep))
	for _, i := range keep {
		rows = append(rows, t.rows[i])
	}
	t.rows = rows
}
