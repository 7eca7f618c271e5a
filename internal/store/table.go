package store

import "slices"

// Row is one CSV record keyed by column name.
type Row map[string]string

// Table is an in-memory CSV file. Columns fixes the on-disk column order.
type Table struct {
	Columns []string
	Rows    []Row
}

func NewTable(columns []string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Add appends a row. Keys outside Columns are ignored when the table is written.
func (t *Table) Add(row Row) {
	t.Rows = append(t.Rows, row)
}

// Record returns the row values in column order, missing values as "".
func (t *Table) Record(i int) []string {
	return record(t.Rows[i], t.Columns)
}

func record(row Row, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = row[c]
	}
	return out
}
