package processing

import (
	"strconv"
	"strings"

	"github.com/spacesedan/postsentiment/internal/models"
	"github.com/spacesedan/postsentiment/internal/store"
)

// DefaultDedupeKey identifies a post by its title and body, regardless of source.
var DefaultDedupeKey = []string{models.ColumnTitle, models.ColumnBodyText}

// Dedupe returns a new table holding the first row for each distinct key.
// Survivors keep their relative order and table is left untouched.
func Dedupe(table *store.Table, keyColumns ...string) *store.Table {
	if len(keyColumns) == 0 {
		keyColumns = DefaultDedupeKey
	}

	out := store.NewTable(table.Columns)
	seen := make(map[string]struct{}, table.Len())
	for _, row := range table.Rows {
		key := dedupeKey(row, keyColumns)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Add(row)
	}
	return out
}

func dedupeKey(row store.Row, keyColumns []string) string {
	var b strings.Builder
	for _, c := range keyColumns {
		v := row[c]
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}
