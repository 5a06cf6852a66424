package writer

import (
	"fmt"
	"strings"
)

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i)
	}
	return b.String()
}

// buildUpsertSQL builds an INSERT that overwrites every non-key column on
// conflict. columns[0] is the conflict key.
func buildUpsertSQL(table string, columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, col := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	sets = append(sets, "updated_at = now()")

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
		columns[0],
		strings.Join(sets, ", "),
	)
}
