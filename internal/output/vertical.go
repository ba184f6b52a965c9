package output

import (
	"fmt"
	"io"
)

// writeVertical implements spec.md §4.5's MySQL-\G-style rendering: one
// numbered block per record, a "field: value" line per column, and a
// trailing "N row(s) in set" footer carrying metadata.duration_ms when
// present.
func writeVertical(w io.Writer, data any, metadata map[string]any) error {
	rows, ok := rowsOf(data)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	cols := columnsOf(rows)
	for i, row := range rows {
		if _, err := fmt.Fprintf(w, "*** %d. row ***\n", i+1); err != nil {
			return err
		}
		for _, c := range cols {
			if _, err := fmt.Fprintf(w, "%s: %s\n", c, cellString(row[c])); err != nil {
				return err
			}
		}
	}

	footer := fmt.Sprintf("%d row(s) in set", len(rows))
	if ms, ok := durationMillis(metadata); ok {
		footer += fmt.Sprintf(" (%.3f sec)", float64(ms)/1000)
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

func durationMillis(metadata map[string]any) (float64, bool) {
	v, ok := metadata["duration_ms"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
