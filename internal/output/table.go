package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeTable implements spec.md §4.5's table contract: a list of uniform
// records becomes a header/body table (column widths computed
// display-width-aware by tablewriter itself, so CJK and emoji don't break
// alignment); a bare map becomes a two-column Key|Value table; anything
// else prints as a scalar.
func writeTable(w io.Writer, data any) error {
	if rows, ok := rowsOf(data); ok {
		if len(rows) == 1 {
			if m, isMap := data.(map[string]any); isMap {
				return writeKeyValueTable(w, m)
			}
		}
		return writeRecordTable(w, rows)
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

func writeRecordTable(w io.Writer, rows []map[string]any) error {
	cols := columnsOf(rows)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithBorders(tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off}),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
	)

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cellString(row[c])
		}
		table.Append(cells)
	}
	return table.Render()
}

func writeKeyValueTable(w io.Writer, m map[string]any) error {
	cols := columnsOf([]map[string]any{m})

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"KEY", "VALUE"}),
		tablewriter.WithBorders(tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off}),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
	)
	for _, k := range cols {
		table.Append([]string{k, cellString(m[k])})
	}
	return table.Render()
}
