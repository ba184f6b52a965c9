package output

import (
	"encoding/csv"
	"io"
)

// writeCSV implements spec.md §4.5's CSV contract. encoding/csv already
// quotes fields containing a comma, double-quote, CR, or LF and doubles
// embedded quotes per RFC 4180; an empty record set writes nothing.
func writeCSV(w io.Writer, data any) error {
	rows, ok := rowsOf(data)
	if !ok {
		cw := csv.NewWriter(w)
		defer cw.Flush()
		return cw.Write([]string{cellString(data)})
	}
	if len(rows) == 0 {
		return nil
	}

	cols := columnsOf(rows)
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(cols))
		for i, c := range cols {
			record[i] = cellString(row[c])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
