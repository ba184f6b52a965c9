// Package output renders a model.CommandResult to text, per spec.md §4.5:
// table, json, csv, and vertical formats, plus the one interactive widget
// (the arrow-key picker) spec.md's Non-goals still allow.
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/opsnest/adminshell/internal/model"
)

// Format selects one of the four renderings spec.md §4.5 names.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatVertical Format = "vertical"
)

// ParseFormat maps a CLI/config string onto a Format, defaulting to table
// for anything unrecognized (the shell's most common interactive mode).
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatVertical:
		return Format(s)
	default:
		return FormatTable
	}
}

// Write renders result to w per spec.md §4.5's contract. The failure and
// data-less success cases are identical across every format; only a
// successful result carrying Data reaches the format-specific renderer.
func Write(w io.Writer, result model.CommandResult, format Format) error {
	if !result.Success {
		_, err := fmt.Fprintf(w, "Error: %s\n", result.Error)
		return err
	}

	if result.Data == nil {
		if result.Message != "" {
			_, err := fmt.Fprintln(w, result.Message)
			return err
		}
		_, err := fmt.Fprintln(w, "Command completed successfully")
		return err
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, result.Data)
	case FormatCSV:
		return writeCSV(w, result.Data)
	case FormatVertical:
		return writeVertical(w, result.Data, result.Metadata)
	default:
		return writeTable(w, result.Data)
	}
}

// rowsOf normalizes Data into a uniform slice of records, the shape table,
// csv, and vertical all render from. A bare map is treated as a single
// record; a scalar or a slice of scalars is returned unnormalized via ok=false
// so the caller falls back to its own scalar rendering.
func rowsOf(data any) (rows []map[string]any, ok bool) {
	switch v := data.(type) {
	case map[string]any:
		return []map[string]any{v}, true
	case []map[string]any:
		return v, true
	case []any:
		rows = make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, isMap := item.(map[string]any)
			if !isMap {
				return nil, false
			}
			rows = append(rows, m)
		}
		return rows, true
	default:
		return nil, false
	}
}

// columnsOf collects the union of every row's keys, sorted for a
// deterministic column order despite Go's randomized map iteration.
func columnsOf(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
