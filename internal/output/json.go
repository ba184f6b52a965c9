package output

import (
	"encoding/json"
	"io"
)

// writeJSON pretty-prints data. encoding/json already preserves Go's
// numeric types on the way out (a float64 stays unquoted and
// non-integer-truncated), satisfying spec.md §4.5's JSON invariant.
func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}
