package filter

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Lookup resolves a dot-notation field path against ctx, descending
// through nested maps per spec.md §3/§4.6. A missing segment yields
// (nil, false). When the path runs into a raw JSON string before it is
// exhausted — the common shape for a Message whose Payload arrived as
// unparsed wire JSON — the remainder of the path is resolved with
// tidwall/gjson instead of failing the lookup.
func Lookup(ctx map[string]any, field string) (any, bool) {
	if field == "" {
		return nil, false
	}
	segments := strings.Split(field, ".")

	var cur any = ctx
	for i, seg := range segments {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case string:
			rest := strings.Join(segments[i:], ".")
			result := gjson.Get(v, rest)
			if !result.Exists() {
				return nil, false
			}
			return gjsonValue(result), true
		default:
			return nil, false
		}
	}
	return cur, true
}

func gjsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	default:
		return r.Value()
	}
}
