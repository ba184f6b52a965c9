package filter

import "github.com/opsnest/adminshell/internal/model"

// Expression is a fully parsed "SELECT <fields> FROM '<topic>' [WHERE
// <condition>]" filter (spec.md §3/§4.6).
type Expression struct {
	Fields    []string
	Topic     TopicSelector
	Condition Condition // nil when no WHERE clause was given
}

// Matches reports whether msg passes this filter: its source must satisfy
// the topic selector, and when a WHERE condition is present it must also
// evaluate true against conditionContext(msg).
//
// A zero-value Expression (no fields parsed, no topic set, nil condition)
// matches everything, matching spec.md's "matches is true by default when
// no filter set".
func (e Expression) Matches(msg model.Message) bool {
	if !e.Topic.Matches(msg.Source) {
		return false
	}
	if e.Condition == nil {
		return true
	}
	return e.Condition.Evaluate(conditionContext(msg))
}

// conditionContext builds the map a Condition evaluates field paths
// against: the message's payload fields at the top level (so "WHERE
// temperature > 30" addresses a payload field directly), plus the
// envelope fields nested under "message" for selectors that need them
// (e.g. "message.source", "message.type").
func conditionContext(msg model.Message) map[string]any {
	var ctx map[string]any
	switch p := msg.Payload.(type) {
	case map[string]any:
		ctx = make(map[string]any, len(p)+1)
		for k, v := range p {
			ctx[k] = v
		}
	default:
		ctx = map[string]any{"payload": msg.Payload}
	}
	ctx["message"] = msg.ToMap()
	return ctx
}

func (e Expression) String() string {
	out := "SELECT "
	if len(e.Fields) == 0 {
		out += "*"
	} else {
		for i, f := range e.Fields {
			if i > 0 {
				out += ", "
			}
			out += f
		}
	}
	out += " FROM '" + e.Topic.Pattern + "'"
	if e.Condition != nil {
		out += " WHERE " + e.Condition.String()
	}
	return out
}
