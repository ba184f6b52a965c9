package parser

import (
	"regexp"
	"strings"

	"github.com/opsnest/adminshell/internal/model"
)

var (
	longOptionName  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	shortOptionName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
)

// Parse converts a raw input line into a model.ParsedCommand. Empty input
// (after trimming) returns the empty-command sentinel.
func Parse(raw string) model.ParsedCommand {
	stripped, vertical := StripVerticalTerminator(raw)
	trimmed := strings.TrimSpace(stripped)
	if trimmed == "" {
		return model.ParsedCommand{Raw: raw, Vertical: vertical}
	}

	tokens := Tokenize(trimmed)
	if len(tokens) == 0 {
		return model.ParsedCommand{Raw: raw, Vertical: vertical}
	}

	name := tokens[0]
	args, options := classify(tokens[1:])

	return model.ParsedCommand{
		Command:  name,
		Args:     args,
		Options:  options,
		Raw:      raw,
		Vertical: vertical,
	}
}

// classify walks the remaining tokens, splitting them into positional
// arguments and options per spec.md §4.1:
//   - "--" toggles "options ended" mode; everything after is positional.
//   - "--name" / "--name=value" sets an option when name matches
//     ^[A-Za-z][A-Za-z0-9_-]*$, else falls through to positional.
//   - "-name" / "-name=value" sets an option when name matches
//     ^[A-Za-z][A-Za-z0-9]*$, else falls through to positional.
func classify(tokens []string) ([]string, map[string]any) {
	args := []string{}
	options := map[string]any{}
	optionsEnded := false

	for _, tok := range tokens {
		if optionsEnded {
			args = append(args, tok)
			continue
		}
		if tok == "--" {
			optionsEnded = true
			continue
		}

		switch {
		case strings.HasPrefix(tok, "--"):
			if name, value, ok := matchOption(tok[2:], longOptionName); ok {
				options[name] = value
				continue
			}
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			if name, value, ok := matchOption(tok[1:], shortOptionName); ok {
				options[name] = value
				continue
			}
		}
		args = append(args, tok)
	}

	return args, options
}

// matchOption splits "name" or "name=value" and validates name against
// pattern. value is the string after "=" or the boolean true when there
// was no "=".
func matchOption(body string, pattern *regexp.Regexp) (name string, value any, ok bool) {
	name = body
	var raw string
	hasValue := false
	if idx := strings.Index(body, "="); idx >= 0 {
		name = body[:idx]
		raw = body[idx+1:]
		hasValue = true
	}
	if !pattern.MatchString(name) {
		return "", nil, false
	}
	if hasValue {
		return name, raw, true
	}
	return name, true, true
}
