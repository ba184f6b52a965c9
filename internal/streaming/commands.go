package streaming

import (
	"strings"

	"github.com/opsnest/adminshell/internal/filter"
	"github.com/opsnest/adminshell/internal/model"
)

// HandleStreamingCommand implements the streaming-mode verbs spec.md
// §4.10 lists as owned by the engine itself: "filter <expr>|show|clear|
// none, pause, resume, stats". It reports handled=false for anything
// else so the caller falls through to built-ins or sendAsync.
func (e *Engine) HandleStreamingCommand(cmd model.ParsedCommand) (model.CommandResult, bool) {
	switch cmd.Command {
	case "filter":
		return e.handleFilterCommand(cmd), true
	case "pause":
		e.paused.Store(true)
		return model.Success(nil, "streaming paused", nil), true
	case "resume":
		e.paused.Store(false)
		return model.Success(nil, "streaming resumed", nil), true
	case "stats":
		return e.statsResult(), true
	default:
		return model.CommandResult{}, false
	}
}

func (e *Engine) handleFilterCommand(cmd model.ParsedCommand) model.CommandResult {
	arg := strings.TrimSpace(filterArgument(cmd.Raw))

	switch strings.ToLower(arg) {
	case "show":
		e.filterMu.RLock()
		defer e.filterMu.RUnlock()
		if e.current == nil {
			return model.Success(nil, "no filter set", nil)
		}
		return model.Success(e.current.String(), "", nil)
	case "clear", "none", "":
		e.filterMu.Lock()
		e.current = nil
		e.filterMu.Unlock()
		return model.Success(nil, "filter cleared", nil)
	}

	expr, err := filter.ParseRule(arg)
	if err != nil {
		return model.Failure(err.Error(), nil, nil)
	}

	e.filterMu.Lock()
	e.current = &expr
	e.filterMu.Unlock()
	return model.Success(nil, "filter applied", nil)
}

// filterArgument returns everything in raw after the leading "filter"
// token, preserving the original quoting the filter grammar's lexer
// depends on (re-tokenizing via internal/parser would strip the single
// quotes around the FROM clause's topic literal).
func filterArgument(raw string) string {
	trimmed := strings.TrimSpace(raw)
	fields := strings.SplitN(trimmed, " ", 2)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func (e *Engine) statsResult() model.CommandResult {
	s := e.Stats()
	data := map[string]any{
		"received":   s.Received,
		"dispatched": s.Dispatched,
		"filtered":   s.Filtered,
		"paused":     s.Paused,
		"queue_len":  s.QueueLen,
		"queue_cap":  s.QueueCap,
	}
	if s.Filter != "" {
		data["filter"] = s.Filter
	}
	return model.Success(data, "", nil)
}
