package model

// CommandResult is the immutable outcome of executing a command, whether it
// ran locally (a built-in) or was dispatched to the server over a
// transport.
type CommandResult struct {
	Success  bool
	Data     any
	Error    string
	Message  string
	Metadata map[string]any
}

// ExitCode maps the result onto the process exit codes described in
// spec.md §6: 0 success, 1 failure, 2 when the failure was sourced from an
// exception (FromException sets metadata.exit_code itself).
func (r CommandResult) ExitCode() int {
	if code, ok := r.Metadata["exit_code"].(int); ok {
		return code
	}
	if r.Success {
		return 0
	}
	return 1
}

// Success builds a successful result. data and msg are optional; pass the
// zero value ("" / nil) to omit them.
func Success(data any, msg string, meta map[string]any) CommandResult {
	return CommandResult{
		Success:  true,
		Data:     data,
		Message:  msg,
		Metadata: meta,
	}
}

// Failure builds a failed result carrying err as its error string. The
// string is stored as given; Failure does not check that it is non-empty.
func Failure(err string, data any, meta map[string]any) CommandResult {
	return CommandResult{
		Success:  false,
		Data:     data,
		Error:    err,
		Metadata: meta,
	}
}

// FromResponse builds a CommandResult from a decoded wire map. Recognized
// keys (success, data, error, message, metadata) are consumed directly;
// any remaining keys are collected into Data when the map carried no
// explicit "data" field, so a bare server response map round-trips without
// the caller needing to know its shape in advance.
func FromResponse(m map[string]any) CommandResult {
	r := CommandResult{}
	if v, ok := m["success"].(bool); ok {
		r.Success = v
	}
	if v, ok := m["error"].(string); ok {
		r.Error = v
	}
	if v, ok := m["message"].(string); ok {
		r.Message = v
	}
	if v, ok := m["metadata"].(map[string]any); ok {
		r.Metadata = v
	}

	if data, hasData := m["data"]; hasData {
		r.Data = data
		return r
	}

	collected := map[string]any{}
	for k, v := range m {
		switch k {
		case "success", "error", "message", "metadata", "data":
			continue
		}
		collected[k] = v
	}
	if len(collected) > 0 {
		r.Data = collected
	}
	return r
}

// FromException builds a failure result for an error raised inside a
// handler or transport, tagging metadata with the exception's message and
// exit code 2 per spec.md's error taxonomy (HandlerException).
func FromException(err error, meta map[string]any) CommandResult {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["exception"] = err.Error()
	meta["exit_code"] = 2
	return CommandResult{
		Success:  false,
		Error:    err.Error(),
		Metadata: meta,
	}
}

// ToMap renders the result into the wire shape described in spec.md §6:
// {success, data?, error?, message?, metadata?}.
func (r CommandResult) ToMap() map[string]any {
	m := map[string]any{"success": r.Success}
	if r.Data != nil {
		m["data"] = r.Data
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.Message != "" {
		m["message"] = r.Message
	}
	if len(r.Metadata) > 0 {
		m["metadata"] = r.Metadata
	}
	return m
}
