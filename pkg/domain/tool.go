package domain

// ToolRequest is a single invocation of a backend tool.
// Args carries the named parameters of the operation (url/max_length for
// fetch, path/content/pattern for filesystem, timezone for time).
type ToolRequest struct {
	Tool      string         `json:"tool" mapstructure:"tool"`
	Operation string         `json:"operation,omitempty" mapstructure:"operation"`
	Args      map[string]any `json:"args,omitempty" mapstructure:"args"`
}

// Arg returns the string form of a named argument, or "" when absent.
func (r ToolRequest) Arg(name string) string {
	v, ok := r.Args[name]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ToolResult is the outcome of a tool call: either a payload (decoded JSON
// or plain text) or an error. Exactly one of the two is meaningful.
type ToolResult struct {
	Tool    string `json:"tool"`
	Payload any    `json:"payload,omitempty"`
	Err     error  `json:"-"`
}

// Ok wraps a successful payload.
func Ok(tool string, payload any) ToolResult {
	return ToolResult{Tool: tool, Payload: payload}
}

// Failed wraps a tool failure.
func Failed(tool string, err error) ToolResult {
	return ToolResult{Tool: tool, Err: err}
}

// IsError reports whether the call failed.
func (r ToolResult) IsError() bool {
	return r.Err != nil
}

// Tool describes a tool exposed to outer surfaces (MCP, CLI).
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}
