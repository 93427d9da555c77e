// Package prompt turns a routed message and its tool result into the single
// prompt sent to the model, or into a direct answer when the tool failed in
// a way the model cannot help with.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/gateway"
)

const (
	// DefaultMaxContent is the number of fetched characters kept in a URL prompt.
	DefaultMaxContent = 8000
	// TruncationMarker is appended to fetched content that was cut.
	TruncationMarker = "...(content truncated)"
)

// Plan is the composer's output. When Direct is set, Prompt is the final
// answer and the model is not called.
type Plan struct {
	Prompt string
	Direct bool
}

// Composer builds prompts. The zero value is not usable; call New.
type Composer struct {
	maxContent int
}

// Option configures a Composer.
type Option func(*Composer)

// WithMaxContent overrides the fetched content limit.
func WithMaxContent(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxContent = n
		}
	}
}

// New creates a Composer.
func New(opts ...Option) *Composer {
	c := &Composer{maxContent: DefaultMaxContent}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose dispatches on intent. req is the request that produced res and is
// nil for the chat intent.
func (c *Composer) Compose(intent domain.Intent, req *domain.ToolRequest, res domain.ToolResult, msg string) Plan {
	if req == nil {
		req = &domain.ToolRequest{}
	}
	switch intent {
	case domain.IntentURL:
		return c.URL(req.Arg("url"), res, msg)
	case domain.IntentTime:
		return c.Time(res, msg)
	case domain.IntentFilesystem:
		return c.Filesystem(req.Arg("path"), res, msg)
	}
	return c.Chat(msg)
}

// Chat forwards the message untouched.
func (c *Composer) Chat(msg string) Plan {
	return Plan{Prompt: msg}
}

// URL wraps fetched content around the question. A failed fetch still goes
// to the model with a degraded prompt describing the failure.
func (c *Composer) URL(target string, res domain.ToolResult, msg string) Plan {
	if res.Err != nil {
		return Plan{Prompt: fmt.Sprintf(
			"I tried to fetch the web page at '%s' but it failed: %s\n\n"+
				"Let the user know the page could not be retrieved and answer as best you can.\n\n"+
				"The user's question is: %s",
			target, detail(res.Err), msg)}
	}

	content := c.Truncate(PageContent(res.Payload))
	return Plan{Prompt: fmt.Sprintf(
		"Below is the web content fetched from URL '%s'. Analyze it and answer the user's question.\n\n"+
			"%s\n\n"+
			"The user's question is: %s",
		target, content, msg)}
}

// Truncate cuts s to the configured number of characters and appends
// TruncationMarker when anything was removed.
func (c *Composer) Truncate(s string) string {
	r := []rune(s)
	if len(r) <= c.maxContent {
		return s
	}
	return string(r[:c.maxContent]) + TruncationMarker
}

// PageContent extracts the readable text of a fetch payload.
func PageContent(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"content", "text"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return dump(payload)
}

// Filesystem lists a directory for the model. A failed listing is answered
// directly with a diagnostic naming the path.
func (c *Composer) Filesystem(path string, res domain.ToolResult, msg string) Plan {
	if res.Err != nil {
		return Plan{Direct: true, Prompt: fmt.Sprintf(
			"Sorry, I could not list the directory %s: %s", path, detail(res.Err))}
	}

	var listing string
	if entries, ok := gateway.Entries(res.Payload); ok {
		formatted := gateway.FormatEntries(entries)
		if len(formatted) == 0 {
			listing = "(the directory is empty)"
		} else {
			listing = strings.Join(formatted, "\n")
		}
	} else {
		listing = dump(res.Payload)
	}

	return Plan{Prompt: fmt.Sprintf(
		"Here are the contents of the directory %s:\n\n%s\n\n"+
			"Present this listing to the user in an organized, friendly way and answer their question.\n\n"+
			"The user's question is: %s",
		path, listing, msg)}
}

func detail(err error) string {
	if te, ok := err.(*domain.ToolError); ok {
		return te.Detail()
	}
	return err.Error()
}

func dump(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
