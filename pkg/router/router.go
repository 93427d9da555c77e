// Package router classifies chat messages into a single handling path.
//
// Classification is an ordered list of rules evaluated top to bottom; the
// first rule whose predicate matches decides the intent. There is no scoring
// and no memory of previous turns.
package router

import (
	"strings"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/urls"
)

var (
	// FilesystemKeywords mark a message as being about files or folders.
	FilesystemKeywords = []string{"file", "files", "directory", "folder", "desktop", "文件", "文件夹", "目录", "桌面"}
	// LocationKeywords name the browsable location. Both lists must match.
	LocationKeywords = []string{"desktop", "桌面"}
	// TimeKeywords mark a message as a time question.
	TimeKeywords = []string{"时间", "几点", "日期", "现在", "what time", "today", "time", "date", "clock"}
)

// Defaults used when no option overrides them.
const (
	DefaultTimezone       = "America/New_York"
	DefaultFilesystemRoot = "~/Desktop"
	DefaultFetchLength    = 10000
)

// Input is the pre-processed view of a message handed to rule predicates.
type Input struct {
	Text  string
	Lower string
	URLs  []string
}

// Rule pairs an intent with the predicate that selects it.
type Rule struct {
	Intent domain.Intent
	Match  func(Input) bool
}

// Decision is the result of routing a message.
// Request is nil for the chat intent.
type Decision struct {
	Intent  domain.Intent
	URLs    []string
	Request *domain.ToolRequest
}

// Router holds the ordered rules and the parameters used to build tool requests.
type Router struct {
	rules       []Rule
	fsRoot      string
	timezone    string
	fetchLength int
}

// Option configures a Router.
type Option func(*Router)

// WithFilesystemRoot sets the directory listed for filesystem intents.
func WithFilesystemRoot(path string) Option {
	return func(r *Router) {
		if path != "" {
			r.fsRoot = path
		}
	}
}

// WithTimezone sets the timezone sent to the time tool.
func WithTimezone(tz string) Option {
	return func(r *Router) {
		if tz != "" {
			r.timezone = tz
		}
	}
}

// WithFetchLength sets max_length for fetch requests.
func WithFetchLength(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.fetchLength = n
		}
	}
}

// New creates a Router with the default rule order:
// filesystem, time, url, chat.
func New(opts ...Option) *Router {
	r := &Router{
		rules:       DefaultRules(),
		fsRoot:      DefaultFilesystemRoot,
		timezone:    DefaultTimezone,
		fetchLength: DefaultFetchLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRules returns the built-in rule cascade.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: domain.IntentFilesystem, Match: func(in Input) bool {
			return containsAny(in.Lower, FilesystemKeywords) && containsAny(in.Lower, LocationKeywords)
		}},
		{Intent: domain.IntentTime, Match: func(in Input) bool {
			return len(in.URLs) == 0 && containsAny(in.Lower, TimeKeywords)
		}},
		{Intent: domain.IntentURL, Match: func(in Input) bool {
			return len(in.URLs) > 0
		}},
		{Intent: domain.IntentChat, Match: func(Input) bool { return true }},
	}
}

// Rules returns a copy of the rule list in evaluation order.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// FilesystemRoot returns the configured listing root.
func (r *Router) FilesystemRoot() string { return r.fsRoot }

// Timezone returns the configured timezone.
func (r *Router) Timezone() string { return r.timezone }

// Route classifies text. It is a pure function of its argument.
func (r *Router) Route(text string) Decision {
	in := Input{
		Text:  text,
		Lower: strings.ToLower(text),
		URLs:  urls.Extract(text),
	}

	intent := domain.IntentChat
	for _, rule := range r.rules {
		if rule.Match(in) {
			intent = rule.Intent
			break
		}
	}

	return Decision{
		Intent:  intent,
		URLs:    in.URLs,
		Request: r.request(intent, in),
	}
}

func (r *Router) request(intent domain.Intent, in Input) *domain.ToolRequest {
	switch intent {
	case domain.IntentFilesystem:
		return r.ListRequest(r.fsRoot)
	case domain.IntentTime:
		return r.TimeRequest()
	case domain.IntentURL:
		return r.FetchRequest(in.URLs[0])
	}
	return nil
}

// FetchRequest builds the request for fetching target.
func (r *Router) FetchRequest(target string) *domain.ToolRequest {
	return &domain.ToolRequest{
		Tool: domain.ToolFetch,
		Args: map[string]any{
			"url":         target,
			"max_length":  r.fetchLength,
			"start_index": 0,
			"raw":         false,
		},
	}
}

// TimeRequest builds the request for the current time in the configured zone.
func (r *Router) TimeRequest() *domain.ToolRequest {
	return &domain.ToolRequest{
		Tool: domain.ToolTime,
		Args: map[string]any{"timezone": r.timezone},
	}
}

// ListRequest builds a list_directory request for path.
func (r *Router) ListRequest(path string) *domain.ToolRequest {
	return &domain.ToolRequest{
		Tool:      domain.ToolFilesystem,
		Operation: domain.OpListDirectory,
		Args:      map[string]any{"path": path},
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
