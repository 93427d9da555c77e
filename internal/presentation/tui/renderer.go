package tui

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is used when the terminal width is unknown.
const DefaultWordWrap = 100

// NewRenderer returns a function that renders markdown answers using glamour.
// width <= 0 selects DefaultWordWrap. If the renderer cannot be built the
// text is returned unchanged.
func NewRenderer(width int) func(string) (string, error) {
	if width <= 0 {
		width = DefaultWordWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
