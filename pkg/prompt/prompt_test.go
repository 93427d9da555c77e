package prompt_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/prompt"
	"github.com/stretchr/testify/assert"
)

func TestChat_Passthrough(t *testing.T) {
	p := prompt.New().Chat("  hi there ")
	assert.Equal(t, "  hi there ", p.Prompt)
	assert.False(t, p.Direct)
}

func TestURL(t *testing.T) {
	c := prompt.New()

	t.Run("content field", func(t *testing.T) {
		p := c.URL("https://a.com", domain.Ok(domain.ToolFetch, map[string]any{"content": "page body"}), "what is it?")
		assert.False(t, p.Direct)
		assert.Contains(t, p.Prompt, "'https://a.com'")
		assert.Contains(t, p.Prompt, "page body")
		assert.True(t, strings.HasSuffix(p.Prompt, "The user's question is: what is it?"))
	})

	t.Run("text field fallback", func(t *testing.T) {
		p := c.URL("https://a.com", domain.Ok(domain.ToolFetch, map[string]any{"text": "alt"}), "q")
		assert.Contains(t, p.Prompt, "alt")
	})

	t.Run("long content is truncated", func(t *testing.T) {
		body := strings.Repeat("字", 9000)
		p := c.URL("https://a.com", domain.Ok(domain.ToolFetch, body), "q")
		assert.Contains(t, p.Prompt, strings.Repeat("字", 8000)+prompt.TruncationMarker)
		assert.NotContains(t, p.Prompt, strings.Repeat("字", 8001))
	})

	t.Run("failure is degraded not direct", func(t *testing.T) {
		err := &domain.ToolError{Tool: domain.ToolFetch, Kind: domain.KindStatus, Status: 404, Message: "not found"}
		p := c.URL("https://gone.com", domain.Failed(domain.ToolFetch, err), "summarize")
		assert.False(t, p.Direct)
		assert.Contains(t, p.Prompt, "https://gone.com")
		assert.Contains(t, p.Prompt, "HTTP error: 404 - not found")
		assert.Contains(t, p.Prompt, "summarize")
	})
}

func TestTruncate(t *testing.T) {
	c := prompt.New(prompt.WithMaxContent(5))
	assert.Equal(t, "abc", c.Truncate("abc"))
	out := c.Truncate("abcdefgh")
	assert.Equal(t, "abcde"+prompt.TruncationMarker, out)
	assert.Equal(t, 5+utf8.RuneCountInString(prompt.TruncationMarker), utf8.RuneCountInString(out))
}

func TestTime(t *testing.T) {
	c := prompt.New()

	t.Run("object payload", func(t *testing.T) {
		res := domain.Ok(domain.ToolTime, map[string]any{
			"timezone": "America/New_York",
			"datetime": "2024-07-04T09:30:00-04:00",
			"is_dst":   true,
		})
		p := c.Time(res, "what time is it?")
		assert.False(t, p.Direct)
		assert.Contains(t, p.Prompt, "Timezone: America/New_York")
		assert.Contains(t, p.Prompt, "Date and time: 2024-07-04 09:30:00")
		assert.Contains(t, p.Prompt, "Daylight saving time: yes")
		assert.Contains(t, p.Prompt, "what time is it?")
	})

	t.Run("list payload uses first element", func(t *testing.T) {
		res := domain.Ok(domain.ToolTime, []any{
			map[string]any{"timezone": "UTC", "datetime": "not-a-date", "is_dst": false},
			map[string]any{"timezone": "Other"},
		})
		p := c.Time(res, "q")
		assert.Contains(t, p.Prompt, "Timezone: UTC")
		assert.Contains(t, p.Prompt, "Date and time: not-a-date")
		assert.Contains(t, p.Prompt, "Daylight saving time: no")
	})

	t.Run("text payload", func(t *testing.T) {
		p := c.Time(domain.Ok(domain.ToolTime, "10:00 EST"), "q")
		assert.Contains(t, p.Prompt, "10:00 EST")
	})

	t.Run("failure is answered directly", func(t *testing.T) {
		err := domain.NewToolError(domain.ToolTime, domain.KindUnavailable, "all endpoints failed", nil)
		p := c.Time(domain.Failed(domain.ToolTime, err), "q")
		assert.True(t, p.Direct)
		assert.Equal(t, "Failed to get time information: all endpoints failed", p.Prompt)
	})
}

func TestFilesystem(t *testing.T) {
	c := prompt.New()

	t.Run("entries are formatted", func(t *testing.T) {
		p := c.Filesystem("/d", domain.Ok(domain.ToolFilesystem, []string{"[DIR] pics", "[FILE] a.txt"}), "what's on my desktop")
		assert.False(t, p.Direct)
		assert.Contains(t, p.Prompt, "📁 pics\n📄 a.txt")
		assert.Contains(t, p.Prompt, "/d")
	})

	t.Run("failure names the path", func(t *testing.T) {
		err := domain.NewToolError(domain.ToolFilesystem, domain.KindRemote, "Error: permission denied", nil)
		p := c.Filesystem("/root/Desktop", domain.Failed(domain.ToolFilesystem, err), "q")
		assert.True(t, p.Direct)
		assert.Contains(t, p.Prompt, "/root/Desktop")
		assert.Contains(t, p.Prompt, "Error: permission denied")
	})
}

func TestCompose_Dispatch(t *testing.T) {
	c := prompt.New()
	req := &domain.ToolRequest{Tool: domain.ToolFetch, Args: map[string]any{"url": "https://x.com"}}
	p := c.Compose(domain.IntentURL, req, domain.Ok(domain.ToolFetch, "body"), "q")
	assert.Contains(t, p.Prompt, "https://x.com")

	assert.Equal(t, "hello", c.Compose(domain.IntentChat, nil, domain.ToolResult{}, "hello").Prompt)
}
