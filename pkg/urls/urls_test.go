package urls_test

import (
	"testing"

	"github.com/aretw0/courier/pkg/urls"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "punctuation is part of the url",
			text: "check https://a.com/x,y and https://b.com/z.html!",
			want: []string{"https://a.com/x,y", "https://b.com/z.html!"},
		},
		{
			name: "cjk terminates the url",
			text: "帮我看看https://example.com/page这个网页",
			want: []string{"https://example.com/page"},
		},
		{
			name: "duplicates preserved",
			text: "http://x.io http://x.io",
			want: []string{"http://x.io", "http://x.io"},
		},
		{
			name: "query and fragment",
			text: "see https://go.dev/doc?lang=en#top.",
			want: []string{"https://go.dev/doc?lang=en#top."},
		},
		{
			name: "no scheme",
			text: "visit example.com today",
			want: []string{},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urls.Extract(tt.text))
		})
	}
}

func TestFirst(t *testing.T) {
	u, ok := urls.First("compare https://a.com and https://b.com")
	assert.True(t, ok)
	assert.Equal(t, "https://a.com", u)

	_, ok = urls.First("nothing here")
	assert.False(t, ok)
}
