package router_test

import (
	"testing"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_Intents(t *testing.T) {
	r := router.New()

	tests := []struct {
		name string
		text string
		want domain.Intent
	}{
		{"chat", "tell me a joke", domain.IntentChat},
		{"url", "summarize https://example.com/post", domain.IntentURL},
		{"time english", "What TIME is it?", domain.IntentTime},
		{"time chinese", "现在几点了", domain.IntentTime},
		{"filesystem english", "show me the files on my desktop", domain.IntentFilesystem},
		{"filesystem chinese", "桌面上有哪些文件", domain.IntentFilesystem},
		{"desktop alone is enough", "what is on my desktop", domain.IntentFilesystem},
		{"folder without location is chat", "how do I rename a folder", domain.IntentChat},
		{"url overrides time", "what time does https://shop.com open", domain.IntentURL},
		{"filesystem beats url and time", "list desktop files now https://x.com", domain.IntentFilesystem},
		{"substring keyword match", "please update the docs", domain.IntentTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.text).Intent)
		})
	}
}

func TestRoute_BuildsRequests(t *testing.T) {
	r := router.New(
		router.WithFilesystemRoot("/home/me/Desktop"),
		router.WithTimezone("Asia/Shanghai"),
	)

	t.Run("url acts on first url only", func(t *testing.T) {
		d := r.Route("compare https://a.com and https://b.com")
		require.NotNil(t, d.Request)
		assert.Equal(t, []string{"https://a.com", "https://b.com"}, d.URLs)
		assert.Equal(t, domain.ToolFetch, d.Request.Tool)
		assert.Equal(t, "https://a.com", d.Request.Args["url"])
		assert.Equal(t, router.DefaultFetchLength, d.Request.Args["max_length"])
		assert.Equal(t, false, d.Request.Args["raw"])
	})

	t.Run("time uses configured zone", func(t *testing.T) {
		d := r.Route("what's the date today")
		require.NotNil(t, d.Request)
		assert.Equal(t, domain.ToolTime, d.Request.Tool)
		assert.Equal(t, "Asia/Shanghai", d.Request.Args["timezone"])
	})

	t.Run("filesystem path comes from config", func(t *testing.T) {
		d := r.Route("list the files on desktop in /etc")
		require.NotNil(t, d.Request)
		assert.Equal(t, domain.OpListDirectory, d.Request.Operation)
		assert.Equal(t, "/home/me/Desktop", d.Request.Args["path"])
	})

	t.Run("chat has no request", func(t *testing.T) {
		assert.Nil(t, r.Route("hello").Request)
	})
}

func TestRules_Order(t *testing.T) {
	rules := router.New().Rules()
	var order []domain.Intent
	for _, rule := range rules {
		order = append(order, rule.Intent)
	}
	assert.Equal(t, []domain.Intent{
		domain.IntentFilesystem, domain.IntentTime, domain.IntentURL, domain.IntentChat,
	}, order)
}
