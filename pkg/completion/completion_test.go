package completion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/courier/pkg/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *completion.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := completion.DefaultConfig()
	cfg.BaseURL = srv.URL + "/v1"
	cfg.APIKey = "test-key"
	return completion.New(cfg)
}

func TestComplete_Success(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-ai/DeepSeek-V3", body["model"])
		assert.EqualValues(t, 1000, body["max_tokens"])
		assert.InDelta(t, 0.7, body["temperature"], 0.001)
		assert.InDelta(t, 0.7, body["top_p"], 0.001)
		assert.InDelta(t, 0.5, body["frequency_penalty"], 0.001)
		assert.EqualValues(t, 1, body["n"])

		msgs := body["messages"].([]any)
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "hello?", msgs[0].(map[string]any)["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hi!"}}]}`))
	})

	out, err := c.Complete(context.Background(), "hello?")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}

func TestComplete_NoChoices(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, completion.ErrNoAnswer)
	assert.Equal(t, "Sorry, no valid answer was returned.", completion.Apology(err))
}

func TestComplete_APIErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"openai envelope", `{"error":{"message":"invalid api key","type":"auth"}}`, "invalid api key"},
		{"top level message", `{"code":20015,"message":"model does not exist"}`, "model does not exist"},
		{"string error field", `{"error":"plain string err"}`, "plain string err"},
		{"non-string error field", `{"error":42}`, `{"error":42}`},
		{"raw body excerpt", strings.Repeat("z", 250), strings.Repeat("z", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Complete(context.Background(), "x")
			var cerr *completion.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, completion.KindAPI, cerr.Kind)
			assert.Equal(t, http.StatusBadRequest, cerr.Status)
			assert.Equal(t, tt.want, cerr.Message)
			assert.Equal(t, "Sorry, the API call failed: "+tt.want, completion.Apology(err))
		})
	}
}

func TestComplete_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := completion.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Timeout = 50 * time.Millisecond
	_, err := completion.New(cfg).Complete(context.Background(), "x")

	var cerr *completion.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, completion.KindTransport, cerr.Kind)
	assert.True(t, strings.HasPrefix(completion.Apology(err), "Sorry, calling the model failed: "))
}
