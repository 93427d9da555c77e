package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courier/internal/config"
	"github.com/aretw0/courier/internal/logging"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/runner"
)

type echoModel struct{}

func (echoModel) Complete(_ context.Context, prompt string) (string, error) {
	return "echo: " + prompt, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Tools.BaseURL = "http://127.0.0.1:1"
	return cfg
}

func TestNewApp_MemoryStore(t *testing.T) {
	app, err := NewApp(testConfig(t), logging.NewNop(), WithCompleter(echoModel{}))
	require.NoError(t, err)
	defer app.Close()

	reply, err := app.Engine.Chat(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentChat, reply.Intent)

	ids, err := app.Store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestNewApp_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Session.Store = config.StoreRedis
	cfg.Session.RedisURL = "redis://" + mr.Addr()

	app, err := NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Engine.Chat(context.Background(), "remote", "hello")
	require.NoError(t, err)

	history, err := app.Engine.History(context.Background(), "remote")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.NotEmpty(t, mr.Keys())
}

func TestNewApp_EncryptedRedactedFileStore(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Session.Store = config.StoreFile
	cfg.Session.Dir = dir
	cfg.Session.EncryptionKey = strings.Repeat("k", 32)
	cfg.Session.Redact = []string{`\d{3}-\d{4}`}

	app, err := NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Engine.Chat(ctx, "secret", "call me at 555-1234")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "secret.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "call me")

	history, err := app.Engine.History(ctx, "secret")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "call me at ***", history[0].Content)
}

func TestNewApp_InvalidSessionConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.EncryptionKey = "short"
	_, err := NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	assert.ErrorContains(t, err, "session.encryption_key")

	cfg = testConfig(t)
	cfg.Session.Redact = []string{"("}
	_, err = NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	assert.ErrorContains(t, err, "session.redact")

	cfg = testConfig(t)
	cfg.Session.Store = "etcd"
	_, err = NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	assert.ErrorContains(t, err, "unknown session store")
}

func TestNewApp_WritePolicy(t *testing.T) {
	var writes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/write_file") {
			writes++
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	req := domain.ToolRequest{
		Tool:      domain.ToolFilesystem,
		Operation: domain.OpWriteFile,
		Args:      map[string]any{"path": "/tmp/x", "content": "hi"},
	}

	cfg := testConfig(t)
	cfg.Tools.BaseURL = srv.URL
	app, err := NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	require.NoError(t, err)
	res := app.Engine.InvokeTool(context.Background(), req)
	assert.Error(t, res.Err)
	assert.Zero(t, writes)

	cfg.Tools.AllowWrite = true
	app, err = NewApp(cfg, logging.NewNop(), WithCompleter(echoModel{}))
	require.NoError(t, err)
	res = app.Engine.InvokeTool(context.Background(), req)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, writes)
}

func TestResolveEndpoints(t *testing.T) {
	got := resolveEndpoints("http://tools:8000/", []string{"/time/now", "http://other/time"})
	assert.Equal(t, []string{"http://tools:8000/time/now", "http://other/time"}, got)
}

func TestRunChat_JSON(t *testing.T) {
	in := strings.NewReader("{\"message\":\"hi\"}\n/history\nexit\n")
	var out bytes.Buffer

	err := RunChat(context.Background(), testConfig(t), logging.NewNop(), ChatOptions{
		SessionID:  "json",
		JSON:       true,
		In:         in,
		Out:        &out,
		AppOptions: []AppOption{WithCompleter(echoModel{})},
	})
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var first, second runner.JSONMessage
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Contains(t, first.Response, "echo: ")
	assert.Contains(t, second.System, "user: hi")
}

func TestAsk(t *testing.T) {
	app, err := NewApp(testConfig(t), logging.NewNop(), WithCompleter(echoModel{}))
	require.NoError(t, err)

	reply, err := Ask(context.Background(), app, "", "hello")
	require.NoError(t, err)
	assert.Len(t, reply.History, 2)

	ids, err := app.Store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = Ask(context.Background(), app, "kept", "hello")
	require.NoError(t, err)
	ids, err = app.Store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, ids)
}
