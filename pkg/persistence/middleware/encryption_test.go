package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/courier/pkg/adapters/memory"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/persistence/middleware"
	"github.com/aretw0/courier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypting(t *testing.T, next ports.TranscriptStore, active []byte, fallback ...[]byte) ports.TranscriptStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunTranscriptStoreContract(t, encrypting(t, memory.NewStore(), generateKey(t)))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypting(t, underlying, generateKey(t))

	ctx := context.Background()
	tr := domain.NewTranscript("s")
	tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, "my-secret-sauce"))
	require.NoError(t, secure.Save(ctx, "s", tr))

	stored, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.NotContains(t, stored.Messages[0].Content, "my-secret-sauce")

	loaded, err := secure.Load(ctx, "s")
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "my-secret-sauce", loaded.Messages[0].Content)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := encrypting(t, underlying, oldKey)
	tr := domain.NewTranscript("r")
	tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, "old"))
	require.NoError(t, oldStore.Save(ctx, "r", tr))

	newStore := encrypting(t, underlying, newKey, oldKey)
	loaded, err := newStore.Load(ctx, "r")
	require.NoError(t, err, "fallback key should decrypt")
	assert.Equal(t, "old", loaded.Messages[0].Content)

	require.NoError(t, newStore.Save(ctx, "r", loaded))
	_, err = oldStore.Load(ctx, "r")
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_PlainTranscriptRejected(t *testing.T) {
	underlying := memory.NewStore()
	tr := domain.NewTranscript("p")
	tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, "plain"))
	require.NoError(t, underlying.Save(context.Background(), "p", tr))

	_, err := encrypting(t, underlying, generateKey(t)).Load(context.Background(), "p")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	raw := generateKey(t)
	k, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, k)

	k, err = middleware.ParseKey("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, k, 32)

	_, err = middleware.ParseKey("nope")
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
