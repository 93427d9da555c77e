package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTranscriptStoreContract runs a suite of tests to verify that a
// TranscriptStore implementation adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tr := domain.NewTranscript(sessionID)
		tr.Messages = append(tr.Messages,
			domain.NewMessage(domain.RoleUser, "what time is it?"),
			domain.NewMessage(domain.RoleAssistant, "It is noon."),
		)

		err := store.Save(ctx, sessionID, tr)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, domain.RoleUser, loaded.Messages[0].Role)
		assert.Equal(t, "It is noon.", loaded.Messages[1].Content)
		assert.WithinDuration(t, tr.Messages[0].Timestamp, loaded.Messages[0].Timestamp, time.Second)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Messages = append(loaded.Messages, domain.NewMessage(domain.RoleUser, "unsaved"))

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, again.Messages, 2, "mutating a loaded transcript must not affect the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewTranscript(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewTranscript(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewTranscript(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
