package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/whisperbox/whisperbox-be/internal/apperr"
	"github.com/whisperbox/whisperbox-be/internal/database"
)

func newMailbox(t *testing.T) (*MessageService, string, *database.Store) {
	t.Helper()

	store := newTestStore(t)
	ownerID := uuid.NewString()
	_, err := store.Exec(`INSERT INTO users (id, username, email, is_verified, is_accepting_messages)
		VALUES (?, ?, ?, 1, 1)`, ownerID, "alice", "a@x.com")
	require.NoError(t, err)

	return NewMessageService(store), ownerID, store
}

func TestSend(t *testing.T) {
	svc, ownerID, store := newMailbox(t)

	msg, err := svc.Send("alice", "hello from a stranger")
	require.NoError(t, err)
	require.Equal(t, "hello from a stranger", msg.Content)
	require.False(t, msg.CreatedAt.IsZero())

	var count int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM messages WHERE user_id = ?", ownerID).Scan(&count))
	require.Equal(t, 1, count)
}

func TestSend_UnknownUser(t *testing.T) {
	svc, _, _ := newMailbox(t)

	_, err := svc.Send("nobody", "hello from a stranger")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSend_NotAccepting(t *testing.T) {
	svc, ownerID, store := newMailbox(t)

	_, err := svc.SetAccepting(ownerID, false)
	require.NoError(t, err)

	_, err = svc.Send("alice", "hello from a stranger")
	require.ErrorIs(t, err, apperr.ErrNotAccepting)

	// No message was appended.
	var count int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM messages WHERE user_id = ?", ownerID).Scan(&count))
	require.Equal(t, 0, count)

	// Toggling back on allows sending again.
	_, err = svc.SetAccepting(ownerID, true)
	require.NoError(t, err)
	_, err = svc.Send("alice", "hello from a stranger")
	require.NoError(t, err)
}

func TestSend_ContentBounds(t *testing.T) {
	svc, _, _ := newMailbox(t)

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"too short", strings.Repeat("a", 9), true},
		{"lower bound", strings.Repeat("a", 10), false},
		{"upper bound", strings.Repeat("a", 300), false},
		{"too long", strings.Repeat("a", 301), true},
		{"whitespace padding trims below bound", "   short    ", true},
		{"whitespace padding trims within bound", "  " + strings.Repeat("a", 300) + "  ", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send("alice", tc.content)
			if tc.wantErr {
				require.ErrorIs(t, err, apperr.ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	svc, ownerID, store := newMailbox(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, content := range []string{"message A oldest", "message B middle", "message C newest"} {
		_, err := store.Exec("INSERT INTO messages (id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
			uuid.NewString(), ownerID, content, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	messages, err := svc.List(ownerID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "message C newest", messages[0].Content)
	require.Equal(t, "message B middle", messages[1].Content)
	require.Equal(t, "message A oldest", messages[2].Content)
}

func TestList_EmptyMailbox(t *testing.T) {
	svc, ownerID, _ := newMailbox(t)

	messages, err := svc.List(ownerID)
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)
}

func TestList_UnknownOwner(t *testing.T) {
	svc, _, _ := newMailbox(t)

	_, err := svc.List(uuid.NewString())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, ownerID, _ := newMailbox(t)

	msg, err := svc.Send("alice", "hello from a stranger")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ownerID, msg.ID))

	// The second delete of the same id is the idempotent-race signal, not
	// a plain not-found.
	require.ErrorIs(t, svc.Delete(ownerID, msg.ID), apperr.ErrAlreadyDeleted)
}

func TestDelete_UnknownOwner(t *testing.T) {
	svc, _, _ := newMailbox(t)

	require.ErrorIs(t, svc.Delete(uuid.NewString(), uuid.NewString()), apperr.ErrNotFound)
}

func TestDelete_OtherOwnersMessage(t *testing.T) {
	svc, _, store := newMailbox(t)

	otherID := uuid.NewString()
	_, err := store.Exec(`INSERT INTO users (id, username, email, is_verified, is_accepting_messages)
		VALUES (?, ?, ?, 1, 1)`, otherID, "bob", "b@x.com")
	require.NoError(t, err)

	msg, err := svc.Send("alice", "hello from a stranger")
	require.NoError(t, err)

	// bob cannot remove alice's message; it stays put.
	require.ErrorIs(t, svc.Delete(otherID, msg.ID), apperr.ErrNotFound)

	var count int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM messages WHERE id = ?", msg.ID).Scan(&count))
	require.Equal(t, 1, count)
}

func TestAcceptingFlag(t *testing.T) {
	svc, ownerID, _ := newMailbox(t)

	accepting, err := svc.GetAccepting(ownerID)
	require.NoError(t, err)
	require.True(t, accepting, "accept flag defaults to true")

	accepting, err = svc.SetAccepting(ownerID, false)
	require.NoError(t, err)
	require.False(t, accepting)

	accepting, err = svc.GetAccepting(ownerID)
	require.NoError(t, err)
	require.False(t, accepting)

	_, err = svc.SetAccepting(uuid.NewString(), true)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.GetAccepting(uuid.NewString())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
