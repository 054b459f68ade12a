package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/whisperbox/whisperbox-be/internal/database"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()

	store := database.New(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

func addUser(t *testing.T, store *database.Store, username string, verified bool, expiry time.Time) string {
	t.Helper()

	id := uuid.NewString()
	_, err := store.Exec(`INSERT INTO users (id, username, email, verify_code, verify_code_expiry, is_verified)
		VALUES (?, ?, ?, ?, ?, ?)`, id, username, username+"@x.com", "123456", expiry, verified)
	require.NoError(t, err)
	return id
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	expiredID := addUser(t, store, "expired", false, now.Add(-time.Minute))
	liveID := addUser(t, store, "live", false, now.Add(time.Hour))

	pruner, err := NewCodePruner(store, "@every 15m")
	require.NoError(t, err)
	pruner.prune()

	var code *string
	require.NoError(t, store.QueryRow("SELECT verify_code FROM users WHERE id = ?", expiredID).Scan(&code))
	require.Nil(t, code, "expired code should be cleared")

	require.NoError(t, store.QueryRow("SELECT verify_code FROM users WHERE id = ?", liveID).Scan(&code))
	require.NotNil(t, code, "unexpired code should survive")
}

func TestNewCodePruner_BadSchedule(t *testing.T) {
	store := newTestStore(t)

	_, err := NewCodePruner(store, "not a schedule")
	require.Error(t, err)
}

func TestRunAndStop(t *testing.T) {
	store := newTestStore(t)

	pruner, err := NewCodePruner(store, "@every 1h")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		pruner.Run()
		close(done)
	}()

	// Give the initial prune a moment, then make sure Stop unblocks Run.
	time.Sleep(50 * time.Millisecond)
	pruner.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}
