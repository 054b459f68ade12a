package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store := New(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err := store.Connect(); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return store
}

func TestConnect_Idempotent(t *testing.T) {
	store := newTestStore(t)

	// Connecting an already-connected store must be a no-op, not an error.
	if err := store.Connect(); err != nil {
		t.Fatalf("second Connect error: %v", err)
	}

	if _, err := store.Exec("INSERT INTO users (id, username, email) VALUES (?, ?, ?)",
		"u1", "alice", "a@x.com"); err != nil {
		t.Fatalf("Exec after reconnect error: %v", err)
	}
}

func TestClose_NeverConnected(t *testing.T) {
	store := New("file:never?mode=memory")
	if err := store.Close(); err != nil {
		t.Fatalf("Close on unconnected store error: %v", err)
	}
}

func TestIsUniqueConstraintErr(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Exec("INSERT INTO users (id, username, email) VALUES (?, ?, ?)",
		"u1", "alice", "a@x.com"); err != nil {
		t.Fatalf("first insert error: %v", err)
	}

	_, err := store.Exec("INSERT INTO users (id, username, email) VALUES (?, ?, ?)",
		"u2", "alice", "b@x.com")
	if err == nil {
		t.Fatalf("expected unique constraint violation, got nil")
	}
	if !IsUniqueConstraintErr(err) {
		t.Fatalf("expected IsUniqueConstraintErr to report true for %v", err)
	}
	if IsUniqueConstraintErr(fmt.Errorf("some other error")) {
		t.Fatalf("expected IsUniqueConstraintErr to report false for unrelated error")
	}
}

func TestMigrate_CascadeDelete(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Exec("INSERT INTO users (id, username, email) VALUES (?, ?, ?)",
		"u1", "alice", "a@x.com"); err != nil {
		t.Fatalf("insert user error: %v", err)
	}
	if _, err := store.Exec("INSERT INTO messages (id, user_id, content, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
		"m1", "u1", "hello there friend"); err != nil {
		t.Fatalf("insert message error: %v", err)
	}

	if _, err := store.Exec("DELETE FROM users WHERE id = ?", "u1"); err != nil {
		t.Fatalf("delete user error: %v", err)
	}

	var count int
	if err := store.QueryRow("SELECT COUNT(*) FROM messages WHERE user_id = ?", "u1").Scan(&count); err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected messages removed with their owner, found %d", count)
	}
}
