package database

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// Store wraps the database connection pool. It is constructed once in main
// and passed to every service; Connect is idempotent so calling it again on
// an already-connected store is a no-op.
type Store struct {
	dsn string

	mu   sync.Mutex
	conn *sql.DB
}

// New creates an unconnected store for the given data source.
func New(dataSourceName string) *Store {
	return &Store{dsn: dataSourceName}
}

// Connect establishes the connection pool if it does not exist yet.
func (s *Store) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	dsn := s.dsn
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return err
	}

	s.conn = db
	return nil
}

// Close tears the pool down. Safe to call on a store that never connected.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	return s.conn.QueryRow(query, args...)
}

func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	return s.conn.Query(query, args...)
}

func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	return s.conn.Exec(query, args...)
}

func (s *Store) Prepare(query string) (*sql.Stmt, error) {
	return s.conn.Prepare(query)
}

// Migrate runs the SQL statements to set up the database schema.
func (s *Store) Migrate() error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		verify_code TEXT,
		verify_code_expiry DATETIME,
		is_verified INTEGER NOT NULL DEFAULT 0,
		is_accepting_messages INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_user_created
		ON messages(user_id, created_at DESC);
	`
	_, err := s.conn.Exec(sqlStmt)
	return err
}

// IsUniqueConstraintErr returns a boolean indicating if the current error is
// related to a database unique constraint failure.
func IsUniqueConstraintErr(err error) bool {
	if val, ok := err.(sqlite3.Error); ok {
		return val.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
