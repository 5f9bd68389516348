// Package session persists chat sessions and their turns to a local
// SQLite database so past conversations can be listed and replayed.
package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"opencodex/internal/logging"
)

// Session is one recorded chat session.
type Session struct {
	ID        string
	Model     string
	Cwd       string
	StartedAt time.Time
	Turns     int
}

// Turn is one message within a session.
type Turn struct {
	TurnNumber int
	Role       string
	Content    string
	CreatedAt  time.Time
}

// Store wraps the SQLite session database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the session database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	logging.Session("Opening session store at %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.SessionDebug("Failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.SessionDebug("Failed to set journal_mode=WAL: %v", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			cwd TEXT NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, turn_number),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize session schema: %w", err)
		}
	}
	return nil
}

// Begin registers a new session and returns its generated ID.
func (s *Store) Begin(model, cwd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, model, cwd) VALUES (?, ?, ?)",
		id, model, cwd,
	)
	if err != nil {
		logging.Get(logging.CategorySession).Error("Failed to create session: %v", err)
		return "", err
	}
	logging.SessionDebug("Session started: id=%s model=%s cwd=%s", id, model, cwd)
	return id, nil
}

// Append records one turn. Duplicate (session, turn) pairs are silently
// skipped so replayed appends stay idempotent.
func (s *Store) Append(sessionID string, turnNumber int, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO turns (session_id, turn_number, role, content)
		 VALUES (?, ?, ?, ?)`,
		sessionID, turnNumber, role, content,
	)
	if err != nil {
		logging.Get(logging.CategorySession).Error("Failed to store turn: session=%s turn=%d: %v", sessionID, turnNumber, err)
		return err
	}
	logging.SessionDebug("Turn stored: session=%s turn=%d role=%s len=%d", sessionID, turnNumber, role, len(content))
	return nil
}

// List returns recent sessions, newest first.
func (s *Store) List(limit int) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT s.id, s.model, s.cwd, s.started_at, COUNT(t.turn_number)
		 FROM sessions s
		 LEFT JOIN turns t ON t.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Model, &sess.Cwd, &sess.StartedAt, &sess.Turns); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Get returns a session's turns in order.
func (s *Store) Get(sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT turn_number, role, content, created_at
		 FROM turns
		 WHERE session_id = ?
		 ORDER BY turn_number ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.TurnNumber, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
