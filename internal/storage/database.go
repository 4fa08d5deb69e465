// Package storage persists decks, cards, scheduling state, the
// append-only review log, sessions, and registered card sources in a
// local SQLite database. It is designed for single-writer access: one
// logical owner issues one mutating call at a time. Multi-step writes
// (review, deck delete) run inside a single transaction so readers
// never observe a partially applied bundle.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Pleko-script/CardCrafter/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the sqlite driver
)

// newID mints a random row identifier.
func newID() string {
	return uuid.NewString()
}

// Store wraps the SQL database connection together with the clock and
// time zone used for day-boundary computations.
type Store struct {
	conn *sql.DB
	now  func() time.Time
	loc  *time.Location
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithClock replaces the wall clock. Tests pin a fixed clock to make
// due-selection and day-boundary statistics deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the time zone used for local-midnight boundaries
// (dueToday, reviewsToday, streak). Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// Open creates a new database connection and ensures the schema is up
// to date.
func Open(dsn string, opts ...Option) (*Store, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps SQLite's locking out of the picture and
	// matches the single-writer access model.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		conn: conn,
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Initialize bootstraps the default "Inbox" deck when the deck table is
// empty. It is idempotent and safe to call on every startup.
func (s *Store) Initialize() error {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM decks`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count decks: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := s.conn.Exec(
		`INSERT INTO decks (id, parent_id, name, created_at) VALUES (?, NULL, ?, ?)`,
		newID(), DefaultDeckName, toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to create default deck: %w", err)
	}
	return nil
}

// DefaultDeckName is the name of the deck guaranteed to exist after
// Initialize.
const DefaultDeckName = "Inbox"

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// toMillis converts a time to the Unix-millisecond representation used
// by every timestamp column.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts a stored Unix-millisecond timestamp back to a
// time in the store's location.
func (s *Store) fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(s.loc)
}

// nullable maps an empty string to SQL NULL, for optional foreign keys.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}

// toArgs widens a string slice for variadic query arguments.
func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// isNotFound reports whether err carries the not-found kind.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
