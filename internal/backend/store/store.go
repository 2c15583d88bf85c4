package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kamal-hamza/assetctl/internal/backend/db"
)

// WhenLayout is how record timestamps are stored and served.
const WhenLayout = "2006-01-02T15:04:05"

// LogTimeLayout is the audit log timestamp format.
const LogTimeLayout = "2006-01-02 15:04:05"

// DefaultUTCOffset is the fixed offset applied to every server timestamp.
const DefaultUTCOffset = 8 * time.Hour

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// InputError is a request the store refuses; Message is safe to show users.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func badInput(msg string) error { return &InputError{Message: msg} }

// Store wraps a database with the clock used for server timestamps.
type Store struct {
	db     *db.DB
	offset time.Duration
	clock  func() time.Time
}

// New creates a store. offset shifts UTC into the site's wall clock.
func New(d *db.DB, offset time.Duration) *Store {
	return &Store{db: d, offset: offset, clock: time.Now}
}

// SetClock replaces the time source.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

// DB returns the underlying handle.
func (s *Store) DB() *db.DB {
	return s.db
}

// Now returns the current wall-clock time at the configured offset,
// expressed as a zone-less UTC value.
func (s *Store) Now() time.Time {
	return s.clock().UTC().Add(s.offset).Truncate(time.Second)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// inTx runs fn inside a transaction and commits when it returns nil.
func (s *Store) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", what, err)
	}
	return nil
}

// newObjectID returns a 24-character hex id.
func newObjectID() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
