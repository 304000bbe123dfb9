// Package history persists recent search queries per travel domain.
//
// The store is advisory: it feeds suggestions and deduplication, never
// correctness. Writes are short append-and-trim transactions, safe to
// issue from multiple concurrent search slots; last writer wins.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/log"
)

// DefaultCap is how many distinct entries are kept per domain.
const DefaultCap = 5

// Entry is one remembered search.
type Entry struct {
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store is a bounded, durable, most-recent-first history of search
// queries, keyed by travel domain.
type Store struct {
	db     *sql.DB
	cap    int
	logger *log.Logger
}

// NewStore opens (or creates) the history database at path. A corrupt
// or unreadable database is discarded and recreated empty rather than
// failing: history is never worth blocking a search over.
func NewStore(path string, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	logger := log.ForService("history")

	db, err := openAndInit(path)
	if err != nil {
		logger.Warnf("history database unusable, starting empty: %v", err)
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, fmt.Errorf("removing corrupt history database: %w", removeErr)
		}
		db, err = openAndInit(path)
		if err != nil {
			return nil, fmt.Errorf("recreating history database: %w", err)
		}
	}

	return &Store{db: db, cap: capacity, logger: logger}, nil
}

func openAndInit(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS search_history (
			domain TEXT NOT NULL,
			query TEXT NOT NULL,
			recorded_at INTEGER NOT NULL,
			PRIMARY KEY (domain, query)
		)`
	if _, err := db.Exec(schema); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	// A quick integrity read so corruption surfaces here, not on the
	// first user-facing query.
	if _, err := db.Exec("SELECT count(*) FROM search_history"); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("verifying schema: %w", err)
	}

	return db, nil
}

// Record remembers text as the most recent search for domain. The text
// is trimmed; empty strings are ignored. A prior duplicate moves to the
// front instead of repeating, and the list is trimmed to the cap.
func (s *Store) Record(domain core.Domain, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				s.logger.Warnf("failed to rollback history transaction: %v", err)
			}
		}
	}()

	now := time.Now().UnixNano()
	_, err = tx.Exec(`
		INSERT INTO search_history (domain, query, recorded_at)
		VALUES (?, ?, ?)
		ON CONFLICT (domain, query) DO UPDATE SET recorded_at = excluded.recorded_at`,
		string(domain), trimmed, now)
	if err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM search_history
		WHERE domain = ? AND query NOT IN (
			SELECT query FROM search_history
			WHERE domain = ?
			ORDER BY recorded_at DESC
			LIMIT ?
		)`, string(domain), string(domain), s.cap)
	if err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history transaction: %w", err)
	}
	committed = true

	return nil
}

// List returns the remembered searches for domain, most recent first.
func (s *Store) List(domain core.Domain) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT query, recorded_at FROM search_history
		WHERE domain = ?
		ORDER BY recorded_at DESC`, string(domain))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("failed to close history rows: %v", err)
		}
	}()

	var entries []Entry
	for rows.Next() {
		var text string
		var recordedAt int64
		if err := rows.Scan(&text, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, Entry{Text: text, RecordedAt: time.Unix(0, recordedAt)})
	}
	return entries, rows.Err()
}

// Clear forgets all remembered searches for domain.
func (s *Store) Clear(domain core.Domain) error {
	if _, err := s.db.Exec("DELETE FROM search_history WHERE domain = ?", string(domain)); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		fmt.Printf("Warning: failed to close database: %v\n", err)
	}
}

