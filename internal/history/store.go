// Package history persists the iteration-snapshot list keyed by card.
// Loads are best-effort: a missing or corrupt history degrades to an
// empty list and never blocks card selection.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"cardforge/internal/pipeline"
)

// Store persists per-card histories. Exactly one backend is active:
// a SQL database (Postgres or local SQLite) or a JSON file directory.
type Store struct {
	dir string
	db  *sql.DB

	mu         sync.Mutex
	schemaOnce sync.Once
	schemaErr  error
}

// NewFile stores one JSON file per card under dir.
func NewFile(dir string) *Store {
	return &Store{dir: strings.TrimSpace(dir)}
}

// NewPostgres opens a Postgres-backed store via the pgx stdlib driver.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewSQLite opens a local SQLite-backed store.
func NewSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite", strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewFromEnv picks the backend: HISTORY_PG_DSN, then
// HISTORY_SQLITE_PATH, then the JSON file directory. A backend that
// fails to open falls through to the next.
func NewFromEnv(dir string) *Store {
	if dsn := strings.TrimSpace(os.Getenv("HISTORY_PG_DSN")); dsn != "" {
		if s, err := NewPostgres(dsn); err == nil {
			return s
		}
	}
	if path := strings.TrimSpace(os.Getenv("HISTORY_SQLITE_PATH")); path != "" {
		if s, err := NewSQLite(path); err == nil {
			return s
		}
	}
	return NewFile(dir)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS card_histories (
  card_key TEXT PRIMARY KEY,
  history TEXT NOT NULL,
  updated_at TIMESTAMP
)`)
	})
	return s.schemaErr
}

// Load returns the stored history for the card, or an empty list when
// nothing usable is stored.
func (s *Store) Load(ctx context.Context, cardKey string) []pipeline.Snapshot {
	cardKey = strings.TrimSpace(cardKey)
	if cardKey == "" {
		return nil
	}
	var raw []byte
	if s.db != nil {
		if err := s.ensureSchema(ctx); err != nil {
			return nil
		}
		row := s.db.QueryRowContext(ctx, `SELECT history FROM card_histories WHERE card_key = $1`, cardKey)
		if err := row.Scan(&raw); err != nil {
			return nil
		}
	} else {
		data, err := os.ReadFile(s.filePath(cardKey))
		if err != nil {
			return nil
		}
		raw = data
	}
	var snaps []pipeline.Snapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil
	}
	if len(snaps) > pipeline.MaxHistory {
		snaps = snaps[len(snaps)-pipeline.MaxHistory:]
	}
	return snaps
}

// Save replaces the stored history for the card.
func (s *Store) Save(ctx context.Context, cardKey string, snaps []pipeline.Snapshot) error {
	cardKey = strings.TrimSpace(cardKey)
	if cardKey == "" {
		return fmt.Errorf("history: card key is required")
	}
	if snaps == nil {
		snaps = []pipeline.Snapshot{}
	}
	raw, err := json.Marshal(snaps)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
INSERT INTO card_histories (card_key, history, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
ON CONFLICT (card_key) DO UPDATE SET history = EXCLUDED.history, updated_at = CURRENT_TIMESTAMP`,
			cardKey, string(raw))
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp := s.filePath(cardKey) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath(cardKey))
}

// Delete drops the stored history for the card.
func (s *Store) Delete(ctx context.Context, cardKey string) error {
	cardKey = strings.TrimSpace(cardKey)
	if cardKey == "" {
		return nil
	}
	if s.db != nil {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, `DELETE FROM card_histories WHERE card_key = $1`, cardKey)
		return err
	}
	err := os.Remove(s.filePath(cardKey))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var fileNameSanitizer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "..", "_")

func (s *Store) filePath(cardKey string) string {
	return filepath.Join(s.dir, fileNameSanitizer.Replace(cardKey)+".json")
}
