package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codescope/codescope/internal/callgraph"
)

const createGraphsTable = `
CREATE TABLE IF NOT EXISTS graphs (
	key        TEXT PRIMARY KEY,
	revision   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	payload    BLOB NOT NULL
)`

// Store persists built graphs to SQLite so repeated builds of the same
// revision survive process restarts. The database lives at
// .codescope/cache.db under the repository root.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// OpenStore opens (creating if needed) the persistent graph store for a
// repository root. maxEntries bounds how many graphs are retained; the
// oldest entries are pruned past the limit.
func OpenStore(rootDir string, maxEntries int) (*Store, error) {
	dir := filepath.Join(rootDir, ".codescope")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(createGraphsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create graphs table: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored graph for a build key, if present.
func (s *Store) Get(key string) (*callgraph.CallGraph, bool, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM graphs WHERE key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached graph: %w", err)
	}

	var g callgraph.CallGraph
	if err := json.Unmarshal(payload, &g); err != nil {
		// A corrupt row is treated as a miss and removed.
		s.db.Exec("DELETE FROM graphs WHERE key = ?", key)
		return nil, false, nil
	}
	return &g, true, nil
}

// Put stores a built graph under its build key, replacing any prior entry,
// then prunes the oldest entries past the retention limit.
func (s *Store) Put(key, revision string, g *callgraph.CallGraph) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO graphs (key, revision, created_at, payload) VALUES (?, ?, ?, ?)",
		key, revision, time.Now().UTC(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to write cached graph: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = tx.Exec(`
			DELETE FROM graphs WHERE key NOT IN (
				SELECT key FROM graphs ORDER BY created_at DESC LIMIT ?
			)`, s.maxEntries)
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}
	return nil
}

// Len returns the number of stored graphs.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM graphs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached graphs: %w", err)
	}
	return n, nil
}
