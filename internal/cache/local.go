package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lebnicolas/cvelistV5/model"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// LocalCache is the durable client-side cache of previously fetched
// advisories, backed by an embedded SQLite database so it survives
// across sessions. It is a derived, disposable copy of the record
// store: it may be wiped and rebuilt at any time without data loss.
type LocalCache struct {
	conn *sql.DB
	path string
}

// OpenLocalCache opens (creating if needed) the cache database at path.
//
// The caller must Close() the cache when done.
func OpenLocalCache(path string) (*LocalCache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	c := &LocalCache{conn: conn, path: path}

	// WAL so reads stay concurrent with sync-run flushes
	if _, err := c.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := c.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := c.initSchema(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *LocalCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cves (
		cveId TEXT PRIMARY KEY,
		datePublished TEXT,
		state TEXT,
		payload TEXT NOT NULL,
		lastUpdated TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cves_datePublished ON cves(datePublished);
	CREATE INDEX IF NOT EXISTS idx_cves_state ON cves(state);
	`
	if _, err := c.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *LocalCache) Close() error {
	return c.conn.Close()
}

// Path returns the database file path.
func (c *LocalCache) Path() string {
	return c.path
}

// UpsertOne stores an advisory, fully replacing any prior entry for its
// id. Writes are last-write-wins, never partial merges.
func (c *LocalCache) UpsertOne(adv model.Advisory) error {
	raw, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("failed to encode advisory %s: %w", adv.ID, err)
	}
	_, err = c.conn.Exec(`
		INSERT OR REPLACE INTO cves (cveId, datePublished, state, payload, lastUpdated)
		VALUES (?, ?, ?, ?, ?)`,
		adv.ID, adv.DatePublished, adv.State, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert advisory %s: %w", adv.ID, err)
	}
	return nil
}

// UpsertMany stores a batch of advisories in one transaction.
func (c *LocalCache) UpsertMany(advisories []model.Advisory) error {
	if len(advisories) == 0 {
		return nil
	}

	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO cves (cveId, datePublished, state, payload, lastUpdated)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, adv := range advisories {
		raw, err := json.Marshal(adv)
		if err != nil {
			return fmt.Errorf("failed to encode advisory %s: %w", adv.ID, err)
		}
		if _, err := stmt.Exec(adv.ID, adv.DatePublished, adv.State, string(raw), now); err != nil {
			return fmt.Errorf("failed to upsert advisory %s: %w", adv.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache upsert: %w", err)
	}
	return nil
}

// Get returns the cached advisory for id, or (nil, nil) when absent.
func (c *LocalCache) Get(id string) (*model.Advisory, error) {
	var raw string
	err := c.conn.QueryRow(`SELECT payload FROM cves WHERE cveId = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read advisory %s: %w", id, err)
	}

	var adv model.Advisory
	if err := json.Unmarshal([]byte(raw), &adv); err != nil {
		return nil, fmt.Errorf("failed to decode advisory %s: %w", id, err)
	}
	return &adv, nil
}

// GetAll returns every cached advisory.
func (c *LocalCache) GetAll() ([]model.Advisory, error) {
	rows, err := c.conn.Query(`SELECT payload FROM cves`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	defer rows.Close()

	var advisories []model.Advisory
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		var adv model.Advisory
		if err := json.Unmarshal([]byte(raw), &adv); err != nil {
			return nil, fmt.Errorf("failed to decode cache row: %w", err)
		}
		advisories = append(advisories, adv)
	}
	return advisories, rows.Err()
}

// GetAllIDs returns every cached id.
func (c *LocalCache) GetAllIDs() ([]string, error) {
	rows, err := c.conn.Query(`SELECT cveId FROM cves`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cache id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MissingIDs returns candidateIDs minus the stored ids, preserving the
// candidate order.
func (c *LocalCache) MissingIDs(candidateIDs []string) ([]string, error) {
	stored, err := c.GetAllIDs()
	if err != nil {
		return nil, err
	}
	storedSet := make(map[string]bool, len(stored))
	for _, id := range stored {
		storedSet[id] = true
	}

	missing := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if !storedSet[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Count returns the number of cached advisories.
func (c *LocalCache) Count() (int, error) {
	var n int
	if err := c.conn.QueryRow(`SELECT COUNT(*) FROM cves`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache: %w", err)
	}
	return n, nil
}

// Clear drops all entries.
func (c *LocalCache) Clear() error {
	if _, err := c.conn.Exec(`DELETE FROM cves`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
