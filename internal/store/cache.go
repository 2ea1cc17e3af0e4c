// Package store holds the SQLite-backed persistence layers for Agent
// Finder: the scrape-result cache (this file, grounded on cache.py's
// ScrapeCache), the FSBO search store (fsbostore.go, grounded on
// fsbo_db.py), and an optional S3 export sink (objectstore.go).
//
// Where the teacher (antfly-go) has no SQL persistence layer of its own,
// the jmoiron/sqlx + mattn/go-sqlite3 pairing is grounded on
// jordigilh-kubernaut's test suite, which wraps a database/sql connection
// in *sqlx.DB the same way (sqlx.NewDb over an existing driver
// connection) for its integration tests.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dispodojo/agentfinder/internal/property"
)

const resultsSchema = `
CREATE TABLE IF NOT EXISTS results (
	address_hash TEXT PRIMARY KEY,
	raw_address TEXT NOT NULL,
	agent_name TEXT DEFAULT '',
	brokerage TEXT DEFAULT '',
	phone TEXT DEFAULT '',
	email TEXT DEFAULT '',
	source TEXT DEFAULT '',
	listing_url TEXT DEFAULT '',
	list_date TEXT DEFAULT '',
	days_on_market TEXT DEFAULT '',
	status TEXT DEFAULT 'found',
	scraped_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_address ON results(raw_address);

CREATE TABLE IF NOT EXISTS failures (
	address_hash TEXT PRIMARY KEY,
	raw_address TEXT NOT NULL,
	sources_tried TEXT DEFAULT '[]',
	error TEXT DEFAULT '',
	attempts INTEGER DEFAULT 1,
	last_attempt TEXT NOT NULL
);
`

// Cache is the SQLite-backed scrape-result cache. It makes batch runs
// resumable: an address already cached and unexpired is never re-scraped.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
}

// resultRow mirrors the results table via sqlx struct-scan tags.
type resultRow struct {
	AddressHash  string `db:"address_hash"`
	RawAddress   string `db:"raw_address"`
	AgentName    string `db:"agent_name"`
	Brokerage    string `db:"brokerage"`
	Phone        string `db:"phone"`
	Email        string `db:"email"`
	Source       string `db:"source"`
	ListingURL   string `db:"listing_url"`
	ListDate     string `db:"list_date"`
	DaysOnMarket string `db:"days_on_market"`
	Status       string `db:"status"`
	ScrapedAt    string `db:"scraped_at"`
	ExpiresAt    string `db:"expires_at"`
}

// OpenCache opens (creating if necessary) the SQLite database at path and
// ensures the results/failures tables exist.
func OpenCache(path string, ttlDays int) (*Cache, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	addLegacyColumns(db)
	return &Cache{db: db, ttl: time.Duration(ttlDays) * 24 * time.Hour}, nil
}

// addLegacyColumns patches a results table created before list_date and
// days_on_market existed, mirroring cache.py's best-effort
// "ALTER TABLE results ADD COLUMN ..." migration. CREATE TABLE IF NOT
// EXISTS is a no-op against an already-existing table, so without this a
// legacy store would never gain these columns. Each statement is
// best-effort: a "duplicate column name" error just means the column is
// already there.
func addLegacyColumns(db *sqlx.DB) {
	stmts := []string{
		`ALTER TABLE results ADD COLUMN list_date TEXT DEFAULT ''`,
		`ALTER TABLE results ADD COLUMN days_on_market TEXT DEFAULT ''`,
	}
	for _, stmt := range stmts {
		// Ignore the error: "duplicate column name" means a prior open
		// already added it, which is the common case.
		_, _ = db.Exec(stmt)
	}
}

// Close releases the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// hashAddress reproduces cache.py's ScrapeCache._hash exactly: uppercase,
// trim, then sha256-hex.
func hashAddress(address string) string {
	normalized := strings.TrimSpace(strings.ToUpper(address))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached AgentInfo for address if present and unexpired.
func (c *Cache) Get(address string) (*property.AgentInfo, bool, error) {
	var row resultRow
	err := c.db.Get(&row,
		`SELECT * FROM results WHERE address_hash = ? AND expires_at > ?`,
		hashAddress(address), time.Now().UTC().Format(time.RFC3339),
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return &property.AgentInfo{
		AgentName:    row.AgentName,
		Brokerage:    row.Brokerage,
		Phone:        row.Phone,
		Email:        row.Email,
		Source:       row.Source,
		ListingURL:   row.ListingURL,
		ListDate:     row.ListDate,
		DaysOnMarket: row.DaysOnMarket,
	}, true, nil
}

// Put stores a successful scrape result and clears any failure record for
// the same address.
func (c *Cache) Put(address string, info property.AgentInfo, status property.LookupStatus) error {
	now := time.Now().UTC()
	expires := now.Add(c.ttl)
	hash := hashAddress(address)

	tx, err := c.db.Beginx()
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO results
		(address_hash, raw_address, agent_name, brokerage, phone, email,
		 source, listing_url, list_date, days_on_market, status, scraped_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hash, address, info.AgentName, info.Brokerage, info.Phone, info.Email,
		info.Source, info.ListingURL, info.ListDate, info.DaysOnMarket,
		string(status), now.Format(time.RFC3339), expires.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM failures WHERE address_hash = ?`, hash); err != nil {
		return fmt.Errorf("cache put: clear failure: %w", err)
	}
	return tx.Commit()
}

// RecordFailure records (or increments the attempt count of) a failed
// lookup for address.
func (c *Cache) RecordFailure(address string, sourcesTried []string, errMsg string) error {
	hash := hashAddress(address)
	now := time.Now().UTC().Format(time.RFC3339)
	triedJSON, err := json.Marshal(sourcesTried)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	var attempts int
	err = c.db.Get(&attempts, `SELECT attempts FROM failures WHERE address_hash = ?`, hash)
	switch {
	case err == sql.ErrNoRows:
		_, err = c.db.Exec(`
			INSERT INTO failures (address_hash, raw_address, sources_tried, error, attempts, last_attempt)
			VALUES (?, ?, ?, ?, 1, ?)`,
			hash, address, string(triedJSON), errMsg, now)
	case err == nil:
		_, err = c.db.Exec(`
			UPDATE failures SET sources_tried = ?, error = ?, attempts = attempts + 1, last_attempt = ?
			WHERE address_hash = ?`,
			string(triedJSON), errMsg, now, hash)
	}
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// PendingAddresses filters allAddresses down to those not yet cached
// unexpired, for resuming an interrupted batch run.
func (c *Cache) PendingAddresses(allAddresses []string) ([]string, error) {
	var hashes []string
	err := c.db.Select(&hashes,
		`SELECT address_hash FROM results WHERE expires_at > ?`,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("pending addresses: %w", err)
	}
	cached := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		cached[h] = struct{}{}
	}
	pending := make([]string, 0, len(allAddresses))
	for _, a := range allAddresses {
		if _, ok := cached[hashAddress(a)]; !ok {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// Stats reports the number of cached results and recorded failures.
type Stats struct {
	CachedResults   int `json:"cached_results"`
	RecordedFailures int `json:"recorded_failures"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	if err := c.db.Get(&s.CachedResults,
		`SELECT COUNT(*) FROM results WHERE expires_at > ?`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return s, fmt.Errorf("cache stats: %w", err)
	}
	if err := c.db.Get(&s.RecordedFailures, `SELECT COUNT(*) FROM failures`); err != nil {
		return s, fmt.Errorf("cache stats: %w", err)
	}
	return s, nil
}
