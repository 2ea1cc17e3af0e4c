package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dispodojo/agentfinder/internal/fsbomodel"
)

const fsboSchema = `
CREATE TABLE IF NOT EXISTS fsbo_searches (
	search_id TEXT PRIMARY KEY,
	state TEXT,
	city_zip TEXT,
	location TEXT,
	location_type TEXT,
	created_at TEXT NOT NULL,
	status TEXT DEFAULT 'running',
	total_listings INTEGER DEFAULT 0,
	criteria_json TEXT
);

CREATE TABLE IF NOT EXISTS fsbo_listings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	search_id TEXT NOT NULL,
	address TEXT,
	city TEXT,
	state TEXT,
	zip_code TEXT,
	price INTEGER,
	beds INTEGER,
	baths REAL,
	days_on_market INTEGER,
	phone TEXT,
	email TEXT,
	owner_name TEXT,
	listing_url TEXT,
	source TEXT,
	contact_status TEXT
);
CREATE INDEX IF NOT EXISTS idx_listings_search_id ON fsbo_listings(search_id);
`

// FSBOStore is the SQLite-backed store for FSBO search runs and their
// discovered listings, grounded on fsbo_db.py's schema and query shapes.
type FSBOStore struct {
	db *sqlx.DB
}

// OpenFSBOStore opens (creating if necessary) the SQLite database at path
// and ensures the fsbo_searches/fsbo_listings tables exist.
func OpenFSBOStore(path string) (*FSBOStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open fsbo store: %w", err)
	}
	if _, err := db.Exec(fsboSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate fsbo store: %w", err)
	}
	return &FSBOStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *FSBOStore) Close() error { return s.db.Close() }

// SaveSearch records a newly started FSBO search.
func (s *FSBOStore) SaveSearch(searchID, state, cityZip string, criteria fsbomodel.FSBOSearchCriteria) error {
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO fsbo_searches (search_id, state, city_zip, location, location_type, created_at, status, criteria_json)
		VALUES (?, ?, ?, ?, ?, ?, 'running', ?)`,
		searchID, state, cityZip, criteria.Location, string(criteria.LocationType),
		time.Now().UTC().Format(time.RFC3339), string(criteriaJSON),
	)
	if err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}

// UpdateSearchComplete marks a search finished with its final listing count.
func (s *FSBOStore) UpdateSearchComplete(searchID string, totalListings int) error {
	_, err := s.db.Exec(
		`UPDATE fsbo_searches SET status = 'complete', total_listings = ? WHERE search_id = ?`,
		totalListings, searchID,
	)
	if err != nil {
		return fmt.Errorf("update search complete: %w", err)
	}
	return nil
}

// listingRow mirrors the fsbo_listings table via sqlx struct-scan tags.
type listingRow struct {
	ID            int64    `db:"id"`
	SearchID      string   `db:"search_id"`
	Address       string   `db:"address"`
	City          string   `db:"city"`
	State         string   `db:"state"`
	ZipCode       string   `db:"zip_code"`
	Price         *int     `db:"price"`
	Beds          *int     `db:"beds"`
	Baths         *float64 `db:"baths"`
	DaysOnMarket  *int     `db:"days_on_market"`
	Phone         string   `db:"phone"`
	Email         string   `db:"email"`
	OwnerName     string   `db:"owner_name"`
	ListingURL    string   `db:"listing_url"`
	Source        string   `db:"source"`
	ContactStatus string   `db:"contact_status"`
}

// SaveListings bulk-inserts listings for a search, mirroring fsbo_db.py's
// executemany batching in a single transaction.
func (s *FSBOStore) SaveListings(searchID string, listings []fsbomodel.FSBOListing) error {
	if len(listings) == 0 {
		return nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("save listings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`
		INSERT INTO fsbo_listings
		(search_id, address, city, state, zip_code, price, beds, baths,
		 days_on_market, phone, email, owner_name, listing_url, source, contact_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save listings: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		_, err := stmt.Exec(
			searchID, l.Address, l.City, l.State, l.ZipCode, l.Price, l.Beds, l.Baths,
			l.DaysOnMarket, l.Phone, l.Email, l.OwnerName, l.ListingURL, l.Source, string(l.ContactStatus),
		)
		if err != nil {
			return fmt.Errorf("save listings: %w", err)
		}
	}
	return tx.Commit()
}

// Search is one row of fsbo_searches.
type Search struct {
	SearchID      string `db:"search_id"`
	State         string `db:"state"`
	CityZip       string `db:"city_zip"`
	Location      string `db:"location"`
	LocationType  string `db:"location_type"`
	CreatedAt     string `db:"created_at"`
	Status        string `db:"status"`
	TotalListings int    `db:"total_listings"`
	CriteriaJSON  string `db:"criteria_json"`
}

// GetSearches returns all recorded searches, most recent first.
func (s *FSBOStore) GetSearches() ([]Search, error) {
	var rows []Search
	err := s.db.Select(&rows, `SELECT * FROM fsbo_searches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("get searches: %w", err)
	}
	return rows, nil
}

// GetListings returns every listing recorded for a search.
func (s *FSBOStore) GetListings(searchID string) ([]fsbomodel.FSBOListing, error) {
	var rows []listingRow
	err := s.db.Select(&rows, `SELECT * FROM fsbo_listings WHERE search_id = ?`, searchID)
	if err != nil {
		return nil, fmt.Errorf("get listings: %w", err)
	}
	listings := make([]fsbomodel.FSBOListing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, fsbomodel.FSBOListing{
			Address: r.Address, City: r.City, State: r.State, ZipCode: r.ZipCode,
			Price: r.Price, Beds: r.Beds, Baths: r.Baths, DaysOnMarket: r.DaysOnMarket,
			Phone: r.Phone, Email: r.Email, OwnerName: r.OwnerName,
			ListingURL: r.ListingURL, Source: r.Source,
			ContactStatus: fsbomodel.ContactStatus(r.ContactStatus),
		})
	}
	return listings, nil
}

// DeleteSearch removes a search and its listings. No foreign-key cascade
// is declared (matching fsbo_db.py), so both deletes run explicitly.
func (s *FSBOStore) DeleteSearch(searchID string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fsbo_listings WHERE search_id = ?`, searchID); err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM fsbo_searches WHERE search_id = ?`, searchID); err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	return tx.Commit()
}
