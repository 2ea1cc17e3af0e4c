package store

import (
	"testing"

	"github.com/dispodojo/agentfinder/internal/property"
)

func openTestCache(t *testing.T, ttlDays int) *Cache {
	t.Helper()
	c, err := OpenCache(":memory:", ttlDays)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_PutThenGet(t *testing.T) {
	c := openTestCache(t, 7)
	info := property.AgentInfo{AgentName: "Jane Doe", Phone: "555-1234", Source: "redfin"}

	if err := c.Put("123 Main St", info, property.StatusFound); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("123 Main St")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.AgentName != "Jane Doe" || got.Phone != "555-1234" {
		t.Errorf("unexpected cached info: %+v", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := openTestCache(t, 7)
	_, ok, err := c.Get("never cached")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a cache miss")
	}
}

func TestCache_Expired(t *testing.T) {
	c := openTestCache(t, 0) // ttl of 0 days: expires immediately
	info := property.AgentInfo{AgentName: "Jane Doe"}
	if err := c.Put("123 Main St", info, property.StatusFound); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, ok, err := c.Get("123 Main St")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a zero-TTL entry to already be expired")
	}
}

func TestCache_PutClearsFailure(t *testing.T) {
	c := openTestCache(t, 7)
	if err := c.RecordFailure("123 Main St", []string{"redfin"}, "no agent found"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.RecordedFailures != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", stats.RecordedFailures)
	}

	if err := c.Put("123 Main St", property.AgentInfo{AgentName: "Jane Doe"}, property.StatusFound); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stats, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.RecordedFailures != 0 {
		t.Errorf("expected Put to clear the failure record, got %d remaining", stats.RecordedFailures)
	}
	if stats.CachedResults != 1 {
		t.Errorf("expected 1 cached result, got %d", stats.CachedResults)
	}
}

func TestCache_PendingAddresses(t *testing.T) {
	c := openTestCache(t, 7)
	if err := c.Put("123 Main St", property.AgentInfo{AgentName: "Jane Doe"}, property.StatusFound); err != nil {
		t.Fatalf("Put: %v", err)
	}

	pending, err := c.PendingAddresses([]string{"123 Main St", "456 Oak Ave"})
	if err != nil {
		t.Fatalf("PendingAddresses: %v", err)
	}
	if len(pending) != 1 || pending[0] != "456 Oak Ave" {
		t.Errorf("PendingAddresses = %v, want only 456 Oak Ave", pending)
	}
}

func TestOpenCache_AddsMissingColumnsToLegacyStore(t *testing.T) {
	path := t.TempDir() + "/legacy.db"

	legacySchema := `
CREATE TABLE results (
	address_hash TEXT PRIMARY KEY,
	raw_address TEXT NOT NULL,
	agent_name TEXT DEFAULT '',
	brokerage TEXT DEFAULT '',
	phone TEXT DEFAULT '',
	email TEXT DEFAULT '',
	source TEXT DEFAULT '',
	listing_url TEXT DEFAULT '',
	status TEXT DEFAULT 'found',
	scraped_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);`
	seed, err := OpenCache(path, 7)
	if err != nil {
		t.Fatalf("seed OpenCache: %v", err)
	}
	if _, err := seed.db.Exec(`DROP TABLE results`); err != nil {
		t.Fatalf("drop results: %v", err)
	}
	if _, err := seed.db.Exec(legacySchema); err != nil {
		t.Fatalf("create legacy results table: %v", err)
	}
	if err := seed.Close(); err != nil {
		t.Fatalf("close seed: %v", err)
	}

	c, err := OpenCache(path, 7)
	if err != nil {
		t.Fatalf("OpenCache against legacy store: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	info := property.AgentInfo{AgentName: "Jane Doe", Source: "redfin", ListDate: "2024-01-15", DaysOnMarket: "12"}
	if err := c.Put("123 Main St", info, property.StatusFound); err != nil {
		t.Fatalf("Put against migrated store: %v", err)
	}
	got, ok, err := c.Get("123 Main St")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.ListDate != "2024-01-15" || got.DaysOnMarket != "12" {
		t.Errorf("expected list_date/days_on_market to round-trip, got %+v", got)
	}

	// Reopening an already-migrated store must not error on the
	// duplicate-column ALTER TABLE attempts.
	c2, err := OpenCache(path, 7)
	if err != nil {
		t.Fatalf("re-open already-migrated store: %v", err)
	}
	c2.Close()
}

func TestCache_RecordFailure_IncrementsAttempts(t *testing.T) {
	c := openTestCache(t, 7)
	if err := c.RecordFailure("123 Main St", []string{"redfin"}, "first failure"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := c.RecordFailure("123 Main St", []string{"redfin", "zillow"}, "second failure"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.RecordedFailures != 1 {
		t.Errorf("expected a single failure row (updated in place), got %d", stats.RecordedFailures)
	}
}
