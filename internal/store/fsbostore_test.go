package store

import (
	"testing"

	"github.com/dispodojo/agentfinder/internal/fsbomodel"
)

func openTestFSBOStore(t *testing.T) *FSBOStore {
	t.Helper()
	s, err := OpenFSBOStore(":memory:")
	if err != nil {
		t.Fatalf("OpenFSBOStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFSBOStore_SaveSearchAndListings(t *testing.T) {
	s := openTestFSBOStore(t)
	criteria := fsbomodel.FSBOSearchCriteria{Location: "Phoenix, AZ", LocationType: fsbomodel.LocationCityState}
	if err := s.SaveSearch("abc123", "AZ", "Phoenix", criteria); err != nil {
		t.Fatalf("SaveSearch: %v", err)
	}

	price := 350000
	listings := []fsbomodel.FSBOListing{
		{Address: "123 Main St", City: "Phoenix", State: "AZ", Price: &price, Source: "fsbo.com"},
	}
	if err := s.SaveListings("abc123", listings); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	if err := s.UpdateSearchComplete("abc123", len(listings)); err != nil {
		t.Fatalf("UpdateSearchComplete: %v", err)
	}

	searches, err := s.GetSearches()
	if err != nil {
		t.Fatalf("GetSearches: %v", err)
	}
	if len(searches) != 1 || searches[0].Status != "complete" || searches[0].TotalListings != 1 {
		t.Fatalf("unexpected search row: %+v", searches)
	}

	got, err := s.GetListings("abc123")
	if err != nil {
		t.Fatalf("GetListings: %v", err)
	}
	if len(got) != 1 || got[0].Address != "123 Main St" || got[0].Price == nil || *got[0].Price != 350000 {
		t.Fatalf("unexpected listings: %+v", got)
	}
}

func TestFSBOStore_SaveListings_EmptyIsNoop(t *testing.T) {
	s := openTestFSBOStore(t)
	if err := s.SaveListings("abc123", nil); err != nil {
		t.Fatalf("SaveListings(nil): %v", err)
	}
}

func TestFSBOStore_DeleteSearch(t *testing.T) {
	s := openTestFSBOStore(t)
	criteria := fsbomodel.FSBOSearchCriteria{Location: "85001", LocationType: fsbomodel.LocationZip}
	if err := s.SaveSearch("xyz789", "", "85001", criteria); err != nil {
		t.Fatalf("SaveSearch: %v", err)
	}
	if err := s.SaveListings("xyz789", []fsbomodel.FSBOListing{{Address: "1 A St"}}); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	if err := s.DeleteSearch("xyz789"); err != nil {
		t.Fatalf("DeleteSearch: %v", err)
	}

	searches, err := s.GetSearches()
	if err != nil {
		t.Fatalf("GetSearches: %v", err)
	}
	if len(searches) != 0 {
		t.Errorf("expected no searches after delete, got %d", len(searches))
	}
	listings, err := s.GetListings("xyz789")
	if err != nil {
		t.Fatalf("GetListings: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("expected no listings after delete, got %d", len(listings))
	}
}
