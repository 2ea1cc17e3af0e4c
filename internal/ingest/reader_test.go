package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp csv: %v", err)
	}
	return path
}

func TestSupportedExt(t *testing.T) {
	if !SupportedExt(".csv") || !SupportedExt(".CSV") {
		t.Error("expected .csv and .CSV to be supported")
	}
	if SupportedExt(".xlsx") {
		t.Error("expected .xlsx to be unsupported: no spreadsheet library in the corpus")
	}
}

func TestReadInput_NamedColumns(t *testing.T) {
	path := writeTempCSV(t, "in.csv", "address,city,state,zip\n123 Main St,Springfield,IL,62704\n")
	properties, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if len(properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(properties))
	}
	p := properties[0]
	if p.City != "SPRINGFIELD" || p.State != "IL" || p.ZipCode != "62704" {
		t.Errorf("unexpected parsed property: %+v", p)
	}
}

func TestReadInput_CombinedAddressColumn(t *testing.T) {
	path := writeTempCSV(t, "in.csv", "address\n\"123 Main St, Springfield, IL 62704\"\n")
	properties, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if len(properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(properties))
	}
	p := properties[0]
	if p.City != "SPRINGFIELD" {
		t.Errorf("expected city parsed from combined column, got %+v", p)
	}
	if p.State != "IL" || p.ZipCode != "62704" {
		t.Errorf("expected state/zip parsed from combined column, got %+v", p)
	}
}

func TestReadInput_SkipsBlankAndNaNAddresses(t *testing.T) {
	path := writeTempCSV(t, "in.csv", "address\n123 Main St\n\nnan\n")
	properties, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if len(properties) != 1 {
		t.Fatalf("expected blank/nan rows to be skipped, got %d properties", len(properties))
	}
}

func TestReadInput_EmptyFileErrors(t *testing.T) {
	path := writeTempCSV(t, "in.csv", "address\n")
	if _, err := ReadInput(path); err == nil {
		t.Error("expected an error for a header-only file")
	}
}

func TestReadInput_RejectsNonCSV(t *testing.T) {
	path := writeTempCSV(t, "in.xlsx", "address\n123 Main St\n")
	if _, err := ReadInput(path); err == nil {
		t.Error("expected an error for a non-csv extension")
	}
}

func TestValidateInput_Summary(t *testing.T) {
	path := writeTempCSV(t, "in.csv", "address,city,state,zip\n123 Main St,Springfield,IL,62704\n456 Oak Ave,,,\n")
	summary, err := ValidateInput(path)
	if err != nil {
		t.Fatalf("ValidateInput: %v", err)
	}
	if summary.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", summary.TotalRows)
	}
	if summary.WithCity != 1 || summary.WithState != 1 || summary.WithZip != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
