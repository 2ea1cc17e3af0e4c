package ingest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dispodojo/agentfinder/internal/property"
)

func TestExportZip_ThreeWaySplit(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(inputPath, []byte("address\n123 Main St\n456 Oak Ave\n789 Pine Rd\n"), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	results := []property.ScrapeResult{
		{
			Property: property.Property{RawAddress: "123 Main St", RowIndex: 0},
			AgentInfo: &property.AgentInfo{AgentName: "Jane Doe", Phone: "555-1234", Source: "redfin"},
			Status:    property.StatusFound,
		},
		{
			Property: property.Property{RawAddress: "456 Oak Ave", RowIndex: 1},
			AgentInfo: &property.AgentInfo{AgentName: "Bob Smith", Source: "zillow"},
			Status:    property.StatusPartial,
		},
		{
			Property: property.Property{RawAddress: "789 Pine Rd", RowIndex: 2},
			Status:   property.StatusNotFound,
		},
	}

	outPath := filepath.Join(dir, "results.zip")
	written, err := ExportZip(results, inputPath, outPath)
	if err != nil {
		t.Fatalf("ExportZip: %v", err)
	}

	zr, err := zip.OpenReader(written)
	if err != nil {
		t.Fatalf("opening result zip: %v", err)
	}
	defer zr.Close()

	wantEntries := map[string]bool{"found_agents.csv": false, "partial_agents.csv": false, "not_found.csv": false}
	for _, f := range zr.File {
		if _, ok := wantEntries[f.Name]; ok {
			wantEntries[f.Name] = true
		}
	}
	for name, found := range wantEntries {
		if !found {
			t.Errorf("expected zip entry %q", name)
		}
	}

	foundCSV := readZipEntry(t, zr, "found_agents.csv")
	if !strings.Contains(foundCSV, "Jane Doe") {
		t.Errorf("expected found_agents.csv to contain Jane Doe, got: %s", foundCSV)
	}
	partialCSV := readZipEntry(t, zr, "partial_agents.csv")
	if !strings.Contains(partialCSV, "Bob Smith") {
		t.Errorf("expected partial_agents.csv to contain Bob Smith, got: %s", partialCSV)
	}
	notFoundCSV := readZipEntry(t, zr, "not_found.csv")
	if !strings.Contains(notFoundCSV, "789 Pine Rd") {
		t.Errorf("expected not_found.csv to contain 789 Pine Rd, got: %s", notFoundCSV)
	}
}

func readZipEntry(t *testing.T, zr *zip.ReadCloser, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("entry %s not found in zip", name)
	return ""
}

func TestGenerateSummary_CountsAndSuccessRate(t *testing.T) {
	results := []property.ScrapeResult{
		{Status: property.StatusFound, AgentInfo: &property.AgentInfo{Source: "redfin+enriched"}},
		{Status: property.StatusPartial, AgentInfo: &property.AgentInfo{Source: "zillow"}},
		{Status: property.StatusNotFound},
		{Status: property.StatusNotFound},
	}
	summary := GenerateSummary(results)
	if summary.Total != 4 || summary.Found != 1 || summary.Partial != 1 || summary.NotFound != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Sources["redfin"] != 1 {
		t.Errorf("expected source provenance suffix stripped, got sources=%v", summary.Sources)
	}
	if summary.SuccessRate != "50.0%" {
		t.Errorf("SuccessRate = %q, want 50.0%%", summary.SuccessRate)
	}
}

func TestGenerateSummary_EmptyResults(t *testing.T) {
	summary := GenerateSummary(nil)
	if summary.SuccessRate != "0%" {
		t.Errorf("SuccessRate = %q, want 0%%", summary.SuccessRate)
	}
}
