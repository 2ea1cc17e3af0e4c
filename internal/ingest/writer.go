package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dispodojo/agentfinder/internal/property"
)

var agentColumns = []string{
	"agent_name", "brokerage", "agent_phone", "agent_email", "data_source",
	"listing_url", "list_date", "days_on_market", "listing_price",
	"lookup_status", "confidence", "verified", "sources_matched",
}

// ExportZip writes a three-way CSV split (found_agents.csv,
// partial_agents.csv, not_found.csv) to outputZipPath, preserving every
// column of the original upload and appending the agent-result columns.
// Grounded on output_handler.py's export_results_zip.
func ExportZip(results []property.ScrapeResult, originalFilePath, outputZipPath string) (string, error) {
	original, err := readRawRows(originalFilePath)
	if err != nil {
		return "", err
	}

	agentRows := make(map[int][]string, len(results))
	statusByRow := make(map[int]string, len(results))
	for _, r := range results {
		agentRows[r.Property.RowIndex] = agentRowValues(r)
		statusByRow[r.Property.RowIndex] = string(r.Status)
	}

	header := append(append([]string{}, original.header...), agentColumns...)

	var foundRows, partialRows, notFoundRows [][]string
	for i, row := range original.rows {
		merged := append(append([]string{}, row...), blankAgentRow()...)
		if cols, ok := agentRows[i]; ok {
			copy(merged[len(row):], cols)
		}

		switch statusByRow[i] {
		case string(property.StatusFound), string(property.StatusCached):
			foundRows = append(foundRows, merged)
		case string(property.StatusPartial):
			partialRows = append(partialRows, merged)
		default:
			notFoundRows = append(notFoundRows, merged)
		}
	}

	output := outputZipPath
	if strings.ToLower(filepath.Ext(output)) != ".zip" {
		output += ".zip"
	}

	f, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("create result zip: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, rows := range map[string][][]string{
		"found_agents.csv":   foundRows,
		"partial_agents.csv": partialRows,
		"not_found.csv":      notFoundRows,
	} {
		if err := writeCSVEntry(zw, name, header, rows); err != nil {
			zw.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize result zip: %w", err)
	}
	return output, nil
}

func blankAgentRow() []string {
	return make([]string, len(agentColumns))
}

func agentRowValues(r property.ScrapeResult) []string {
	var info property.AgentInfo
	if r.AgentInfo != nil {
		info = *r.AgentInfo
	}
	verified := "No"
	if r.Verified {
		verified = "Yes"
	}
	return []string{
		info.AgentName,
		info.Brokerage,
		info.Phone,
		info.Email,
		info.Source,
		info.ListingURL,
		info.ListDate,
		info.DaysOnMarket,
		info.ListingPrice,
		string(r.Status),
		strconv.FormatFloat(r.Confidence, 'f', 2, 64),
		verified,
		strings.Join(r.SourcesMatched, ", "),
	}
}

func writeCSVEntry(zw *zip.Writer, name string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	entry, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = entry.Write(buf.Bytes())
	return err
}

// Summary mirrors generate_summary's returned dict.
type Summary struct {
	Total       int            `json:"total"`
	Found       int            `json:"found"`
	Partial     int            `json:"partial"`
	Cached      int            `json:"cached"`
	NotFound    int            `json:"not_found"`
	Errors      int            `json:"errors"`
	SuccessRate string         `json:"success_rate"`
	Sources     map[string]int `json:"sources"`
}

// GenerateSummary tallies results by status and by source (stripping any
// "+enriched"/"+retry" provenance suffix), matching output_handler.py's
// generate_summary.
func GenerateSummary(results []property.ScrapeResult) Summary {
	s := Summary{Sources: make(map[string]int)}
	s.Total = len(results)
	for _, r := range results {
		switch r.Status {
		case property.StatusFound:
			s.Found++
		case property.StatusPartial:
			s.Partial++
		case property.StatusCached:
			s.Cached++
		case property.StatusNotFound:
			s.NotFound++
		case property.StatusError:
			s.Errors++
		}
		if r.AgentInfo != nil && r.AgentInfo.Source != "" {
			src := strings.SplitN(r.AgentInfo.Source, "+", 2)[0]
			s.Sources[src]++
		}
	}
	if s.Total > 0 {
		rate := float64(s.Found+s.Partial+s.Cached) / float64(s.Total) * 100
		s.SuccessRate = strconv.FormatFloat(rate, 'f', 1, 64) + "%"
	} else {
		s.SuccessRate = "0%"
	}
	return s
}
