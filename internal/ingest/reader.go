// Package ingest reads uploaded address spreadsheets into
// property.Property rows and writes resolved results back out as a
// three-way CSV split inside a ZIP archive. Grounded on input_handler.py
// and output_handler.py.
//
// Only CSV is implemented. input_handler.py reads .xlsx/.xls via pandas
// + openpyxl, but no spreadsheet-parsing library (openpyxl/xlsx-style)
// appears anywhere in the retrieved corpus — see DESIGN.md. Excel
// uploads are rejected with a clear error rather than silently
// mishandled.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dispodojo/agentfinder/internal/property"
)

// addressColumns mirrors input_handler.py's ADDRESS_COLUMNS: ordered
// candidate header names tried case-insensitively for each field.
var addressColumns = map[string][]string{
	"address": {"address", "street_address", "street", "addr", "property_address",
		"address_line", "address_line_1", "address1", "property address", "street address"},
	"city":  {"city", "town", "municipality"},
	"state": {"state", "st", "state_code", "province"},
	"zip":   {"zip", "zipcode", "zip_code", "postal_code", "postal"},
}

// SupportedExt reports whether ext (as returned by filepath.Ext,
// lowercased) can be read by ReadInput.
func SupportedExt(ext string) bool {
	return strings.ToLower(ext) == ".csv"
}

// ReadInput reads a CSV file and returns one Property per row with a
// non-empty address, detecting address/city/state/zip columns by name
// and falling back to comma-split parsing of a single combined address
// column. Grounded on input_handler.py's read_input.
func ReadInput(filePath string) ([]property.Property, error) {
	header, rows, err := readCSV(filePath)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	addrIdx := findColumn(header, addressColumns["address"])
	cityIdx := findColumn(header, addressColumns["city"])
	stateIdx := findColumn(header, addressColumns["state"])
	zipIdx := findColumn(header, addressColumns["zip"])
	if addrIdx < 0 {
		addrIdx = 0
	}

	var properties []property.Property
	for rowIdx, row := range rows {
		p := buildProperty(row, addrIdx, cityIdx, stateIdx, zipIdx)
		p.RowIndex = rowIdx
		if p.RawAddress != "" && strings.ToLower(p.RawAddress) != "nan" {
			properties = append(properties, p)
		}
	}
	return properties, nil
}

func findColumn(header []string, candidates []string) int {
	lower := make(map[string]int, len(header))
	for i, h := range header {
		lower[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range candidates {
		if idx, ok := lower[strings.ToLower(c)]; ok {
			return idx
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// buildProperty mirrors _normalize_address_components: prefer explicit
// city/state/zip columns, and otherwise attempt a comma-split parse of
// the combined address column.
func buildProperty(row []string, addrIdx, cityIdx, stateIdx, zipIdx int) property.Property {
	raw := cellAt(row, addrIdx)
	city := cellAt(row, cityIdx)
	state := cellAt(row, stateIdx)
	zip := cellAt(row, zipIdx)

	addressLine := raw
	if city == "" && state == "" {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case len(parts) >= 3:
			addressLine = parts[0]
			city = parts[1]
			stateZip := strings.Fields(parts[2])
			if len(stateZip) > 0 {
				state = stateZip[0]
			}
			if len(stateZip) > 1 {
				zip = stateZip[1]
			}
		case len(parts) == 2:
			addressLine = parts[0]
			stateZip := strings.Fields(parts[1])
			if len(stateZip) > 0 {
				cityOrState := stateZip[0]
				if len(cityOrState) == 2 {
					state = cityOrState
				} else {
					city = cityOrState
				}
			}
			if len(stateZip) > 1 {
				last := stateZip[len(stateZip)-1]
				if isDigits(last) && len(last) == 5 {
					zip = last
				} else if len(last) == 2 {
					state = last
				}
			}
		}
	}

	return property.Property{
		RawAddress:  raw,
		AddressLine: strings.ToUpper(strings.TrimSpace(addressLine)),
		City:        strings.ToUpper(strings.TrimSpace(city)),
		State:       strings.ToUpper(strings.TrimSpace(state)),
		ZipCode:     strings.TrimSpace(zip),
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// ValidationSummary mirrors validate_input's return shape.
type ValidationSummary struct {
	TotalRows int      `json:"total_rows"`
	WithCity  int      `json:"with_city"`
	WithState int      `json:"with_state"`
	WithZip   int      `json:"with_zip"`
	Sample    []string `json:"sample"`
}

// ValidateInput reads filePath and summarizes its parsed contents
// without exposing the full Property list.
func ValidateInput(filePath string) (ValidationSummary, error) {
	properties, err := ReadInput(filePath)
	if err != nil {
		return ValidationSummary{}, err
	}
	var s ValidationSummary
	s.TotalRows = len(properties)
	for _, p := range properties {
		if p.City != "" {
			s.WithCity++
		}
		if p.State != "" {
			s.WithState++
		}
		if p.ZipCode != "" {
			s.WithZip++
		}
	}
	for i, p := range properties {
		if i >= 5 {
			break
		}
		s.Sample = append(s.Sample, p.SearchQuery())
	}
	return s, nil
}

// rawRows is the original file's header + data rows, kept intact so
// ExportZip can append agent columns without disturbing the rest.
type rawRows struct {
	header []string
	rows   [][]string
}

func readRawRows(filePath string) (rawRows, error) {
	header, rows, err := readCSV(filePath)
	return rawRows{header: header, rows: rows}, err
}

func readCSV(filePath string) ([]string, [][]string, error) {
	if !SupportedExt(filepath.Ext(filePath)) {
		return nil, nil, fmt.Errorf("unsupported file format: %s (only .csv is supported)", filepath.Ext(filePath))
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("input file not found: %s", filePath)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("input file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading row: %w", err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
