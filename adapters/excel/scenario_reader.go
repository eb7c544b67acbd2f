// Package excel loads scenario pathway tables from a workbook or CSV
// file, overriding the model's built-in defaults. Workbooks carry one
// sheet per scenario; CSV files carry a scenario column instead.
package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"socialcost/adapters/dice"
	"socialcost/domain/scc"

	"github.com/xuri/excelize/v2"
)

// Expected header for scenario rows: the year column is checked against
// the model grid by the builder, not here.
var expectedHeader = []string{"year", "pop_growth", "gdp_growth", "intensity_decline"}

// ScenarioReader reads scenario tables from .xlsx or .csv files.
type ScenarioReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewScenarioReader creates a reader, detecting the format from the
// extension.
func NewScenarioReader(filePath string) *ScenarioReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &ScenarioReader{filePath: filePath, fileType: fileType}
}

// ReadTables loads every scenario table present in the file. Unknown
// scenario names and malformed rows fail with context; absent scenarios
// simply keep their built-in defaults.
func (r *ScenarioReader) ReadTables() (map[scc.Scenario]dice.ScenarioTable, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario file not found: %s", r.filePath)
	}
	switch r.fileType {
	case "csv":
		return r.readCSVTables()
	case "xlsx":
		return r.readWorkbookTables()
	default:
		return nil, fmt.Errorf("unsupported scenario file type: %s", r.fileType)
	}
}

// readWorkbookTables reads one sheet per scenario.
func (r *ScenarioReader) readWorkbookTables() (map[scc.Scenario]dice.ScenarioTable, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario workbook: %w", err)
	}
	defer f.Close()

	tables := make(map[scc.Scenario]dice.ScenarioTable)
	for _, sheet := range f.GetSheetList() {
		scenario, err := scc.ParseScenario(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		table, err := parseRows(scenario, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		tables[scenario] = table
	}
	log.Printf("[ScenarioReader] loaded %d scenario tables from %s", len(tables), r.filePath)
	return tables, nil
}

// readCSVTables reads a single delimited file with a leading scenario
// column.
func (r *ScenarioReader) readCSVTables() (map[scc.Scenario]dice.ScenarioTable, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario CSV: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("scenario CSV must have a header row and at least one data row")
	}

	grouped := make(map[scc.Scenario][][]string)
	for i, row := range rows[1:] {
		if len(row) != len(expectedHeader)+1 {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+2, len(expectedHeader)+1, len(row))
		}
		scenario, err := scc.ParseScenario(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		grouped[scenario] = append(grouped[scenario], row[1:])
	}

	tables := make(map[scc.Scenario]dice.ScenarioTable, len(grouped))
	for scenario, dataRows := range grouped {
		withHeader := append([][]string{expectedHeader}, dataRows...)
		table, err := parseRows(scenario, withHeader)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario, err)
		}
		tables[scenario] = table
	}
	log.Printf("[ScenarioReader] loaded %d scenario tables from %s", len(tables), r.filePath)
	return tables, nil
}

// parseRows converts header+data string rows into a ScenarioTable.
func parseRows(scenario scc.Scenario, rows [][]string) (dice.ScenarioTable, error) {
	if len(rows) < 2 {
		return dice.ScenarioTable{}, fmt.Errorf("need a header row and at least one data row")
	}
	header := rows[0]
	if len(header) < len(expectedHeader) {
		return dice.ScenarioTable{}, fmt.Errorf("expected header %v, got %v", expectedHeader, header)
	}
	for i, want := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return dice.ScenarioTable{}, fmt.Errorf("expected header column %d to be %q, got %q", i+1, want, header[i])
		}
	}

	table := dice.ScenarioTable{Name: scenario}
	for i, row := range rows[1:] {
		if len(row) < len(expectedHeader) {
			return dice.ScenarioTable{}, fmt.Errorf("row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(row))
		}
		values := make([]float64, len(expectedHeader))
		for j := range expectedHeader {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
			if err != nil {
				return dice.ScenarioTable{}, fmt.Errorf("row %d column %q: %w", i+2, expectedHeader[j], err)
			}
			values[j] = v
		}
		// values[0] is the calendar year, kept for readability of the
		// source file; ordering is positional.
		table.PopGrowth = append(table.PopGrowth, values[1])
		table.GDPGrowth = append(table.GDPGrowth, values[2])
		table.IntensityDecline = append(table.IntensityDecline, values[3])
	}
	return table, nil
}
