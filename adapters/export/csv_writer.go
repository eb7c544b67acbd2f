// Package export writes Monte Carlo result tables as delimited files:
// one table per discount spec plus a summary table.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"socialcost/domain/montecarlo"
	"socialcost/internal/errors"
)

// CSVWriter implements ports.BatchExporter over encoding/csv.
type CSVWriter struct{}

// NewCSVWriter returns the delimited-file exporter.
func NewCSVWriter() CSVWriter { return CSVWriter{} }

// WriteTables writes scc_<scenario>_<rate>.csv per discount spec (rows =
// successful trials, in trial order) and summary.csv, creating dir if
// needed.
func (CSVWriter) WriteTables(dir string, batch *montecarlo.Batch) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithCode(errors.CodeExport, err)
	}

	for _, spec := range batch.Discounts {
		label := spec.Label()
		path := filepath.Join(dir, fmt.Sprintf("scc_%s_%s.csv", batch.Scenario.Slug(), label))
		if err := writeTable(path, batch, label); err != nil {
			return errors.Wrapf(err, "writing result table for discount %s", label)
		}
	}
	return writeSummary(filepath.Join(dir, "summary.csv"), batch)
}

func writeTable(path string, batch *montecarlo.Batch, label string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{"trial"}, batch.ParamNames...)
	header = append(header, "scc")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range batch.Trials {
		if t.Failed {
			continue
		}
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(t.Index))
		for _, name := range batch.ParamNames {
			row = append(row, formatFloat(t.Overrides[name]))
		}
		row = append(row, formatFloat(t.SCC[label]))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeSummary(path string, batch *montecarlo.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithCode(errors.CodeExport, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"discount", "count", "mean", "std_dev", "p5", "p25", "median", "p75", "p95"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, spec := range batch.Discounts {
		s := batch.Summaries[spec.Label()]
		row := []string{
			spec.Label(),
			strconv.Itoa(s.Count),
			formatFloat(s.Mean),
			formatFloat(s.StdDev),
			formatFloat(s.P5),
			formatFloat(s.P25),
			formatFloat(s.Median),
			formatFloat(s.P75),
			formatFloat(s.P95),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
