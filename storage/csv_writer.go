package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"rental-analyzer/models"
)

// CSVWriter renders computed scenarios into a review spreadsheet.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"address", "estimate_kind", "monthly_rent",
		"down_payment", "closing_cost", "immediate_repairs", "furnishing_cost", "upfront_cost",
		"monthly_mortgage", "monthly_utilities", "monthly_capex", "monthly_maintenance",
		"monthly_taxes", "monthly_management", "monthly_expenses",
		"monthly_cash_flow", "payback_months",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteScenarios appends one row per scenario.
func (c *CSVWriter) WriteScenarios(scenarios []*models.Scenario) error {
	for _, s := range scenarios {
		row := []string{
			s.Address,
			string(s.Kind),
			dollars(s.MonthlyRent),
			dollars(s.DownPayment),
			dollars(s.ClosingCost),
			dollars(s.ImmediateRepairs),
			dollars(s.FurnishingCost),
			dollars(s.UpfrontCost),
			dollars(s.MonthlyMortgage),
			dollars(s.MonthlyUtilities),
			dollars(s.MonthlyCapex),
			dollars(s.MonthlyMaintenance),
			dollars(s.MonthlyTaxes),
			dollars(s.MonthlyManagement),
			dollars(s.MonthlyExpenses),
			dollars(s.MonthlyCashFlow),
			strconv.FormatFloat(s.PaybackMonths, 'f', 1, 64),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func dollars(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
