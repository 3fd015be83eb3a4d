package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements Writer by saving a workbook to a local file.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter that overwrites path on every Write.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Write(_ context.Context, rows []RateRow) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", w.path, err)
	}
	if err := WriteXLSX(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteXLSX encodes rows as a workbook with a single RATES sheet.
func WriteXLSX(out io.Writer, rows []RateRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ratesSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, row := range buildRatesSheet(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ratesSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9EAD3"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(ratesSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(ratesSheet, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(ratesSheet, "E", "E", 22); err != nil {
		return err
	}
	if err := f.SetPanes(ratesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Exchange rates",
		Created: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return nil
}
