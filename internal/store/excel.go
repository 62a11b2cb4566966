// internal/store/excel.go
package store

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/leadscape/leadminer/pkg/types"
)

// ExcelSink writes the lead batch to an .xlsx workbook, one lead per row.
type ExcelSink struct {
	path  string
	sheet string
}

// NewExcelSink creates an Excel sink at path. Sheet defaults to "Leads".
func NewExcelSink(path, sheet string) (*ExcelSink, error) {
	if path == "" {
		return nil, fmt.Errorf("Excel output path is required")
	}
	if sheet == "" {
		sheet = "Leads"
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &ExcelSink{path: path, sheet: sheet}, nil
}

func (s *ExcelSink) Name() string { return "excel:" + s.path }

// Export writes a header row plus one row per lead and saves the file.
func (s *ExcelSink) Export(ctx context.Context, leads []types.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(s.sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if s.sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	for col, header := range leadColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(s.sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, lead := range leads {
		for col, value := range leadRow(lead) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(s.sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (s *ExcelSink) Close() error { return nil }
