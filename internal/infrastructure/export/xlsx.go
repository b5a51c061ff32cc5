package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/allerlens/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbooks produced here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var scanHeaders = []string{"id", "timestamp", "ingredients", "warnings", "extracted_text"}

// scansWorkbook lays out one row per scan under a header row.
func scansWorkbook(scans []*domain.ScanResult) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	set := func(col, row int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if text, ok := value.(string); ok {
			value = fitCell(text)
		}
		return f.SetCellValue(sheet, cell, value)
	}

	for i, h := range scanHeaders {
		if err := set(i+1, 1, h); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, scan := range scans {
		row := []any{
			scan.ID,
			scan.Time().UTC().Format(time.RFC3339),
			strings.Join(scan.Ingredients, "; "),
			strings.Join(scan.Warnings, "; "),
			scan.ExtractedText,
		}
		for col, value := range row {
			if err := set(col+1, i+2, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("scan %s: %w", scan.ID, err)
			}
		}
	}

	return f, nil
}

// fitCell cuts text to the number of characters a cell can hold. Long PDF
// text layers can exceed it.
func fitCell(text string) string {
	if utf8.RuneCountInString(text) <= excelize.TotalCellChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:excelize.TotalCellChars])
}

// WriteScansXLSX saves scans as a workbook at outputPath, creating parent
// directories as needed.
func WriteScansXLSX(scans []*domain.ScanResult, outputPath string) error {
	f, err := scansWorkbook(scans)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// WriteScans streams the workbook to w.
func WriteScans(w io.Writer, scans []*domain.ScanResult) error {
	f, err := scansWorkbook(scans)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}
