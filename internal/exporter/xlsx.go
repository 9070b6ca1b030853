package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"mlprep/internal/config"
)

// Sheet is one worksheet of a summary workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// XLSXWriter writes run summaries as Excel workbooks.
type XLSXWriter struct {
	paths *config.Paths
}

// NewXLSXWriter creates a workbook writer rooted at the output directory.
func NewXLSXWriter(paths *config.Paths) *XLSXWriter {
	return &XLSXWriter{paths: paths}
}

// WriteWorkbook writes sheets in order, replacing any existing file.
func (w *XLSXWriter) WriteWorkbook(filePath string, sheets []Sheet) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook needs at least one sheet")
	}
	fullPath := resolveOutputPath(w.paths, filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}

		row := 1
		if len(sheet.Headers) > 0 {
			if err := setRow(f, sheet.Name, row, toCells(sheet.Headers)); err != nil {
				return "", err
			}
			row++
		}
		for _, values := range sheet.Rows {
			if err := setRow(f, sheet.Name, row, values); err != nil {
				return "", err
			}
			row++
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return fullPath, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Sheet names used by WriteDataset.
const (
	FeaturesSheet = "features"
	TargetSheet   = "target"
	MatrixSheet   = "matrix"
)

// WriteDataset writes the features and target of ds into a workbook, plus a
// matrix sheet when ds carries a fitted matrix.
func (w *XLSXWriter) WriteDataset(filePath string, ds Dataset) (string, error) {
	if ds.Features.Nrow() != len(ds.Target) {
		return "", fmt.Errorf("features have %d rows but target has %d", ds.Features.Nrow(), len(ds.Target))
	}

	headers, records := frameRecords(ds.Features)
	features := Sheet{Name: FeaturesSheet, Headers: headers, Rows: make([][]interface{}, len(records))}
	for i, record := range records {
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = cellValue(v)
		}
		features.Rows[i] = row
	}

	targetName := ds.TargetName
	if targetName == "" {
		targetName = "target"
	}
	target := Sheet{Name: TargetSheet, Headers: []string{targetName}, Rows: make([][]interface{}, len(ds.Target))}
	for i, v := range ds.Target {
		target.Rows[i] = []interface{}{cellValue(formatFloat(v))}
	}

	sheets := []Sheet{features, target}
	if ds.Matrix != nil {
		r, c := ds.Matrix.Dims()
		matrix := Sheet{Name: MatrixSheet, Headers: ds.MatrixColumns, Rows: make([][]interface{}, r)}
		for i := 0; i < r; i++ {
			row := make([]interface{}, c)
			for j := 0; j < c; j++ {
				row[j] = ds.Matrix.At(i, j)
			}
			matrix.Rows[i] = row
		}
		sheets = append(sheets, matrix)
	}
	return w.WriteWorkbook(filePath, sheets)
}

// cellValue stores numeric text as a number and missing values as blank cells.
func cellValue(v string) interface{} {
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
