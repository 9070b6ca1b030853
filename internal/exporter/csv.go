package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mlprep/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV artifacts under the configured output directory.
type CSVWriter struct {
	paths *config.Paths
	bom   bool
}

// CSVOption customises a CSVWriter.
type CSVOption func(*CSVWriter)

// WithBOM prefixes every file with a UTF-8 byte order mark so spreadsheet
// tools detect the encoding.
func WithBOM() CSVOption {
	return func(w *CSVWriter) { w.bom = true }
}

// NewCSVWriter creates a writer rooted at paths.OutputDir.
func NewCSVWriter(paths *config.Paths, opts ...CSVOption) *CSVWriter {
	w := &CSVWriter{paths: paths}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteTable writes an optional header row followed by records and returns
// the absolute path written. The file is staged next to the target and
// renamed into place, so readers never observe a partial table.
func (w *CSVWriter) WriteTable(filePath string, header []string, records [][]string) (string, error) {
	fullPath := resolveOutputPath(w.paths, filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", filepath.Base(fullPath), err)
	}
	defer os.Remove(tmp.Name())

	if err := w.encode(tmp, header, records); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", filepath.Base(fullPath), err)
	}

	slog.Debug("csv_written",
		slog.String("path", fullPath),
		slog.Int("rows", len(records)))
	return fullPath, nil
}

func (w *CSVWriter) encode(f *os.File, header []string, records [][]string) error {
	if w.bom {
		if _, err := f.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	if len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// resolveOutputPath places relative paths under the output directory.
func resolveOutputPath(paths *config.Paths, filePath string) string {
	if filepath.IsAbs(filePath) || paths == nil || paths.OutputDir == "" {
		return filePath
	}
	return filepath.Join(paths.OutputDir, filePath)
}
