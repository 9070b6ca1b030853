// Package validation checks pipeline inputs and outputs on disk before any
// data is read or written.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mlprep/internal/dataprocessing"
	apperrors "mlprep/internal/errors"
)

// InputExtensions lists the accepted input file extensions.
var InputExtensions = dataprocessing.TableExtensions

// FileValidator provides common file validation functions for pipeline steps
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputFile checks that path names a readable, non-empty CSV or workbook file.
// A missing file yields an error matching os.ErrNotExist; the remaining
// problems are validation errors.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("input_file_unavailable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("input file %s: %w", path, err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("input file %s is empty", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !accepted(ext) {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("input file %s has unsupported extension %q (want %s)", path, ext, strings.Join(InputExtensions, ", "))).
			WithContext("extension", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("input file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("input_file_validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if dir == "" {
		return apperrors.NewAppValidationError("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("output_directory_unavailable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)

	return nil
}

func accepted(ext string) bool {
	for _, e := range InputExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
