package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds resolved absolute directories for a run.
type Paths struct {
	DataDir   string
	OutputDir string
	LogsDir   string
}

// ResolvePaths turns the configured directories into absolute paths. Relative
// entries are resolved against base, or the working directory when base is empty.
func (c *Config) ResolvePaths(base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		DataDir:   abs(c.Paths.DataDir),
		OutputDir: abs(c.Paths.OutputDir),
		LogsDir:   abs(c.Paths.LogsDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	logger := slog.Default()

	for _, dir := range []string{p.DataDir, p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// ProjectOutputDir is where a project's artifacts for one run land.
func (p *Paths) ProjectOutputDir(project, runID string) string {
	return filepath.Join(p.OutputDir, project, runID)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
