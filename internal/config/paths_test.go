package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.LogsDir = filepath.Join(base, "abs-logs")

	paths, err := cfg.ResolvePaths(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "output"), paths.OutputDir)
	assert.Equal(t, filepath.Join(base, "abs-logs"), paths.LogsDir, "absolute paths are kept")
	assert.Equal(t, filepath.Join(base, "output", "gaming-market", "r1"), paths.ProjectOutputDir("gaming-market", "r1"))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := &Paths{
		DataDir:   filepath.Join(base, "d"),
		OutputDir: filepath.Join(base, "o", "nested"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.OutputDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, FileExists(paths.DataDir))
	assert.False(t, FileExists(filepath.Join(base, "missing")))
}
