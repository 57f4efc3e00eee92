package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "an explicit config path must exist")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 0.01, cfg.Check.Alpha)
	assert.Equal(t, "#", cfg.Check.CommentChar)
	assert.Equal(t, 4, cfg.Check.MaxConcurrency)
	assert.Equal(t, "utf-8", cfg.Export.Encoding)
	assert.True(t, cfg.Export.KeepComments)
	assert.True(t, cfg.Export.Cleaning)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
check:
  thorough: true
  alpha: 0.05
export:
  encoding: shift-jis
  keep_comments: false
paths:
  trap_list: /ref/traps.json
  output_dir: /out
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Check.Thorough)
	assert.Equal(t, 0.05, cfg.Check.Alpha)
	assert.Equal(t, "shift-jis", cfg.Export.Encoding)
	assert.False(t, cfg.Export.KeepComments)
	assert.True(t, cfg.Export.Cleaning, "unset file keys keep their defaults")
	assert.Equal(t, "/ref/traps.json", cfg.RefPaths().TrapList)
	assert.Equal(t, "/out", cfg.Paths.OutputDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")
	t.Setenv("MSF_LOGGING_LEVEL", "warn")
	t.Setenv("MSF_CHECK_MAX_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Check.MaxConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "logging:\n  level: loud\n"},
		{"alpha out of range", "check:\n  alpha: 1.5\n"},
		{"zero concurrency", "check:\n  max_concurrency: 0\n"},
		{"unknown encoding", "export:\n  encoding: latin-1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}
