package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2767mr/shapereach/internal/search"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shapereach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, `
search:
  ops: reduced
  workers: 3
cache:
  backend: sqlite
`))
	require.NoError(t, err)

	assert.Equal(t, "reduced", cfg.Search.Ops)
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.True(t, cfg.Cache.Checkpoint)
	assert.Equal(t, "info", cfg.Log.Level)

	ops, err := cfg.OpSet()
	require.NoError(t, err)
	assert.Equal(t, search.ReducedOps, ops)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "cache:\n  backend: redis\n"},
		{"negative workers", "search:\n  workers: -1\n"},
		{"unknown op", "search:\n  ops: left,spin\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"not yaml", "search: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Search.Ops = "left,right,r90,stack"
	cfg.Metrics.Textfile = "metrics.prom"
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Log{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "step", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, float64(3), entry["step"])

	buf.Reset()
	NewLogger(Log{Level: "debug", Format: "text"}, &buf).Debug("details")
	assert.Contains(t, buf.String(), "msg=details")
}

func TestCacheConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Path = "x.json"
	cc := cfg.CacheConfig(nil)
	assert.Equal(t, "json", cc.Backend)
	assert.Equal(t, "x.json", cc.Path)
}
