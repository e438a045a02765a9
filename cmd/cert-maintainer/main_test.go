package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDoCheckConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
max_concurrent: 10
sources:
  - name: Example Catalog
    url: https://catalog.example/free
search_queries:
  - free certification
`)

	var stdout, stderr bytes.Buffer
	code := doCheckConfig(path, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "OK: 1 sources, 1 search queries")
	assert.Contains(t, stdout.String(), "Configuration valid.")
	assert.Empty(t, stderr.String())
}

func TestDoCheckConfig_BadSource(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: Broken
    url: not-absolute
`)

	var stdout, stderr bytes.Buffer
	code := doCheckConfig(path, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "ERROR")
}

func TestDoCheckConfig_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := doCheckConfig(filepath.Join(t.TempDir(), "absent.yaml"), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error")
}

func TestDoCheckConfig_UnparseableYAML(t *testing.T) {
	path := writeConfig(t, "sources: [unclosed")

	var stdout, stderr bytes.Buffer
	code := doCheckConfig(path, &stdout, &stderr)

	assert.Equal(t, 1, code)
}

func TestLoadConfig_ParsesDurationsAndMaps(t *testing.T) {
	path := writeConfig(t, `
request_timeout: 30s
recheck_after: 24h
known_replacements:
  "https://old.example": "https://new.example"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://new.example", cfg.KnownReplacements["https://old.example"])
	assert.Equal(t, "30s", cfg.RequestTimeout.String())
	assert.Equal(t, "24h0m0s", cfg.RecheckAfter.String())
}
