package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestValidateSettings_Valid(t *testing.T) {
	result := validateSettings(writeFile(t, `{
		"port": 9000,
		"redis_addr": "localhost:6379",
		"fallback_delay": "10s",
		"bot_depth": 5
	}`))

	assert.True(t, result.Valid)
	assert.Equal(t, "settings.json", result.File)
	assert.Empty(t, result.Errors)
	assert.Contains(t, result.Notes, "Listening on 0.0.0.0:9000")
	assert.Contains(t, result.Notes, "Stats persisted to redis at localhost:6379 (db 0)")
	assert.Contains(t, result.Notes, "Bot fallback after 10s, depth 5, think 100ms-500ms")
}

func TestValidateSettings_EmptyObjectUsesDefaults(t *testing.T) {
	result := validateSettings(writeFile(t, `{}`))

	assert.True(t, result.Valid)
	assert.Contains(t, result.Notes, "Stats persistence disabled (no redis_addr)")
	assert.Contains(t, result.Notes, "Forfeit after 30s disconnected, finished games kept 5m0s")
}

func TestValidateSettings_InvalidJSON(t *testing.T) {
	result := validateSettings(writeFile(t, `{"port": `))

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Invalid JSON")
}

func TestValidateSettings_UnknownField(t *testing.T) {
	result := validateSettings(writeFile(t, `{"grid_size": 7}`))

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unknown field")
}

func TestValidateSettings_MissingFile(t *testing.T) {
	result := validateSettings(filepath.Join(t.TempDir(), "nope.json"))

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to read file")
}

func TestValidateSettings_ReportsEveryProblem(t *testing.T) {
	result := validateSettings(writeFile(t, `{
		"port": 0,
		"bot_depth": 20,
		"pool_size": 0
	}`))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"port must be between 1 and 65535",
		"bot_depth must be between 1 and 10",
		"pool_size must be positive",
	}, result.Errors)
}

func TestValidateSettings_Warnings(t *testing.T) {
	result := validateSettings(writeFile(t, `{
		"sweep_interval": "1m",
		"abandon_timeout": "30s",
		"bot_depth": 9
	}`))

	assert.True(t, result.Valid)
	assert.Contains(t, result.Notes, "Warning: sweep_interval exceeds abandon_timeout; forfeits will be late")
	assert.Contains(t, result.Notes, "Warning: bot_depth above 7 can make bot moves slow")
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	ok := report(&out, []ValidationResult{
		{File: "good.json", Valid: true, Notes: []string{"Listening on 0.0.0.0:8080"}},
		{File: "bad.json", Errors: []string{"port must be between 1 and 65535"}},
	})

	assert.False(t, ok)
	assert.Contains(t, out.String(), "good.json")
	assert.Contains(t, out.String(), "❌ port must be between 1 and 65535")
	assert.Contains(t, out.String(), "Some settings files have errors")

	out.Reset()
	assert.True(t, report(&out, []ValidationResult{{File: "good.json", Valid: true}}))
	assert.Contains(t, out.String(), "All settings files are valid!")
}
