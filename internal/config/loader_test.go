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
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestLoadAppsFromTOML(t *testing.T) {
	dir := writeConfig(t, `
[logging]
level = "debug"

[apps.notes]
name = "Notes"
url = "https://notes.example.com"
fallback_urls = ["https://notes-mirror.example.com"]

[apps.notes.loading]
load_blank_first = true
visibility_script = "document.body.style.visibility = 'visible';"

[apps.notes.links]
external_url_patterns = ["^https://help\\.example\\.com/"]

[apps.notes.hints]
background_color = "#1e1e2e"
content_padding = 4

[apps.mail]
name = "Mail"
url = "https://mail.example.com"
`)

	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format, "defaults fill unset keys")
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 100, cfg.Bounds.DebounceMS)

	apps := cfg.AppConfigs()
	require.Len(t, apps, 2)
	assert.Equal(t, "mail", apps[0].ID, "apps come back sorted by id")

	notes := apps[1]
	assert.Equal(t, "notes", notes.ID)
	assert.Equal(t, "Notes", notes.Name)
	assert.Equal(t, []string{"https://notes-mirror.example.com"}, notes.FallbackURLs)
	assert.True(t, notes.Loading.LoadBlankFirst)
	assert.Equal(t, []string{`^https://help\.example\.com/`}, notes.Links.ExternalURLPatterns)
	assert.Equal(t, "#1e1e2e", notes.Hints.BackgroundColor)
	assert.Equal(t, 4, notes.Hints.ContentPadding)
}

func TestLoadRejectsInvalidApp(t *testing.T) {
	dir := writeConfig(t, `
[apps.broken]
name = "No URL"
`)
	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Error(t, m.Load(), "an app entry without a url must fail validation")
}

func TestLoadRejectsBadLoggingFormat(t *testing.T) {
	dir := writeConfig(t, `
[logging]
format = "xml"
`)
	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Error(t, m.Load())
}

func TestJournalPathDefaultsToDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := writeConfig(t, "")
	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, 500, cfg.Journal.RetainPerApp)
	assert.Contains(t, cfg.Journal.Path, "journal.db")
}

func TestSchemaJSON(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "emberview Configuration")
	assert.Contains(t, string(data), "fallback_urls")
}
