package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REC_EMAIL", "REC_PASSWORD", "OPENAI_API_KEY", "AUTHORIZED_USER_EMAILS"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSiteURL, cfg.SiteURL)
	assert.Equal(t, DefaultCourt, cfg.DefaultCourt)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	assert.Equal(t, DefaultOperatingYear, cfg.OperatingYear)
	assert.Equal(t, DefaultBrowserTTL, cfg.BrowserTTL)
	assert.True(t, cfg.Headless)
	assert.NotEmpty(t, cfg.DBPath)
	assert.False(t, cfg.CanBook())
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rec_email: owner@example.com
rec_password: hunter2
authorized_emails:
  - alice@example.com
default_court: McLaren
operating_year: 2026
browser_ttl: 10m
db_path: /tmp/rec-test.db
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "owner@example.com", cfg.RecEmail)
	assert.Equal(t, []string{"alice@example.com"}, cfg.AuthorizedEmails)
	assert.Equal(t, "McLaren", cfg.DefaultCourt)
	assert.Equal(t, 2026, cfg.OperatingYear)
	assert.Equal(t, 10*time.Minute, cfg.BrowserTTL)
	assert.Equal(t, "/tmp/rec-test.db", cfg.DBPath)
	assert.True(t, cfg.CanBook())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rec_email: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rec_email: file@example.com
rec_password: from-file
`), 0o600))

	t.Setenv("REC_EMAIL", "env@example.com")
	t.Setenv("REC_PASSWORD", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AUTHORIZED_USER_EMAILS", "Alice@Example.com, bob@example.com ,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env@example.com", cfg.RecEmail)
	assert.Equal(t, "from-env", cfg.RecPassword)
	assert.Equal(t, "sk-test", cfg.OpenAIKey)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, cfg.AuthorizedEmails)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser_ttl: -1s
operating_year: 0
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBrowserTTL, cfg.BrowserTTL)
	assert.Equal(t, DefaultOperatingYear, cfg.OperatingYear)
}
