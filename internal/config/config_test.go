package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, "data/ledgerdesk.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Dashboard.RecentLimit)
	assert.Equal(t, "reports", cfg.Archive.KeyPrefix)
	assert.Empty(t, cfg.Archive.Bucket)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEDGERDESK_API_BASEURL", "https://books.example.com/api/v1/")
	t.Setenv("LEDGERDESK_API_TIMEOUT", "15s")
	t.Setenv("LEDGERDESK_DASHBOARD_RECENTLIMIT", "10")
	t.Setenv("LEDGERDESK_ARCHIVE_BUCKET", "ledger-reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://books.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10, cfg.Dashboard.RecentLimit)
	assert.Equal(t, "ledger-reports", cfg.Archive.Bucket)
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	t.Setenv("LEDGERDESK_API_TIMEOUT", "-1s")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFallsBackOnNonPositiveRecentLimit(t *testing.T) {
	t.Setenv("LEDGERDESK_DASHBOARD_RECENTLIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Dashboard.RecentLimit)
}
