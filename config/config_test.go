package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, "./backgammon.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Minute, cfg.ArchiveInterval)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigins())
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("ARCHIVE_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestCORSOriginsTrimsEntries(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{" https://a.example ", "", "https://b.example"}}
	assert.Equal(t, "https://a.example,https://b.example", cfg.CORSOrigins())
}

func TestR2Enabled(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_BUCKET_NAME", "archives")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.R2.Enabled())
	assert.Equal(t, "archives", cfg.R2.Bucket)
}
