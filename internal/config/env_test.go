package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")
	t.Setenv("AXIOM_DATASET", "")
	t.Setenv("SCAN_WORKERS", "")

	cfg := FromEnv()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Redis.JobTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, filepath.Join("data", "app_config.json"), cfg.Paths.AppConfig)
	assert.Equal(t, 1200, cfg.Preview.MaxWidth)
	assert.Equal(t, 800, cfg.Preview.MaxHeight)
	assert.Equal(t, 1, cfg.Scan.Workers)
	assert.Equal(t, "dev_stopoverdispatch", cfg.Axiom.Dataset)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/stopover")
	t.Setenv("SCAN_WORKERS", "4")
	t.Setenv("JOB_TTL", "90m")
	t.Setenv("ARCHIVE_SENT", "yes")
	t.Setenv("AWS_S3_PREFIX", "/archive/sent/")
	t.Setenv("PREVIEW_MAX_WIDTH", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, filepath.Join("/srv/stopover", "outbox"), cfg.Paths.OutboxDir)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 90*time.Minute, cfg.Redis.JobTTL)
	assert.True(t, cfg.Storage.ArchiveSent)
	assert.Equal(t, "archive/sent", cfg.Storage.Prefix)
	assert.Equal(t, 1200, cfg.Preview.MaxWidth)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("STOPOVER_TEST_A=from-file\nSTOPOVER_TEST_B=file\n"), 0o644))
	t.Setenv("STOPOVER_TEST_B", "from-env")
	t.Setenv("STOPOVER_TEST_A", "")
	os.Unsetenv("STOPOVER_TEST_A")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), file))
	assert.Equal(t, "from-file", os.Getenv("STOPOVER_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("STOPOVER_TEST_B"))
	os.Unsetenv("STOPOVER_TEST_A")
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, parseBool(v), v)
	}
	for _, v := range []string{"", "0", "false", "nope"} {
		assert.False(t, parseBool(v), v)
	}
}
