package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salgados/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("APP_STORE_DRIVER", "")
	os.Unsetenv("APP_STORE_DRIVER")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StoreFile, cfg.StoreDriver)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 10, cfg.AuditBatchSize)
	assert.Equal(t, 2*time.Second, cfg.AuditTimeout)
	assert.False(t, cfg.StrictVersions)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("APP_STORE_DRIVER", "SQLite")
	t.Setenv("APP_STRICT_VERSIONS", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUDIT_TIMEOUT", "500ms")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.StoreDriver)
	assert.True(t, cfg.StrictVersions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 500*time.Millisecond, cfg.AuditTimeout)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salgados.yaml")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT: \"8080\"\nAPP_FILTER: pedido\nAUDIT_WORKERS: \"4\"\n"), 0o600))
	t.Setenv("APP_CONFIG_FILE", path)
	t.Setenv("APP_FILTER", "recusado")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 4, cfg.AuditWorkers)
	// environment wins over the file
	assert.Equal(t, "recusado", cfg.FilterWord)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv("APP_STORE_DRIVER", "postgres")
	t.Setenv("APP_DSN", "")
	t.Setenv("AUDIT_BATCH_SIZE", "many")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_DSN is required")
	assert.Contains(t, err.Error(), "AUDIT_BATCH_SIZE")
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := config.LoadConfig()
	assert.Error(t, err)
}
