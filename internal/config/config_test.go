package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.Lifetime())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  host: 10.0.0.5
database:
  url: postgres://localhost/tracking
  max_open_conns: 50
redis:
  enabled: true
  addr: cache:6379
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "10.0.0.5", cfg.Server.Host)
	assert.Equal(t, "postgres://localhost/tracking", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	t.Setenv("PORT", "8085")
	t.Setenv("DATABASE_URL", "postgres://env/tracking")
	t.Setenv("REDIS_ADDR", "envcache:6379")
	t.Setenv("SQS_ANALYTICS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/1/analytics")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "postgres://env/tracking", cfg.Database.URL)
	assert.Equal(t, "envcache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled, "REDIS_ADDR should enable redis")
	assert.True(t, cfg.Analytics.Enabled, "queue url should enable analytics")
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate(), "empty database url must fail")

	cfg.Database.URL = "postgres://localhost/tracking"
	assert.NoError(t, cfg.Validate())

	cfg.Analytics.Enabled = true
	assert.Error(t, cfg.Validate(), "enabled analytics needs a queue url")

	cfg.Analytics.QueueURL = "https://sqs.us-east-1.amazonaws.com/1/analytics"
	assert.NoError(t, cfg.Validate())
}

func TestGetHost(t *testing.T) {
	c := ServerConfig{Host: "localhost"}

	assert.Equal(t, "localhost", c.GetHost())

	t.Setenv("SERVER_HOST", "192.168.1.10")
	assert.Equal(t, "192.168.1.10", c.GetHost())

	t.Setenv("AWS_EXECUTION_ENV", "AWS_ECS_FARGATE")
	assert.Equal(t, "0.0.0.0", c.GetHost())
}
