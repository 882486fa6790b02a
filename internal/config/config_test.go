package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, "yimba", cfg.Mongo.Database)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 30, cfg.JWT.AccessTTLMinutes)
	assert.Equal(t, "https://api.apify.com/v2", cfg.Apify.BaseURL)
	assert.Equal(t, "yimba.posts", cfg.Kafka.Topic)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.App.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9090
  env: development
mongo:
  hosts: "mongo-1:27017, mongo-2:27017"
jwt:
  secret: test-secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, []string{"mongo-1:27017", "mongo-2:27017"}, cfg.MongoHosts())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("MONGO_HOSTS", "env-host:27017")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"env-host:27017"}, cfg.MongoHosts())
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
}

func TestKafkaBrokers(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.KafkaBrokers())

	cfg.Kafka.Brokers = "broker-1:9092, broker-2:9092,"
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers())
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	assert.Equal(t, "config.yaml", Path())

	t.Setenv("CONFIG_FILE", "/etc/yimba/config.yaml")
	assert.Equal(t, "/etc/yimba/config.yaml", Path())
}
