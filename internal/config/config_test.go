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
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "STORE_DRIVER", "MONGO_URI", "VIDEO_STORE", "S3_BUCKET",
		"HEARTBEAT_INTERVAL", "HEARTBEAT_TIMEOUT", "ALLOWED_ORIGINS", "MAX_CHUNK_BYTES", "TOKEN_TTL", "JWT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 25*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 60*time.Second, cfg.HeartbeatTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, VideoStoreLocal, cfg.VideoStore)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("HEARTBEAT_TIMEOUT", "12s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("MAX_CHUNK_BYTES", "1024")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 12*time.Second, cfg.HeartbeatTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.EqualValues(t, 1024, cfg.MaxChunkBytes)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "proctor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"7000\"\nstore_driver: sqlite\nheartbeat_interval: 10s\nheartbeat_timeout: 30s\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port, "env wins over file")
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatTimeout)
}

func TestLoadConfig_Rejections(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"STORE_DRIVER": "cassandra"},
		"mongo without uri":    {"STORE_DRIVER": "mongo"},
		"s3 without bucket":    {"VIDEO_STORE": "s3"},
		"unknown video store":  {"VIDEO_STORE": "ftp"},
		"bad duration":         {"HEARTBEAT_INTERVAL": "soon"},
		"timeout <= interval":  {"HEARTBEAT_INTERVAL": "30s", "HEARTBEAT_TIMEOUT": "30s"},
		"negative chunk limit": {"MAX_CHUNK_BYTES": "-1"},
		"bad chunk limit":      {"MAX_CHUNK_BYTES": "lots"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("UNIT_TEST_ENV", "value")
	assert.Equal(t, "value", getEnvOrDefault("UNIT_TEST_ENV", "fallback"))

	t.Setenv("UNIT_TEST_ENV", "")
	assert.Equal(t, "fallback", getEnvOrDefault("UNIT_TEST_ENV", "fallback"))
}

func TestPostgresDSN(t *testing.T) {
	cfg := defaults()
	cfg.PostgresPassword = "pw"
	assert.Equal(t, "host=localhost user=postgres password=pw dbname=proctoring port=5432 sslmode=disable", cfg.PostgresDSN())
}
