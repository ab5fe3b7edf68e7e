package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TLS_CACERT", "TLS_CERT", "TLS_KEY",
		"S3_HOST", "S3_PORT", "S3_REGION", "S3_BUCKET", "S3_SECURE",
		"MQTT_HOST", "MQTT_PORT", "DATA_DIR", "COMPOSE_BIN", "COMPOSE_NETWORK",
		"LOG_LEVEL", "LOG_JSON",
	} {
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.S3Host)
	require.Equal(t, 9000, cfg.S3Port)
	require.Equal(t, "seguro", cfg.S3Bucket)
	require.Equal(t, "localhost", cfg.MQTTHost)
	require.Equal(t, 8883, cfg.MQTTPort)
	require.True(t, cfg.S3Secure)
	require.True(t, cfg.LogJSON)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_HOST", "store.example.com")
	t.Setenv("S3_PORT", "9001")
	t.Setenv("S3_BUCKET", "jobs")
	t.Setenv("MQTT_HOST", "broker.example.com")
	t.Setenv("S3_SECURE", "false")
	t.Setenv("LOG_JSON", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "store.example.com", cfg.S3Host)
	require.Equal(t, 9001, cfg.S3Port)
	require.Equal(t, "jobs", cfg.S3Bucket)
	require.Equal(t, "broker.example.com", cfg.MQTTHost)
	require.False(t, cfg.S3Secure)
	require.False(t, cfg.LogJSON)
}

func TestValidateRequiresBucket(t *testing.T) {
	cfg := &Config{MQTTHost: "broker.example.com"}
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresMQTTHost(t *testing.T) {
	cfg := &Config{S3Bucket: "jobs"}
	require.Error(t, cfg.Validate())
}
