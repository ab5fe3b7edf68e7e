// Package config loads scheduler configuration from the environment,
// mirroring the fixed defaults of the original Python seguro.common.config
// module: an optional .env file, then environment variables, then a
// built-in default per field.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting the scheduler and the
// acl-syncer CLI need to construct their store/broker/compose clients.
type Config struct {
	TLSCACert string
	TLSCert   string
	TLSKey    string

	S3Host   string
	S3Port   int
	S3Region string
	S3Bucket string
	S3Secure bool

	MQTTHost string
	MQTTPort int

	DataDir string // local state directory (ACL reconciler snapshot db)

	ComposeBin  string // e.g. "docker"
	NetworkName string // external compose network every job attaches to

	LogLevel string
	LogJSON  bool
}

// Load reads .env (if present) then environment variables, applying
// the same defaults as the Python original.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TLSCACert: getEnv("TLS_CACERT", "keys/ca.crt"),
		TLSCert:   getEnv("TLS_CERT", "keys/clients/admin.crt"),
		TLSKey:    getEnv("TLS_KEY", "keys/clients/admin.key"),

		S3Host:   getEnv("S3_HOST", "localhost"),
		S3Port:   getEnvAsInt("S3_PORT", 9000),
		S3Region: getEnv("S3_REGION", "us-east-1"),
		S3Bucket: getEnv("S3_BUCKET", "seguro"),
		S3Secure: getEnvAsBool("S3_SECURE", true),

		MQTTHost: getEnv("MQTT_HOST", "localhost"),
		MQTTPort: getEnvAsInt("MQTT_PORT", 8883),

		DataDir: getEnv("DATA_DIR", "/var/lib/scheduler"),

		ComposeBin:  getEnv("COMPOSE_BIN", "docker"),
		NetworkName: getEnv("COMPOSE_NETWORK", "seguro"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvAsBool("LOG_JSON", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have no safe default.
func (c *Config) Validate() error {
	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET must not be empty")
	}
	if c.MQTTHost == "" {
		return fmt.Errorf("MQTT_HOST must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
