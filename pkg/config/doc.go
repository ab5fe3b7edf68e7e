// Package config loads the scheduler's environment-driven settings
// (object store, broker, TLS material, compose backend) via
// github.com/joho/godotenv, applying the same field defaults as the
// original seguro.common.config module.
package config
