/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
// Station definitions live in a separate YAML file (see stations.go) because
// they describe per-site wiring rather than process behavior.
type Config struct {
	Environment  string
	HTTPBind     string
	HTTPPort     int
	DBBackend    DatabaseBackend
	DBDSN        string
	StationsFile string

	// DefaultMessage is sent to the encoder when no configured message is
	// eligible and when a sanitized message text comes out empty.
	DefaultMessage string

	// FFProbeBin overrides the ffprobe binary used for duration probing.
	FFProbeBin string

	LogBufferSize int
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    getEnv("SKALD_ENV", "development"),
		HTTPBind:       getEnv("SKALD_HTTP_BIND", "0.0.0.0"),
		HTTPPort:       getEnvInt("SKALD_HTTP_PORT", 8090),
		DBBackend:      DatabaseBackend(getEnv("SKALD_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:          getEnv("SKALD_DB_DSN", "./skald.db"),
		StationsFile:   getEnv("SKALD_STATIONS_FILE", "./stations.yaml"),
		DefaultMessage: getEnv("SKALD_DEFAULT_MESSAGE", "You are listening to the radio"),
		FFProbeBin:     getEnv("SKALD_FFPROBE_BIN", "ffprobe"),
		LogBufferSize:  getEnvInt("SKALD_LOG_BUFFER_SIZE", 5000),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBBackend {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite:
	default:
		return fmt.Errorf("unsupported database backend %q", c.DBBackend)
	}

	if c.DBDSN == "" {
		return fmt.Errorf("SKALD_DB_DSN is required")
	}

	if c.StationsFile == "" {
		return fmt.Errorf("SKALD_STATIONS_FILE is required")
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTPPort)
	}

	return nil
}

// HTTPAddr returns the bind address for the admin API.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}
