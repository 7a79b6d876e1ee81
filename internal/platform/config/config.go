// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/monomonedula/monquery/store"
)

// Config is the configuration of the demo server and CLI
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Query    QueryConfig    `json:"query"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Debug bool   `json:"debug"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Type    string        `json:"type"`
	MongoDB MongoDBConfig `json:"mongodb"`
}

// MongoDBConfig holds MongoDB-specific configuration. When URI is set it
// takes precedence over the individual connection fields.
type MongoDBConfig struct {
	URI            string `json:"uri"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Database       string `json:"database"`
	AuthDatabase   string `json:"authDatabase"`
	ReplicaSet     string `json:"replicaSet"`
	SSL            bool   `json:"ssl"`
	ConnectTimeout int    `json:"connectTimeout"`
	MaxPoolSize    int    `json:"maxPoolSize"`
}

// QueryConfig holds the query keys and paging defaults of list endpoints
type QueryConfig struct {
	DefaultLimit int64  `json:"defaultLimit"`
	SortKey      string `json:"sortKey"`
	SkipKey      string `json:"skipKey"`
	LimitKey     string `json:"limitKey"`
	SchemaFile   string `json:"schemaFile"`
}

// MetricsConfig holds prometheus configuration
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Path      string `json:"path"`
	Namespace string `json:"namespace"`
}

// StoreConfig converts to the repository connection settings.
func (c MongoDBConfig) StoreConfig() *store.MongoDBConfig {
	return &store.MongoDBConfig{
		Host:           c.Host,
		Port:           c.Port,
		Username:       c.Username,
		Password:       c.Password,
		AuthDatabase:   c.AuthDatabase,
		ReplicaSet:     c.ReplicaSet,
		SSL:            c.SSL,
		ConnectTimeout: c.ConnectTimeout,
		MaxPoolSize:    c.MaxPoolSize,
	}
}

// LoadFromEnv loads configuration from the environment.
// Explicit environment variables win over values from a .env file, which
// win over the defaults.
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return load(os.Getenv)
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return load(func(key string) string { return envMap[key] })
}

func load(getenv func(string) string) (*Config, error) {
	e := env{getenv: getenv}

	config := &Config{
		Server: ServerConfig{
			Host:  e.asString("HOST", "localhost"),
			Port:  e.asInt("SERVER_PORT", 8080),
			Debug: e.asBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Type: e.asString("DB_TYPE", "mongodb"),
			MongoDB: MongoDBConfig{
				URI:            e.asString("MONGO_URI", ""),
				Host:           e.asString("MONGO_HOST", "localhost"),
				Port:           e.asInt("MONGO_PORT", 27017),
				Username:       e.asString("MONGO_USERNAME", ""),
				Password:       e.asString("MONGO_PASSWORD", ""),
				Database:       e.asString("MONGO_DATABASE", "todos"),
				AuthDatabase:   e.asString("MONGO_AUTH_DATABASE", ""),
				ReplicaSet:     e.asString("MONGO_REPLICA_SET", ""),
				SSL:            e.asBool("MONGO_SSL", false),
				ConnectTimeout: e.asInt("MONGO_CONNECT_TIMEOUT", 10),
				MaxPoolSize:    e.asInt("MONGO_MAX_POOL_SIZE", 20),
			},
		},
		Query: QueryConfig{
			DefaultLimit: e.asInt64("QUERY_DEFAULT_LIMIT", 40),
			SortKey:      e.asString("QUERY_SORT_KEY", "sort"),
			SkipKey:      e.asString("QUERY_SKIP_KEY", "skip"),
			LimitKey:     e.asString("QUERY_LIMIT_KEY", "limit"),
			SchemaFile:   e.asString("QUERY_SCHEMA_FILE", ""),
		},
		Metrics: MetricsConfig{
			Enabled:   e.asBool("METRICS_ENABLED", true),
			Path:      e.asString("METRICS_PATH", "/metrics"),
			Namespace: e.asString("METRICS_NAMESPACE", "monquery"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Database.Type != "mongodb" {
		errors = append(errors, "DB_TYPE must be one of: mongodb")
	}
	if strings.TrimSpace(c.Database.MongoDB.Database) == "" {
		errors = append(errors, "MONGO_DATABASE is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if c.Query.DefaultLimit < 0 {
		errors = append(errors, "QUERY_DEFAULT_LIMIT must not be negative")
	}

	keys := map[string]string{
		"QUERY_SORT_KEY":  c.Query.SortKey,
		"QUERY_SKIP_KEY":  c.Query.SkipKey,
		"QUERY_LIMIT_KEY": c.Query.LimitKey,
	}
	for _, name := range []string{"QUERY_SORT_KEY", "QUERY_SKIP_KEY", "QUERY_LIMIT_KEY"} {
		if strings.TrimSpace(keys[name]) == "" {
			errors = append(errors, name+" is required")
		}
	}
	if c.Query.SkipKey == c.Query.LimitKey || c.Query.SortKey == c.Query.SkipKey || c.Query.SortKey == c.Query.LimitKey {
		errors = append(errors, "query sort, skip and limit keys must differ")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errors = append(errors, "METRICS_PATH must start with /")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// env reads typed values, falling back to defaults on empty or malformed input.
type env struct {
	getenv func(string) string
}

func (e env) asString(key, defaultValue string) string {
	if value := e.getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) asInt(key string, defaultValue int) int {
	if value := e.getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e env) asInt64(key string, defaultValue int64) int64 {
	if value := e.getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e env) asBool(key string, defaultValue bool) bool {
	if value := e.getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
