package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names a YAML file to load between defaults and env.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched, in order, when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movieflix/config.yaml",
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"port":             "server.port",
	"host":             "server.host",
	"shutdown_timeout": "server.shutdown_timeout",

	"store_backend": "store.backend",
	"sqlite_path":   "store.sqlite_path",

	"neo4j_uri":      "neo4j.uri",
	"neo4j_username": "neo4j.username",
	"neo4j_password": "neo4j.password",
	"neo4j_database": "neo4j.database",

	"jwt_secret":           "auth.jwt_secret",
	"jwt_expiration_delta": "auth.jwt_expiration",
	"bcrypt_cost":          "auth.bcrypt_cost",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"login_rate_limit":  "http.login_rate_limit",
	"rate_limit_window": "http.rate_limit_window",
	"cors_origins":      "http.cors_origins",
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"http.cors_origins",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend:    BackendNeo4j,
			SQLitePath: "data/movieflix.db",
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Auth: AuthConfig{
			JWTExpiration: 24 * time.Hour,
			BcryptCost:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			LoginRateLimit:  10,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
	}
}

// Load builds the Config: defaults, then the config file (if any), then
// environment variables. Later layers win.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("config: setting %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps NEO4J_URI to neo4j.uri and so on. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
