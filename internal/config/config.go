// Package config loads process configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file, then environment variables. The result is validated once at
// startup; a Config that made it out of Load is safe to use without further
// checks.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/movieflix/internal/validation"
)

// Store backends.
const (
	BackendNeo4j  = "neo4j"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Neo4j   Neo4jConfig   `koanf:"neo4j"`
	Auth    AuthConfig    `koanf:"auth"`
	Logging LoggingConfig `koanf:"logging"`
	HTTP    HTTPConfig    `koanf:"http"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address, e.g. ":3000".
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StoreConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=neo4j sqlite"`
	SQLitePath string `koanf:"sqlite_path"`
}

type Neo4jConfig struct {
	URI      string `koanf:"uri"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. There is no default: a process that
	// issues tokens must be given a secret.
	JWTSecret     string        `koanf:"jwt_secret" validate:"required,min=16"`
	JWTExpiration time.Duration `koanf:"jwt_expiration" validate:"gt=0"`
	BcryptCost    int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type HTTPConfig struct {
	// LoginRateLimit is the number of login attempts allowed per client IP
	// per RateLimitWindow. Zero disables the limiter.
	LoginRateLimit  int           `koanf:"login_rate_limit" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Validate checks struct tags plus the cross-section rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Store.Backend == BackendNeo4j && c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is required when store.backend is %s", BackendNeo4j)
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path is required when store.backend is %s", BackendSQLite)
	}
	return nil
}

// SlogLevel converts Logging.Level to a slog.Level. Unknown values map to
// info; Validate rejects them before this is reached.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
