// Package config loads the planner's runtime configuration from the process
// environment, optionally layered over a YAML file named by
// DAYFLOW_CONFIG_FILE. Environment variables always win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the planner service configuration.
type Config struct {
	HTTPPort      int           `yaml:"http_port"`
	SQLiteDSN     string        `yaml:"sqlite_dsn"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	AuthMode      string        `yaml:"auth_mode"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Environment   string        `yaml:"environment"`
	WeekStart     string        `yaml:"week_start"`
}

const (
	// AuthModeNormal resolves sessions against the stores.
	AuthModeNormal = "normal"
	// AuthModeFixedIdentity serves a fixed identity without stores. Refused in
	// production.
	AuthModeFixedIdentity = "fixed_identity"
)

// Production reports whether the service runs in a production environment.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load parses configuration from the optional YAML file and the current
// process environment.
//
// The loader applies defaults for optional fields while validating values
// and accumulating every missing or invalid entry into a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:    8080,
		SQLiteDSN:   "file:dayflow.db",
		SessionTTL:  24 * time.Hour,
		AuthMode:    AuthModeNormal,
		Environment: "development",
		WeekStart:   "monday",
	}

	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("DAYFLOW_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("DAYFLOW_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "DAYFLOW_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("DAYFLOW_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("DAYFLOW_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "DAYFLOW_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if mode := strings.TrimSpace(os.Getenv("DAYFLOW_AUTH_MODE")); mode != "" {
		cfg.AuthMode = strings.ToLower(mode)
	}

	if addr := strings.TrimSpace(os.Getenv("DAYFLOW_REDIS_ADDR")); addr != "" {
		cfg.RedisAddr = addr
	}
	if password := os.Getenv("DAYFLOW_REDIS_PASSWORD"); password != "" {
		cfg.RedisPassword = password
	}
	if dbValue := strings.TrimSpace(os.Getenv("DAYFLOW_REDIS_DB")); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "DAYFLOW_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}

	if env := strings.TrimSpace(os.Getenv("DAYFLOW_ENV")); env != "" {
		cfg.Environment = strings.ToLower(env)
	}

	if weekStart := strings.TrimSpace(os.Getenv("DAYFLOW_WEEK_START")); weekStart != "" {
		cfg.WeekStart = strings.ToLower(weekStart)
	}

	switch cfg.AuthMode {
	case AuthModeNormal:
	case AuthModeFixedIdentity:
		if cfg.Production() {
			return Config{}, fmt.Errorf("auth mode %q is not allowed in production", AuthModeFixedIdentity)
		}
	default:
		invalid = append(invalid, "DAYFLOW_AUTH_MODE")
	}

	switch cfg.WeekStart {
	case "monday", "sunday":
	default:
		invalid = append(invalid, "DAYFLOW_WEEK_START")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// WeekStartDay maps the configured week start to its weekday.
func (c Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}
