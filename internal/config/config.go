package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"containerboard/api/internal/logger"
)

type Config struct {
	Addr          string `yaml:"addr"`
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	TokenSecret   string `yaml:"token_secret"`
	CORSOrigin    string `yaml:"cors_origin"`
	// Local mirror: "redis" or "sqlite"
	MirrorBackend string `yaml:"mirror_backend"`
	RedisURL      string `yaml:"redis_url"`
	SQLitePath    string `yaml:"sqlite_path"`
	// Collection layout
	PerUserScope bool   `yaml:"per_user_scope"`
	KeyMode      string `yaml:"key_mode"`
	ClaimScope   string `yaml:"claim_scope"`
	Timezone     string `yaml:"timezone"`
	// View-changed signals, disabled when NATSURL is empty
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	LogLevel  string `yaml:"log_level"`
	LogOutput string `yaml:"log_output"`
}

func Defaults() Config {
	return Config{
		Addr:          ":8787",
		MigrationsDir: "./db/migrations",
		TokenSecret:   "containerboard-dev-secret",
		CORSOrigin:    "*",
		MirrorBackend: "sqlite",
		RedisURL:      "redis://localhost:6379/0",
		SQLitePath:    "./data/containers.db",
		PerUserScope:  true,
		KeyMode:       "container",
		ClaimScope:    "record",
		Timezone:      "Local",
		NATSSubject:   "containers.view",
		LogLevel:      "info",
		LogOutput:     "stdout",
	}
}

// Load reads configuration from the environment only.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile starts from Defaults, applies the YAML file at path when one is
// given and exists, then environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getenv("API_ADDR", c.Addr)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.MigrationsDir = getenv("MIGRATIONS_DIR", c.MigrationsDir)
	c.TokenSecret = getenv("TOKEN_SECRET", c.TokenSecret)
	c.CORSOrigin = getenv("CORS_ORIGIN", c.CORSOrigin)
	c.MirrorBackend = getenv("MIRROR_BACKEND", c.MirrorBackend)
	c.RedisURL = getenv("REDIS_URL", c.RedisURL)
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.PerUserScope = getenvBool("PER_USER_SCOPE", c.PerUserScope)
	c.KeyMode = getenv("KEY_MODE", c.KeyMode)
	c.ClaimScope = getenv("CLAIM_SCOPE", c.ClaimScope)
	c.Timezone = getenv("TIMEZONE", c.Timezone)
	c.NATSURL = getenv("NATS_URL", c.NATSURL)
	c.NATSSubject = getenv("NATS_SUBJECT", c.NATSSubject)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogOutput = getenv("LOG_OUTPUT", c.LogOutput)
}

// Validate rejects unknown enum values and a missing token secret.
func (c Config) Validate() error {
	switch c.MirrorBackend {
	case "redis", "sqlite":
	default:
		return fmt.Errorf("mirror_backend must be redis or sqlite, got %q", c.MirrorBackend)
	}
	switch c.KeyMode {
	case "", "container", "generated":
	default:
		return fmt.Errorf("key_mode must be container or generated, got %q", c.KeyMode)
	}
	switch c.ClaimScope {
	case "", "record", "group":
	default:
		return fmt.Errorf("claim_scope must be record or group, got %q", c.ClaimScope)
	}
	if strings.TrimSpace(c.TokenSecret) == "" {
		return fmt.Errorf("token_secret is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Output: c.LogOutput}
}

// Location resolves Timezone; it decides where calendar days start.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
