package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout     string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		MigrationsDir   string `yaml:"migrations_dir" env:"MIGRATIONS_DIR"`
		SeedDemoData    bool   `yaml:"seed_demo_data" env:"SEED_DEMO_DATA"`
	} `yaml:"server"`

	Database struct {
		// URL takes precedence over the discrete connection fields when set
		URL             string `yaml:"url" env:"DATABASE_URL"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MinConns        int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
		MaxConns        int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Assignment struct {
		BatchConcurrency int `yaml:"batch_concurrency" env:"ASSIGNMENT_BATCH_CONCURRENCY"`
	} `yaml:"assignment"`

	Analysis struct {
		WebhookURL     string `yaml:"webhook_url" env:"ANALYSIS_WEBHOOK_URL"`
		WebhookToken   string `yaml:"webhook_token" env:"ANALYSIS_WEBHOOK_TOKEN"`
		WebhookTimeout string `yaml:"webhook_timeout" env:"ANALYSIS_WEBHOOK_TIMEOUT"`
		Workers        int    `yaml:"workers" env:"ANALYSIS_WORKERS"`
		PollInterval   string `yaml:"poll_interval" env:"ANALYSIS_POLL_INTERVAL"`
		StaleAfter     string `yaml:"stale_after" env:"ANALYSIS_STALE_AFTER"`
		SweepSchedule  string `yaml:"sweep_schedule" env:"ANALYSIS_SWEEP_SCHEDULE"`
	} `yaml:"analysis"`
}

// LoadConfig loads .env files, then the YAML file at configPath (optional), then environment overrides.
func LoadConfig(configPath string, dotEnvFiles ...string) (*Config, error) {
	if err := loadDotEnv(dotEnvFiles...); err != nil {
		return nil, err
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv loads the given files, skipping ones that do not exist. Variables already
// present in the process environment win.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "60s"
	config.Server.ShutdownTimeout = "10s"
	config.Server.MigrationsDir = "migrations"
	config.Server.SeedDemoData = false

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.DBName = "curricula"
	config.Database.SSLMode = "disable"
	config.Database.MinConns = 2
	config.Database.MaxConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.Issuer = ""

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Assignment.BatchConcurrency = 4

	config.Analysis.WebhookTimeout = "10m"
	config.Analysis.Workers = 2
	config.Analysis.PollInterval = "5s"
	config.Analysis.StaleAfter = "2h"
	config.Analysis.SweepSchedule = "@every 5m"
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		if config.Database.Host == "" {
			return fmt.Errorf("database url or host is required")
		}
		if config.Database.User == "" {
			return fmt.Errorf("database user is required (set DB_USER or DATABASE_URL)")
		}
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Database.MaxConns < 1 || config.Database.MinConns < 0 || config.Database.MinConns > config.Database.MaxConns {
		return fmt.Errorf("database pool sizes are inconsistent (min %d, max %d)", config.Database.MinConns, config.Database.MaxConns)
	}

	if config.Assignment.BatchConcurrency < 1 {
		return fmt.Errorf("assignment batch_concurrency must be at least 1")
	}
	if config.Analysis.Workers < 1 {
		return fmt.Errorf("analysis workers must be at least 1")
	}

	durations := map[string]string{
		"server.read_timeout":        config.Server.ReadTimeout,
		"server.write_timeout":       config.Server.WriteTimeout,
		"server.shutdown_timeout":    config.Server.ShutdownTimeout,
		"database.conn_max_lifetime": config.Database.ConnMaxLifetime,
		"analysis.webhook_timeout":   config.Analysis.WebhookTimeout,
		"analysis.poll_interval":     config.Analysis.PollInterval,
		"analysis.stale_after":       config.Analysis.StaleAfter,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if config.Analysis.WebhookURL != "" {
		u, err := url.Parse(config.Analysis.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("analysis webhook_url must be an absolute http(s) URL")
		}
	}

	return nil
}

// GetPostgresConnectionString returns the postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
