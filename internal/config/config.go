// Package config loads application configuration from an optional YAML
// file and PAYSLIP_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	JWT      JWTConfig      `koanf:"jwt"`
	CORS     CORSConfig     `koanf:"cors"`
	Mail     MailConfig     `koanf:"mail"`
	Upload   UploadConfig   `koanf:"upload"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig contains token signing settings. Tokens are stateless with a
// fixed lifetime; there is no refresh or revocation flow, so the access
// token duration is the maximum credential lifetime once issued.
type JWTConfig struct {
	SecretKey           string        `koanf:"secret_key"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// MailConfig contains SMTP transport settings for payslip delivery.
type MailConfig struct {
	Enabled     bool    `koanf:"enabled"`
	SMTPHost    string  `koanf:"smtp_host"`
	SMTPPort    int     `koanf:"smtp_port"`
	SMTPUser    string  `koanf:"smtp_user"`
	SMTPPass    string  `koanf:"smtp_password"`
	FromAddress string  `koanf:"from_address"`
	SendRate    float64 `koanf:"send_rate"` // messages per second
}

// UploadConfig bounds multipart payslip uploads.
type UploadConfig struct {
	MaxFileSize  int64 `koanf:"max_file_size"`
	MaxBatchSize int   `koanf:"max_batch_size"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			AccessTokenDuration: 60 * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Mail: MailConfig{
			SMTPPort: 587,
			SendRate: 5,
		},
		Upload: UploadConfig{
			MaxFileSize:  10 << 20, // 10 MiB per payslip
			MaxBatchSize: 200,
		},
	}
}

// Load reads configuration from the given YAML file (optional) and
// PAYSLIP_ environment variables, layered over defaults.
// Environment variables use __ as the nesting delimiter, e.g.
// PAYSLIP_DATABASE__URL maps to database.url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider("PAYSLIP_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PAYSLIP_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("config: database.url is required")
	}
	if c.JWT.SecretKey == "" {
		return errors.New("config: jwt.secret_key is required")
	}
	if c.Mail.Enabled {
		if c.Mail.SMTPHost == "" {
			return errors.New("config: mail.smtp_host is required when mail is enabled")
		}
		if c.Mail.FromAddress == "" {
			return errors.New("config: mail.from_address is required when mail is enabled")
		}
	}
	return nil
}
