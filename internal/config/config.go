// Package config loads runtime settings from an optional YAML file, an
// optional .env file and the process environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AWSConfig holds the Rekognition connection settings.
type AWSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Endpoint        string `yaml:"endpoint"`
}

// RateLimitConfig configures the optional Redis-backed upload limiter.
type RateLimitConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	Limit     int           `yaml:"limit"`
	Window    time.Duration `yaml:"window"`
}

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr           string          `yaml:"http_addr"`
	GRPCHealthAddr     string          `yaml:"grpc_health_addr"`
	GinMode            string          `yaml:"gin_mode"`
	LogLevel           string          `yaml:"log_level"`
	RecognitionTimeout time.Duration   `yaml:"recognition_timeout"`
	ShutdownTimeout    time.Duration   `yaml:"shutdown_timeout"`
	TrustedProxies     []string        `yaml:"trusted_proxies"`
	AWS                AWSConfig       `yaml:"aws"`
	RateLimit          RateLimitConfig `yaml:"rate_limit"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HTTPAddr:           ":8080",
		GinMode:            "release",
		LogLevel:           "info",
		RecognitionTimeout: 30 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		AWS:                AWSConfig{Region: "us-east-1"},
		RateLimit:          RateLimitConfig{Limit: 30, Window: time.Minute},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path or a missing file is not an error. A .env file in the working
// directory is loaded when present without overriding variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.GRPCHealthAddr, "GRPC_HEALTH_ADDR")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.AWS.Region, "AWS_REGION")
	setString(&cfg.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&cfg.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&cfg.AWS.SessionToken, "AWS_SESSION_TOKEN")
	setString(&cfg.AWS.Endpoint, "REKOGNITION_ENDPOINT")
	setString(&cfg.RateLimit.RedisAddr, "REDIS_ADDR")
	setList(&cfg.TrustedProxies, "TRUSTED_PROXIES")

	if err := setDuration(&cfg.RecognitionTimeout, "RECOGNITION_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RateLimit.Window, "UPLOAD_RATE_WINDOW"); err != nil {
		return err
	}
	if value := getEnv("UPLOAD_RATE_LIMIT"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("UPLOAD_RATE_LIMIT must be an integer: %w", err)
		}
		cfg.RateLimit.Limit = limit
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.AWS.Region == "" {
		return errors.New("AWS_REGION is required")
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}
	if c.RecognitionTimeout <= 0 {
		return errors.New("RECOGNITION_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.RateLimit.RedisAddr != "" {
		if c.RateLimit.Limit <= 0 {
			return errors.New("UPLOAD_RATE_LIMIT must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("UPLOAD_RATE_WINDOW must be positive")
		}
	}
	return nil
}

// RateLimitEnabled reports whether uploads should be rate limited.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit.RedisAddr != ""
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if value := getEnv(key); value != "" {
		*dst = value
	}
}

func setList(dst *[]string, key string) {
	value := getEnv(key)
	if value == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func setDuration(dst *time.Duration, key string) error {
	value := getEnv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	*dst = d
	return nil
}
