// Package config provides YAML-based configuration loading for TaskStorm.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level TaskStorm configuration, loaded from config.yaml.
// Secrets (JWT secret, database password) may also come from the
// environment, which takes precedence over the file.
type Config struct {
	HTTPPort int            `yaml:"http_port"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Chat     ChatConfig     `yaml:"chat"`
	Uploads  UploadConfig   `yaml:"uploads"`

	// PurgeSchedule is a 5-field cron expression for the dead
	// refresh-token sweep.
	PurgeSchedule string `yaml:"purge_schedule"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// JWTConfig holds signing parameters for access tokens.
type JWTConfig struct {
	Secret        string `yaml:"secret"`
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	ExpiryMinutes int    `yaml:"expiry_minutes"`
}

// ChatConfig points at the external chat bridge service.
type ChatConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// SlackBotToken enables the direct Slack notifier when set.
	SlackBotToken string `yaml:"slack_bot_token"`
	// SlackChannel is the channel the direct notifier posts to.
	SlackChannel string `yaml:"slack_channel"`
}

// UploadConfig controls comment-attachment storage.
type UploadConfig struct {
	Dir          string `yaml:"dir"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults, so the server can run from
// environment variables alone.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values with environment variables where set.
func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		c.JWT.Issuer = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		c.JWT.Audience = v
	}
	if v := os.Getenv("TS_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("TS_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("CHAT_SERVER_ADDRESS"); v != "" {
		c.Chat.Host = v
	}
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Chat.SlackBotToken = v
	}
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.HTTPPort == 0 {
		c.HTTPPort = 6901
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "taskstorm"
	}
	if c.Database.User == "" {
		c.Database.User = "taskstorm"
	}
	if c.JWT.ExpiryMinutes == 0 {
		c.JWT.ExpiryMinutes = 60
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "taskstorm"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "taskstorm-api"
	}
	if c.Chat.Host == "" {
		c.Chat.Host = "localhost"
	}
	if c.Chat.Port == 0 {
		c.Chat.Port = 6969
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.MaxSizeBytes == 0 {
		c.Uploads.MaxSizeBytes = 10 << 20
	}
	if c.PurgeSchedule == "" {
		c.PurgeSchedule = "0 3 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.JWT.Secret == "" {
		errs = append(errs, "jwt.secret is required (file or JWT_SECRET)")
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, "http_port out of range")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, "database.port out of range")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ChatBaseURL returns the base URL of the chat bridge service.
func (c *Config) ChatBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Chat.Host, c.Chat.Port)
}
