// Package config provides YAML-based configuration loading for CSMS Track.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone data must not depend on the host image

	"gopkg.in/yaml.v3"
)

// Config is the top-level CSMS Track configuration, loaded from csms.yaml.
type Config struct {
	Timezone  string         `yaml:"timezone"`
	Database  DatabaseConfig `yaml:"database"`
	Server    ServerConfig   `yaml:"server"`
	Reminders ReminderConfig `yaml:"reminders"`
	Email     EmailConfig    `yaml:"email"`
	Storage   StorageConfig  `yaml:"storage"`
	Chat      ChatConfig     `yaml:"chat"`
	Logging   LoggingConfig  `yaml:"logging"`
	Reports   ReportsConfig  `yaml:"reports"`
	Upstream  UpstreamConfig `yaml:"upstream"`
}

// DatabaseConfig selects the gorm driver and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres, mysql or sqlite
	DSN    string `yaml:"dsn"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ReminderConfig controls the reminder evaluator and its periodic trigger.
type ReminderConfig struct {
	LookaheadDays       int     `yaml:"lookahead_days"`
	RigDownDays         int     `yaml:"rig_down_days"`
	CompletionThreshold float64 `yaml:"completion_threshold"`
	Cron                string  `yaml:"cron"`
	Period              string  `yaml:"period"` // milestone or daily
	FallbackRecipient   string  `yaml:"fallback_recipient"`
	MarkerStore         string  `yaml:"marker_store"` // db or redis
	RedisAddr           string  `yaml:"redis_addr"`
	RedisPassword       string  `yaml:"redis_password"`
}

// EmailConfig configures the Brevo transactional email collaborator.
type EmailConfig struct {
	APIKey      string `yaml:"api_key"`
	SenderEmail string `yaml:"sender_email"`
	SenderName  string `yaml:"sender_name"`
	BaseURL     string `yaml:"base_url"`
}

// StorageConfig configures the object-storage collaborator.
type StorageConfig struct {
	Drive DriveConfig `yaml:"drive"`
}

// DriveConfig holds Google Drive OAuth credentials and the upload folder.
type DriveConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	FolderID     string `yaml:"folder_id"`
}

// Enabled reports whether enough credentials are present to upload.
func (d DriveConfig) Enabled() bool {
	return d.ClientID != "" && d.ClientSecret != "" && d.RefreshToken != ""
}

// ChatConfig holds webhook targets for reminder digests.
type ChatConfig struct {
	SlackWebhookURL     string `yaml:"slack_webhook_url"`
	DiscordWebhookID    string `yaml:"discord_webhook_id"`
	DiscordWebhookToken string `yaml:"discord_webhook_token"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Persist     bool   `yaml:"persist"` // also append to app_logs
}

// ReportsConfig controls report delivery.
type ReportsConfig struct {
	Recipients []string `yaml:"recipients"`
}

// UpstreamConfig bounds every blocking collaborator call.
type UpstreamConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads a YAML config file from path and returns a validated Config.
// ${VAR} references are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location returns the reference timezone used for every date comparison.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Asia/Jakarta"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "file:csms.db?_foreign_keys=on"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	r := &c.Reminders
	if r.LookaheadDays == 0 {
		r.LookaheadDays = 3
	}
	if r.RigDownDays == 0 {
		r.RigDownDays = 2
	}
	if r.CompletionThreshold == 0 {
		r.CompletionThreshold = 80
	}
	if r.Cron == "" {
		r.Cron = "0 7 * * *"
	}
	if r.Period == "" {
		r.Period = "milestone"
	}
	if r.MarkerStore == "" {
		r.MarkerStore = "db"
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = "https://api.brevo.com/v3"
	}
	if c.Email.SenderName == "" {
		c.Email.SenderName = "CSMS PHM"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 30 * time.Second
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q is not a valid IANA zone", c.Timezone))
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be postgres, mysql or sqlite", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	r := c.Reminders
	if r.LookaheadDays < 0 {
		errs = append(errs, "reminders.lookahead_days must not be negative")
	}
	if r.RigDownDays < 0 {
		errs = append(errs, "reminders.rig_down_days must not be negative")
	}
	if r.CompletionThreshold < 0 || r.CompletionThreshold > 100 {
		errs = append(errs, "reminders.completion_threshold must be between 0 and 100")
	}
	if r.Period != "milestone" && r.Period != "daily" {
		errs = append(errs, fmt.Sprintf("reminders.period %q must be milestone or daily", r.Period))
	}
	switch r.MarkerStore {
	case "db":
	case "redis":
		if r.RedisAddr == "" {
			errs = append(errs, "reminders.redis_addr is required when marker_store is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("reminders.marker_store %q must be db or redis", r.MarkerStore))
	}
	if (c.Chat.DiscordWebhookID == "") != (c.Chat.DiscordWebhookToken == "") {
		errs = append(errs, "chat.discord_webhook_id and chat.discord_webhook_token must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
