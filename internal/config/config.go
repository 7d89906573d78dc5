// Package config provides YAML-based configuration loading for Counsel.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Counsel configuration, loaded from counsel.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Retention RetentionConfig `yaml:"retention"`
	Notify    NotifyConfig    `yaml:"notify"`
	Seed      SeedConfig      `yaml:"seed"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DispatchConfig holds session-dispatch policy settings.
type DispatchConfig struct {
	// ReleaseConsultantOnClose returns a consultant to idle when their
	// session closes. Kept configurable: some desks keep consultants busy
	// through wrap-up work and release them explicitly.
	ReleaseConsultantOnClose *bool `yaml:"release_consultant_on_close"`
	// QueueAlertThreshold triggers a notifier alert when the waiting queue
	// reaches this depth. Zero disables alerting.
	QueueAlertThreshold int `yaml:"queue_alert_threshold"`
}

// RetentionConfig holds the closed-session purge policy.
type RetentionConfig struct {
	Days     int    `yaml:"days"`
	Schedule string `yaml:"schedule"` // 5-field cron expression
}

// NotifyConfig selects and configures the queue-alert notifier.
type NotifyConfig struct {
	Platform  string        `yaml:"platform"` // "slack", "discord", or "" for none
	ChannelID string        `yaml:"channel_id"`
	Slack     SlackConfig   `yaml:"slack"`
	Discord   DiscordConfig `yaml:"discord"`
}

// SeedConfig lists directory rows written during migration.
type SeedConfig struct {
	Consultants []SeedConsultant `yaml:"consultants"`
	Customers   []SeedCustomer   `yaml:"customers"`
}

// SeedConsultant is a consultant directory entry.
type SeedConsultant struct {
	LoginID string `yaml:"login_id"`
	Name    string `yaml:"name"`
}

// SeedCustomer is a customer directory entry.
type SeedCustomer struct {
	LoginID string `yaml:"login_id"`
	Tier    string `yaml:"tier"`
}

// SlackConfig holds the Slack bot token.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds the Discord bot token.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
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

// ReleaseOnClose resolves the close policy flag, defaulting to true.
func (c *Config) ReleaseOnClose() bool {
	if c.Dispatch.ReleaseConsultantOnClose == nil {
		return true
	}
	return *c.Dispatch.ReleaseConsultantOnClose
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "counsel"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Retention.Days == 0 {
		c.Retention.Days = 90
	}
	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "0 4 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Retention.Days < 0 {
		errs = append(errs, "retention.days must not be negative")
	}
	if c.Dispatch.QueueAlertThreshold < 0 {
		errs = append(errs, "dispatch.queue_alert_threshold must not be negative")
	}
	switch c.Notify.Platform {
	case "", "slack", "discord":
	default:
		errs = append(errs, fmt.Sprintf("notify.platform %q is not supported", c.Notify.Platform))
	}
	if c.Notify.Platform == "slack" && c.Notify.Slack.BotToken == "" {
		errs = append(errs, "notify.slack.bot_token is required for the slack platform")
	}
	if c.Notify.Platform == "discord" && c.Notify.Discord.BotToken == "" {
		errs = append(errs, "notify.discord.bot_token is required for the discord platform")
	}
	if c.Notify.Platform != "" && c.Notify.ChannelID == "" {
		errs = append(errs, "notify.channel_id is required when a platform is set")
	}
	for i, sc := range c.Seed.Consultants {
		if sc.LoginID == "" {
			errs = append(errs, fmt.Sprintf("seed.consultants[%d].login_id is required", i))
		}
	}
	for i, sc := range c.Seed.Customers {
		if sc.LoginID == "" {
			errs = append(errs, fmt.Sprintf("seed.customers[%d].login_id is required", i))
		}
		switch sc.Tier {
		case "", "basic", "vip":
		default:
			errs = append(errs, fmt.Sprintf("seed.customers[%d].tier %q is not supported", i, sc.Tier))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
