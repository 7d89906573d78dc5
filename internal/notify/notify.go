// Package notify posts operator alerts (queue depth) to chat platforms.
package notify

import (
	"fmt"

	"github.com/moabank/counsel/internal/config"
)

// Notifier is the interface platform-specific implementations satisfy.
type Notifier interface {
	// Post delivers one alert message to the configured channel.
	Post(text string) error

	// Close releases the platform connection.
	Close() error
}

// FromConfig builds the configured Notifier. Returns nil when alerting is
// disabled (no platform set).
func FromConfig(cfg config.NotifyConfig) (Notifier, error) {
	switch cfg.Platform {
	case "":
		return nil, nil
	case "slack":
		return NewSlackNotifier(SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.ChannelID,
		})
	case "discord":
		return NewDiscordNotifier(DiscordOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.ChannelID,
		})
	default:
		return nil, fmt.Errorf("notify: unsupported platform %q", cfg.Platform)
	}
}
