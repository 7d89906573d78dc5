package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts alerts to a Discord channel over the gateway.
type DiscordNotifier struct {
	session   discordSession
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordNotifier.
type DiscordOpts struct {
	BotToken  string
	ChannelID string

	// session overrides the real gateway session in tests.
	session discordSession
}

// NewDiscordNotifier opens a gateway session and returns a notifier.
func NewDiscordNotifier(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord channel id is required")
	}
	session := opts.session
	if session == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: discord bot token is required")
		}
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: discord session: %w", err)
		}
		session = s
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("notify: discord connect: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: opts.ChannelID}, nil
}

func (n *DiscordNotifier) Post(text string) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, text); err != nil {
		return fmt.Errorf("notify: discord post: %w", err)
	}
	return nil
}

func (n *DiscordNotifier) Close() error {
	if err := n.session.Close(); err != nil {
		return fmt.Errorf("notify: discord close: %w", err)
	}
	return nil
}
