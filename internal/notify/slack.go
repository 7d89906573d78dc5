package notify

import (
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	AuthTest() (*slackapi.AuthTestResponse, error)
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackNotifier posts alerts to a Slack channel via the Web API.
type SlackNotifier struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a SlackNotifier.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post alerts to

	// client overrides the real API client in tests.
	client slackClient
}

// NewSlackNotifier validates credentials and returns a connected notifier.
func NewSlackNotifier(opts SlackOpts) (*SlackNotifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack channel id is required")
	}
	client := opts.client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: slack bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	if _, err := client.AuthTest(); err != nil {
		return nil, fmt.Errorf("notify: slack auth: %w", err)
	}
	return &SlackNotifier{client: client, channelID: opts.ChannelID}, nil
}

func (n *SlackNotifier) Post(text string) error {
	if _, _, err := n.client.PostMessage(n.channelID, slackapi.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	return nil
}

func (n *SlackNotifier) Close() error { return nil }
