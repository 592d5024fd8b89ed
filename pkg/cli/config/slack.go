package config

import (
	"log/slog"

	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/service/notifier"
	"github.com/urfave/cli/v3"
)

// Slack forwards notice workflow events to an incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for notice events",
			Category:    "Slack",
			Destination: &x.webhookURL,
			Sources:     cli.EnvVars("NOTIFYME_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Channel override, e.g. #notices",
			Category:    "Slack",
			Destination: &x.channel,
			Sources:     cli.EnvVars("NOTIFYME_SLACK_CHANNEL"),
		},
		&cli.StringFlag{
			Name:        "slack-username",
			Usage:       "Display name of the posting bot",
			Category:    "Slack",
			Destination: &x.username,
			Sources:     cli.EnvVars("NOTIFYME_SLACK_USERNAME"),
			Value:       "NotifyMe",
		},
		&cli.StringFlag{
			Name:        "slack-icon-emoji",
			Category:    "Slack",
			Destination: &x.iconEmoji,
			Sources:     cli.EnvVars("NOTIFYME_SLACK_ICON_EMOJI"),
			Value:       ":loudspeaker:",
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.webhookURL != ""),
		slog.String("channel", x.channel),
	)
}

// Configure returns nil when no webhook is set.
func (x *Slack) Configure() interfaces.Notifier {
	if x.webhookURL == "" {
		return nil
	}
	return notifier.NewSlackNotifier(notifier.NewWebhook(x.webhookURL,
		notifier.WithChannel(x.channel),
		notifier.WithUsername(x.username),
		notifier.WithIconEmoji(x.iconEmoji),
	))
}
