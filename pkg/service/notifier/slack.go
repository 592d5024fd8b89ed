package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/event"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"github.com/slack-go/slack"
)

// MessagePoster posts a message to a Slack channel.
type MessagePoster interface {
	PostMessage(ctx context.Context, msg *slack.WebhookMessage) error
}

// Webhook posts messages through a Slack incoming webhook.
type Webhook struct {
	url       string
	channel   string
	username  string
	iconEmoji string
}

type WebhookOption func(*Webhook)

// WithChannel overrides the webhook's default channel.
func WithChannel(channel string) WebhookOption {
	return func(x *Webhook) { x.channel = channel }
}

func WithUsername(username string) WebhookOption {
	return func(x *Webhook) { x.username = username }
}

func WithIconEmoji(emoji string) WebhookOption {
	return func(x *Webhook) { x.iconEmoji = emoji }
}

func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	x := &Webhook{url: url}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// PostMessage sends msg. Fields left empty in msg take the webhook defaults.
func (x *Webhook) PostMessage(ctx context.Context, msg *slack.WebhookMessage) error {
	if msg.Channel == "" {
		msg.Channel = x.channel
	}
	if msg.Username == "" {
		msg.Username = x.username
	}
	if msg.IconEmoji == "" {
		msg.IconEmoji = x.iconEmoji
	}
	if err := slack.PostWebhookContext(ctx, x.url, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook",
			goerr.T(errs.TagExternal),
			goerr.TV(errutil.EndpointKey, "slack"))
	}
	return nil
}

const descriptionLimit = 300

// SlackNotifier posts notice workflow events to a Slack channel so that
// organizations see new reports without opening the board.
type SlackNotifier struct {
	poster MessagePoster
}

func NewSlackNotifier(poster MessagePoster) interfaces.Notifier {
	return &SlackNotifier{poster: poster}
}

func (n *SlackNotifier) NotifyNoticeCreated(ctx context.Context, ev *event.NoticeCreatedEvent) {
	n.post(ctx, &slack.WebhookMessage{
		Text:        fmt.Sprintf("*New notice*: %s", ev.Notice.Title),
		Attachments: []slack.Attachment{noticeAttachment(ev.Notice)},
	})
}

func (n *SlackNotifier) NotifyNoticeAssigned(ctx context.Context, ev *event.NoticeAssignedEvent) {
	n.post(ctx, &slack.WebhookMessage{
		Text:        fmt.Sprintf("*Notice assigned* to `%s`: %s", ev.OrgName, ev.Notice.Title),
		Attachments: []slack.Attachment{noticeAttachment(ev.Notice)},
	})
}

func (n *SlackNotifier) NotifyNoticeStatusChanged(ctx context.Context, ev *event.NoticeStatusChangedEvent) {
	n.post(ctx, &slack.WebhookMessage{
		Text: fmt.Sprintf("*Status changed*: %s\n`%s` → `%s`", ev.Notice.Title, ev.From, ev.To),
	})
}

func (n *SlackNotifier) NotifyError(ctx context.Context, ev *event.ErrorEvent) {
	n.post(ctx, &slack.WebhookMessage{Text: formatError(ev)})
}

func (n *SlackNotifier) post(ctx context.Context, msg *slack.WebhookMessage) {
	if err := n.poster.PostMessage(ctx, msg); err != nil {
		errs.Handle(ctx, err)
	}
}

func noticeAttachment(n *notice.Notice) slack.Attachment {
	fields := []slack.AttachmentField{
		{Title: "Category", Value: string(n.Category), Short: true},
		{Title: "Location", Value: n.Location, Short: true},
		{Title: "Status", Value: string(n.EffectiveStatus()), Short: true},
		{Title: "Posted", Value: notice.FormatTimestamp(n.Timestamp), Short: true},
	}
	if n.Author != "" {
		fields = append(fields, slack.AttachmentField{Title: "Author", Value: n.Author, Short: true})
	}
	if n.AssignedOrg != "" {
		fields = append(fields, slack.AttachmentField{Title: "Assigned", Value: n.AssignedOrg, Short: true})
	}

	return slack.Attachment{
		Color:  categoryColor(n.Category),
		Title:  n.Title,
		Text:   truncate(n.Description, descriptionLimit),
		Fields: fields,
		Footer: string(n.ID),
	}
}

func categoryColor(c types.Category) string {
	switch c {
	case types.CategoryEmergency:
		return "danger"
	case types.CategoryMaintenance, types.CategoryComplaint:
		return "warning"
	case types.CategoryEvent, types.CategoryAnnouncement:
		return "good"
	default:
		return "#439FE0"
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func formatError(e *event.ErrorEvent) string {
	var msg strings.Builder
	msg.WriteString("*Error*\n")
	msg.WriteString(fmt.Sprintf(":x: %s\n", e.Message))

	if e.Error != nil {
		msg.WriteString(fmt.Sprintf("```\n%v\n```", e.Error))
	}
	return msg.String()
}
