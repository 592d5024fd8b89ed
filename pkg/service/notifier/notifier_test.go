package notifier_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/event"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/service/notifier"
	"github.com/slack-go/slack"
)

func newNotice() *notice.Notice {
	n := notice.Form{
		Title:       "Water outage",
		Description: "Water supply will be interrupted tomorrow from 9 AM to 2 PM",
		Category:    types.CategoryMaintenance,
		Location:    "Block B",
	}.NewNotice(notice.Author{ID: "uid-alice", Name: "Alice"})
	n.Timestamp = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	return n
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notifier.NewConsoleNotifier(&buf)
	ctx := t.Context()

	n.NotifyNoticeCreated(ctx, &event.NoticeCreatedEvent{Notice: newNotice()})
	n.NotifyNoticeAssigned(ctx, &event.NoticeAssignedEvent{Notice: newNotice(), OrgName: "Water Board"})
	n.NotifyNoticeStatusChanged(ctx, &event.NoticeStatusChangedEvent{
		Notice: newNotice(),
		From:   types.NoticeStatusOngoing,
		To:     types.NoticeStatusCompleted,
	})
	n.NotifyError(ctx, &event.ErrorEvent{Message: "submit failed", Error: errors.New("boom")})

	out := buf.String()
	gt.S(t, out).Contains("Water outage")
	gt.S(t, out).Contains("maintenance")
	gt.S(t, out).Contains("2025-06-01 09:30")
	gt.S(t, out).Contains("Water Board")
	gt.S(t, out).Contains("ongoing -> completed")
	gt.S(t, out).Contains("submit failed")
	gt.S(t, out).Contains("boom")
}

type recordPoster struct {
	mu       sync.Mutex
	messages []*slack.WebhookMessage
	err      error
}

func (x *recordPoster) PostMessage(ctx context.Context, msg *slack.WebhookMessage) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.messages = append(x.messages, msg)
	return x.err
}

func TestSlackNotifier(t *testing.T) {
	poster := &recordPoster{}
	n := notifier.NewSlackNotifier(poster)
	ctx := t.Context()

	created := newNotice()
	created.Category = types.CategoryEmergency
	n.NotifyNoticeCreated(ctx, &event.NoticeCreatedEvent{Notice: created})

	assigned := newNotice()
	assigned.AssignedOrg = "Water Board"
	n.NotifyNoticeAssigned(ctx, &event.NoticeAssignedEvent{Notice: assigned, OrgName: "Water Board"})
	n.NotifyError(ctx, &event.ErrorEvent{Message: "submit failed", Error: errors.New("boom")})

	gt.A(t, poster.messages).Length(3)

	msg := poster.messages[0]
	gt.S(t, msg.Text).Contains("Water outage")
	gt.A(t, msg.Attachments).Length(1)
	gt.Equal(t, msg.Attachments[0].Color, "danger")
	gt.Equal(t, msg.Attachments[0].Footer, string(created.ID))

	gt.S(t, poster.messages[1].Text).Contains("Water Board")
	var hasAssigned bool
	for _, f := range poster.messages[1].Attachments[0].Fields {
		if f.Title == "Assigned" && f.Value == "Water Board" {
			hasAssigned = true
		}
	}
	gt.True(t, hasAssigned)

	gt.S(t, poster.messages[2].Text).Contains(":x: submit failed")
	gt.S(t, poster.messages[2].Text).Contains("boom")
}

func TestSlackNotifier_PostFailure(t *testing.T) {
	poster := &recordPoster{err: errors.New("webhook down")}
	n := notifier.NewSlackNotifier(poster)

	// errors are reported, not propagated
	n.NotifyNoticeStatusChanged(t.Context(), &event.NoticeStatusChangedEvent{
		Notice: newNotice(),
		From:   types.NoticeStatusPending,
		To:     types.NoticeStatusOngoing,
	})
	gt.A(t, poster.messages).Length(1)
}

func TestWebhook(t *testing.T) {
	var got slack.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		gt.NoError(t, err)
		gt.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook := notifier.NewWebhook(srv.URL)
	gt.NoError(t, hook.PostMessage(t.Context(), &slack.WebhookMessage{Text: "hello"}))
	gt.Equal(t, got.Text, "hello")

	t.Run("defaults", func(t *testing.T) {
		hook := notifier.NewWebhook(srv.URL,
			notifier.WithChannel("#water-board"),
			notifier.WithUsername("NotifyMe"),
			notifier.WithIconEmoji(":bell:"),
		)
		gt.NoError(t, hook.PostMessage(t.Context(), &slack.WebhookMessage{Text: "assigned"}))
		gt.Equal(t, got.Channel, "#water-board")
		gt.Equal(t, got.Username, "NotifyMe")
		gt.Equal(t, got.IconEmoji, ":bell:")

		gt.NoError(t, hook.PostMessage(t.Context(), &slack.WebhookMessage{Text: "direct", Channel: "#ops"}))
		gt.Equal(t, got.Channel, "#ops")
	})

	t.Run("server error", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer bad.Close()

		gt.Error(t, notifier.NewWebhook(bad.URL).PostMessage(t.Context(), &slack.WebhookMessage{Text: "hello"}))
	})
}

func TestMulti(t *testing.T) {
	a, b := &recordPoster{}, &recordPoster{}
	m := notifier.Multi{
		notifier.NewSlackNotifier(a),
		notifier.Discard{},
		notifier.NewSlackNotifier(b),
	}
	m.NotifyNoticeCreated(t.Context(), &event.NoticeCreatedEvent{Notice: newNotice()})

	gt.A(t, a.messages).Length(1)
	gt.A(t, b.messages).Length(1)
}
