package notifier

import (
	"context"

	"github.com/secmon-lab/notifyme/pkg/domain/event"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
)

// Multi fans events out to several notifiers in order.
type Multi []interfaces.Notifier

func (m Multi) NotifyNoticeCreated(ctx context.Context, ev *event.NoticeCreatedEvent) {
	for _, n := range m {
		n.NotifyNoticeCreated(ctx, ev)
	}
}

func (m Multi) NotifyNoticeAssigned(ctx context.Context, ev *event.NoticeAssignedEvent) {
	for _, n := range m {
		n.NotifyNoticeAssigned(ctx, ev)
	}
}

func (m Multi) NotifyNoticeStatusChanged(ctx context.Context, ev *event.NoticeStatusChangedEvent) {
	for _, n := range m {
		n.NotifyNoticeStatusChanged(ctx, ev)
	}
}

func (m Multi) NotifyError(ctx context.Context, ev *event.ErrorEvent) {
	for _, n := range m {
		n.NotifyError(ctx, ev)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) NotifyNoticeCreated(context.Context, *event.NoticeCreatedEvent)             {}
func (Discard) NotifyNoticeAssigned(context.Context, *event.NoticeAssignedEvent)           {}
func (Discard) NotifyNoticeStatusChanged(context.Context, *event.NoticeStatusChangedEvent) {}
func (Discard) NotifyError(context.Context, *event.ErrorEvent)                             {}
