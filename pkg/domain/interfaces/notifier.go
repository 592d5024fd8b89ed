package interfaces

import (
	"context"

	"github.com/secmon-lab/notifyme/pkg/domain/event"
)

// Notifier receives notice workflow events. Implementations write to the
// console, Slack or other channels and must not block the caller for long.
type Notifier interface {
	NotifyNoticeCreated(ctx context.Context, ev *event.NoticeCreatedEvent)
	NotifyNoticeAssigned(ctx context.Context, ev *event.NoticeAssignedEvent)
	NotifyNoticeStatusChanged(ctx context.Context, ev *event.NoticeStatusChangedEvent)
	NotifyError(ctx context.Context, ev *event.ErrorEvent)
}
