package notification

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// Notification is an in-app notification. It is never deleted, only marked
// as read.
type Notification struct {
	ID          types.NotificationID `json:"id" yaml:"id"`
	Title       string               `json:"title" yaml:"title"`
	Description string               `json:"description" yaml:"description"`
	Timestamp   time.Time            `json:"timestamp" yaml:"-"`
	Type        types.MessageType    `json:"type" yaml:"type"`
	IsRead      bool                 `json:"isRead" yaml:"isRead"`
	ActionURL   string               `json:"actionUrl,omitempty" yaml:"actionUrl,omitempty"`
}

type Notifications []Notification

// UnreadCount counts notifications that are not read.
func (x Notifications) UnreadCount() int {
	var n int
	for _, v := range x {
		if !v.IsRead {
			n++
		}
	}
	return n
}

func (x Notification) Age(now time.Time) string {
	return humanize.RelTime(x.Timestamp, now, "ago", "from now")
}

// DefaultToastDuration applies when a toast is enqueued without duration.
const DefaultToastDuration = 5 * time.Second

// Toast is a transient message shown to the user.
type Toast struct {
	ID        types.ToastID     `json:"id"`
	Title     string            `json:"title,omitempty"`
	Message   string            `json:"message"`
	Type      types.MessageType `json:"type"`
	Duration  time.Duration     `json:"duration"`
	IsVisible bool              `json:"isVisible"`
}

// AutoDismiss reports whether the toast has a timer.
func (x Toast) AutoDismiss() bool {
	return x.Duration > 0
}

// Persistent keeps a toast until it is dismissed. Any duration <= 0 does.
const Persistent time.Duration = 0

// ToastInput describes a toast to enqueue. A nil Duration means
// DefaultToastDuration; a duration <= 0 never auto-dismisses.
type ToastInput struct {
	Title    string
	Message  string
	Type     types.MessageType
	Duration *time.Duration
}

// Lasting sets an explicit ToastInput duration.
func Lasting(d time.Duration) *time.Duration {
	return &d
}
