package toast

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
)

// Persistent as a duration keeps the toast until it is dismissed.
const Persistent = notification.Persistent

type EventKind string

const (
	EventToastAdded           EventKind = "toast_added"
	EventToastRemoved         EventKind = "toast_removed"
	EventToastsCleared        EventKind = "toasts_cleared"
	EventNotificationsChanged EventKind = "notifications_changed"
)

// Event describes a queue change. Toasts and Notifications hold the state
// after the change.
type Event struct {
	Kind          EventKind                  `json:"kind"`
	ToastID       types.ToastID              `json:"toastId,omitempty"`
	Toasts        []notification.Toast       `json:"toasts"`
	Notifications notification.Notifications `json:"notifications,omitempty"`
	UnreadCount   int                        `json:"unreadCount"`
}

// Queue holds transient toasts and the in-app notification list.
type Queue struct {
	mu            sync.Mutex
	toasts        []notification.Toast
	timers        map[types.ToastID]*time.Timer
	notifications notification.Notifications
	unread        int
	closed        bool
	defaultTTL    time.Duration

	watchMu  sync.Mutex
	watchers map[int]func(Event)
	nextID   int
}

var _ interfaces.ToastSink = &Queue{}

type Option func(*Queue)

// WithDefaultDuration replaces notification.DefaultToastDuration for toasts
// enqueued without a duration.
func WithDefaultDuration(d time.Duration) Option {
	return func(q *Queue) { q.defaultTTL = d }
}

func New(opts ...Option) *Queue {
	q := &Queue{
		timers:     make(map[types.ToastID]*time.Timer),
		watchers:   make(map[int]func(Event)),
		defaultTTL: notification.DefaultToastDuration,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Close stops every pending auto-dismiss timer. The queue keeps its
// state but no longer schedules timers.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
}

// Watch registers fn for every change. fn runs outside the queue lock.
func (q *Queue) Watch(fn func(Event)) func() {
	q.watchMu.Lock()
	id := q.nextID
	q.nextID++
	q.watchers[id] = fn
	q.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.watchMu.Lock()
			delete(q.watchers, id)
			q.watchMu.Unlock()
		})
	}
}

func (q *Queue) publish(ev Event) {
	q.watchMu.Lock()
	fns := make([]func(Event), 0, len(q.watchers))
	for _, fn := range q.watchers {
		fns = append(fns, fn)
	}
	q.watchMu.Unlock()

	for _, fn := range fns {
		safe.Call(context.Background(), "toast_watch", func() { fn(ev) })
	}
}

// snapshot builds an event from the current state. Caller holds q.mu.
func (q *Queue) snapshot(kind EventKind, id types.ToastID) Event {
	return Event{
		Kind:          kind,
		ToastID:       id,
		Toasts:        slices.Clone(q.toasts),
		Notifications: slices.Clone(q.notifications),
		UnreadCount:   q.unread,
	}
}

// EnqueueToast appends a visible toast. Without a duration the queue default
// applies; a duration <= 0 never expires.
func (q *Queue) EnqueueToast(input notification.ToastInput) types.ToastID {
	t := notification.Toast{
		ID:        types.NewToastID(),
		Title:     input.Title,
		Message:   input.Message,
		Type:      input.Type,
		Duration:  q.defaultTTL,
		IsVisible: true,
	}
	if t.Type == "" {
		t.Type = types.MessageInfo
	}
	if input.Duration != nil {
		t.Duration = max(*input.Duration, 0)
	}

	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	if t.AutoDismiss() && !q.closed {
		id := t.ID
		q.timers[id] = time.AfterFunc(t.Duration, func() { q.DismissToast(id) })
	}
	ev := q.snapshot(EventToastAdded, t.ID)
	q.mu.Unlock()

	q.publish(ev)
	return t.ID
}

func (q *Queue) Success(message, title string) types.ToastID {
	return q.EnqueueToast(notification.ToastInput{Message: message, Title: title, Type: types.MessageSuccess})
}

func (q *Queue) Error(message, title string) types.ToastID {
	return q.EnqueueToast(notification.ToastInput{Message: message, Title: title, Type: types.MessageError})
}

func (q *Queue) Warning(message, title string) types.ToastID {
	return q.EnqueueToast(notification.ToastInput{Message: message, Title: title, Type: types.MessageWarning})
}

func (q *Queue) Info(message, title string) types.ToastID {
	return q.EnqueueToast(notification.ToastInput{Message: message, Title: title, Type: types.MessageInfo})
}

// DismissToast removes the toast and cancels its timer. Unknown or already
// dismissed IDs are ignored.
func (q *Queue) DismissToast(id types.ToastID) {
	q.mu.Lock()
	idx := slices.IndexFunc(q.toasts, func(t notification.Toast) bool { return t.ID == id })
	if idx < 0 {
		q.mu.Unlock()
		return
	}

	q.toasts = slices.Delete(q.toasts, idx, idx+1)
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	ev := q.snapshot(EventToastRemoved, id)
	q.mu.Unlock()

	q.publish(ev)
}

// ClearToasts removes every toast and cancels all timers.
func (q *Queue) ClearToasts() {
	q.mu.Lock()
	q.toasts = nil
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	ev := q.snapshot(EventToastsCleared, "")
	q.mu.Unlock()

	q.publish(ev)
}

// Toasts returns the visible toasts in insertion order.
func (q *Queue) Toasts() []notification.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.toasts)
}

// EnqueueNotification prepends n as unread.
func (q *Queue) EnqueueNotification(n notification.Notification) types.NotificationID {
	if n.ID == "" {
		n.ID = types.NewNotificationID()
	}
	if n.Type == "" {
		n.Type = types.MessageInfo
	}
	n.IsRead = false

	q.mu.Lock()
	q.notifications = slices.Insert(q.notifications, 0, n)
	q.unread++
	ev := q.snapshot(EventNotificationsChanged, "")
	q.mu.Unlock()

	q.publish(ev)
	return n.ID
}

// MarkRead marks one notification read and recounts the unread ones.
func (q *Queue) MarkRead(id types.NotificationID) {
	q.mu.Lock()
	for i := range q.notifications {
		if q.notifications[i].ID == id {
			q.notifications[i].IsRead = true
		}
	}
	q.unread = q.notifications.UnreadCount()
	ev := q.snapshot(EventNotificationsChanged, "")
	q.mu.Unlock()

	q.publish(ev)
}

func (q *Queue) MarkAllRead() {
	q.mu.Lock()
	for i := range q.notifications {
		q.notifications[i].IsRead = true
	}
	q.unread = 0
	ev := q.snapshot(EventNotificationsChanged, "")
	q.mu.Unlock()

	q.publish(ev)
}

// LoadNotifications replaces the list, e.g. with seeded notifications.
func (q *Queue) LoadNotifications(list notification.Notifications) {
	q.mu.Lock()
	q.notifications = slices.Clone(list)
	q.unread = q.notifications.UnreadCount()
	ev := q.snapshot(EventNotificationsChanged, "")
	q.mu.Unlock()

	q.publish(ev)
}

func (q *Queue) Notifications() notification.Notifications {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.notifications)
}

func (q *Queue) UnreadCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unread
}
