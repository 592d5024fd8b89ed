package notification_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

func TestParseSeed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	data := []byte(`
notifications:
  - id: "1"
    title: Maintenance Notice
    description: Water supply will be interrupted tomorrow
    type: warning
    age: 2h
    actionUrl: /notices/1
  - title: Security Update
    description: New cameras in parking area
    type: success
    isRead: true
    age: 72h
`)

	list, err := notification.ParseSeed(data, now)
	gt.NoError(t, err).Required()
	gt.A(t, list).Length(2)

	gt.Equal(t, list[0].ID, types.NotificationID("1"))
	gt.Equal(t, list[0].Type, types.MessageWarning)
	gt.Equal(t, list[0].ActionURL, "/notices/1")
	gt.True(t, list[0].Timestamp.Equal(now.Add(-2*time.Hour)))
	gt.Equal(t, list[0].Age(now), "2 hours ago")

	gt.NotEqual(t, list[1].ID, types.NotificationID(""))
	gt.True(t, list[1].IsRead)
	gt.Equal(t, list.UnreadCount(), 1)
}

func TestParseSeed_Invalid(t *testing.T) {
	now := time.Now()

	_, err := notification.ParseSeed([]byte("notifications:\n  - title: x\n    type: loud\n"), now)
	gt.Error(t, err)

	_, err = notification.ParseSeed([]byte("notifications:\n  - title: x\n    age: soon\n"), now)
	gt.Error(t, err)

	_, err = notification.ParseSeed([]byte("notifications:\n  - description: no title\n"), now)
	gt.Error(t, err)
}

func TestMessages(t *testing.T) {
	gt.Equal(t, notification.WelcomeBack("Alice"), "Welcome back, Alice!")
	gt.Equal(t, notification.Welcome("Bob"), "Welcome to NotifyMe, Bob!")
}
