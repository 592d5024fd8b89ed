package event

import (
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// NotificationEvent is an outbound event of the notice workflow.
type NotificationEvent interface {
	isNotificationEvent()
}

// NoticeCreatedEvent is fired when a notice is submitted
type NoticeCreatedEvent struct {
	Notice *notice.Notice
}

func (e *NoticeCreatedEvent) isNotificationEvent() {}

// NoticeAssignedEvent is fired when an organization claims a notice
type NoticeAssignedEvent struct {
	Notice  *notice.Notice
	OrgName string
}

func (e *NoticeAssignedEvent) isNotificationEvent() {}

// NoticeStatusChangedEvent is fired after a status transition
type NoticeStatusChangedEvent struct {
	Notice *notice.Notice
	From   types.NoticeStatus
	To     types.NoticeStatus
}

func (e *NoticeStatusChangedEvent) isNotificationEvent() {}

// ErrorEvent is fired when the workflow fails
type ErrorEvent struct {
	Error   error
	Message string
}

func (e *ErrorEvent) isNotificationEvent() {}
