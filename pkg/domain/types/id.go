package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// newV7 returns a time-ordered UUID: 48 bits of unix milliseconds followed by
// random bits, so IDs created within the same millisecond still differ.
func newV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id.String()
}

// UserID is the identity provider's stable identifier (Firebase uid).
type UserID string

func (x UserID) String() string {
	return string(x)
}

const EmptyUserID UserID = ""

type NoticeID string

func (x NoticeID) String() string {
	return string(x)
}

func NewNoticeID() NoticeID {
	return NoticeID(newV7())
}

func (x NoticeID) Validate() error {
	if x == EmptyNoticeID {
		return goerr.New("empty notice ID")
	}
	return nil
}

const EmptyNoticeID NoticeID = ""

type NotificationID string

func (x NotificationID) String() string {
	return string(x)
}

func NewNotificationID() NotificationID {
	return NotificationID(newV7())
}

type ToastID string

func (x ToastID) String() string {
	return string(x)
}

func NewToastID() ToastID {
	return ToastID(newV7())
}
