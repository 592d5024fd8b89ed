package interfaces

import (
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// ToastSink accepts user feedback messages.
type ToastSink interface {
	EnqueueToast(input notification.ToastInput) types.ToastID
}
