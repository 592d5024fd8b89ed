package notification

import "fmt"

// Messages surfaced as toasts.
const (
	MsgLogout           = "Logged out successfully"
	MsgNoticeLoadFailed = "Failed to load notices. Please try again."
	MsgNoticeSubmitted  = "Notice submitted successfully!"
	MsgNoticeFailed     = "Failed to submit notice. Please try again."
	MsgFixFormErrors    = "Please fix the form errors"
	MsgLoginRequired    = "You must be logged in to submit a notice"
	MsgNoticeAssigned   = "Notice assigned successfully!"
	MsgAssignFailed     = "Failed to assign notice. Please try again."
	MsgStatusUpdated    = "Notice status updated!"
	MsgStatusFailed     = "Failed to update notice status. Please try again."
	MsgLoadNotifsFailed = "Failed to load notifications"
)

func WelcomeBack(name string) string {
	return fmt.Sprintf("Welcome back, %s!", name)
}

func Welcome(name string) string {
	return fmt.Sprintf("Welcome to NotifyMe, %s!", name)
}
