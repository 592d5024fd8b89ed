package types

import "github.com/m-mizutani/goerr/v2"

// MessageType classifies toasts and in-app notifications.
type MessageType string

const (
	MessageInfo    MessageType = "info"
	MessageSuccess MessageType = "success"
	MessageWarning MessageType = "warning"
	MessageError   MessageType = "error"
)

func (x MessageType) String() string {
	return string(x)
}

func (x MessageType) Validate() error {
	switch x {
	case MessageInfo, MessageSuccess, MessageWarning, MessageError:
		return nil
	}
	return goerr.New("invalid message type", goerr.V("type", x))
}
