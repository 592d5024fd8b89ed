package websocket_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/websocket"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

func TestClientMessage_FromBytes(t *testing.T) {
	testCases := []struct {
		name     string
		jsonData string
		valid    bool
		wantErr  bool
	}{
		{
			name:     "ping",
			jsonData: `{"type":"ping","timestamp":1234567890}`,
			valid:    true,
		},
		{
			name:     "filter",
			jsonData: `{"type":"filter","filter":{"category":"event","orderDirection":"asc"}}`,
			valid:    true,
		},
		{
			name:     "filter without body",
			jsonData: `{"type":"filter"}`,
			valid:    false,
		},
		{
			name:     "unknown type",
			jsonData: `{"type":"message"}`,
			valid:    false,
		},
		{
			name:     "invalid json",
			jsonData: `{"type":"ping",}`,
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg websocket.ClientMessage
			err := msg.FromBytes([]byte(tc.jsonData))

			if tc.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, msg.IsValidMessageType()).Equal(tc.valid)
		})
	}

	t.Run("filter fields", func(t *testing.T) {
		var msg websocket.ClientMessage
		gt.NoError(t, msg.FromBytes([]byte(`{"type":"filter","filter":{"category":"event","orderDirection":"asc"}}`)))
		gt.Value(t, msg.Filter.Category).Equal(types.CategoryEvent)
		gt.Value(t, msg.Filter.OrderDirection).Equal(types.SortAsc)
	})
}

func TestServerMessage(t *testing.T) {
	msg := websocket.NewFeedMessage(websocket.Feed{
		Notices: notice.Notices{{ID: "n1", Title: "Water outage"}},
		Loading: false,
	})
	gt.True(t, msg.IsValidResponseType())

	data, err := msg.ToBytes()
	gt.NoError(t, err).Required()

	var raw map[string]any
	gt.NoError(t, json.Unmarshal(data, &raw)).Required()
	gt.Value(t, raw["type"]).Equal("feed")
	gt.Map(t, raw).HasKey("feed")
	_, hasToasts := raw["toasts"]
	gt.False(t, hasToasts)
	gt.Number(t, raw["timestamp"].(float64)).Greater(0)

	gt.Value(t, websocket.NewErrorMessage("boom").Content).Equal("boom")
	gt.Value(t, websocket.NewPongMessage().Type).Equal("pong")
	gt.False(t, (&websocket.ServerMessage{Type: "chat"}).IsValidResponseType())
}
