package websocket

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	websocket_model "github.com/secmon-lab/notifyme/pkg/domain/model/websocket"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/service/feed"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

// Handler streams the realtime notice feed over WebSocket connections
type Handler struct {
	hub      *Hub
	feed     *feed.Service
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, feedSvc *feed.Service) *Handler {
	return &Handler{
		hub:  hub,
		feed: feedSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

func filterFromRequest(r *http.Request) notice.Query {
	q := r.URL.Query()
	return notice.Query{
		AuthorID:       types.UserID(q.Get("authorId")),
		Category:       types.Category(q.Get("category")),
		OrderByField:   q.Get("orderBy"),
		OrderDirection: types.SortDirection(q.Get("direction")),
	}
}

// HandleNotices upgrades the request and pushes feed states for the query
// filter until the connection closes. Clients may change the filter or
// retry after a failure with filter and retry messages.
func (h *Handler) HandleNotices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	filter := filterFromRequest(r)
	if err := filter.Validate(); err != nil {
		logger.Warn("invalid feed filter", logging.ErrAttr(err))
		http.Error(w, "Invalid filter", http.StatusBadRequest)
		return
	}

	tabID := r.URL.Query().Get("tab")
	if tabID == "" {
		tabID = "default"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("failed to upgrade connection",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
			"tab_id", tabID)
		// upgrader has already written the response
		return
	}

	client := h.hub.NewClient(conn, tabID)
	h.hub.Register(client)

	sub := h.feed.Subscribe(client.ctx, filter)

	go h.forwardFeed(client, sub)
	go h.writePump(client)
	go h.readPump(client, sub)

	logger.Info("WebSocket feed connection established", "tab_id", tabID, "client_id", client.clientID)
}

// forwardFeed relays feed states until the subscription closes
func (h *Handler) forwardFeed(client *Client, sub *feed.Subscription) {
	for state := range sub.Updates() {
		msg := websocket_model.NewFeedMessage(websocket_model.Feed{
			Notices: state.Notices,
			Loading: state.Loading,
			Error:   state.Error(),
		})
		if err := h.hub.SendTo(client, msg); err != nil {
			logging.From(client.ctx).Warn("failed to send feed state", logging.ErrAttr(err))
			return
		}
	}
}

// readPump handles client messages until the connection is closed
func (h *Handler) readPump(client *Client, sub *feed.Subscription) {
	logger := logging.From(client.ctx)

	defer func() {
		sub.Close()
		h.hub.Unregister(client)
		if err := client.conn.Close(); err != nil {
			logger.Debug("failed to close connection in readPump", "error", err)
		}
	}()

	client.conn.SetReadLimit(maxMessageSize)
	if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("failed to set read deadline", "error", err)
		return
	}
	client.conn.SetPongHandler(func(string) error {
		if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("unexpected WebSocket close", "error", err)
			}
			return
		}

		var msg websocket_model.ClientMessage
		if err := msg.FromBytes(data); err != nil {
			logger.Warn("invalid message format", "error", err)
			h.sendError(client, "Invalid message format")
			continue
		}
		if !msg.IsValidMessageType() {
			logger.Warn("invalid message type", "type", msg.Type)
			h.sendError(client, "Invalid message type")
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.hub.SendTo(client, websocket_model.NewPongMessage()); err != nil {
				logger.Debug("failed to send pong", logging.ErrAttr(err))
			}

		case "filter":
			if err := msg.Filter.Validate(); err != nil {
				h.sendError(client, "Invalid filter")
				continue
			}
			sub.SetFilter(*msg.Filter)

		case "retry":
			sub.Retry()
		}
	}
}

// writePump pumps queued messages to the websocket connection
func (h *Handler) writePump(client *Client) {
	logger := logging.From(client.ctx)
	ticker := time.NewTicker(pingPeriod)

	client.mu.Lock()
	send := client.send
	client.mu.Unlock()

	defer func() {
		ticker.Stop()
		if err := client.conn.Close(); err != nil {
			logger.Debug("failed to close connection in writePump", "error", err)
		}
	}()

	if send == nil {
		return
	}

	for {
		select {
		case <-client.ctx.Done():
			return

		case message, ok := <-send:
			if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline", "error", err)
				return
			}
			if !ok {
				// The hub closed the channel
				if err := client.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Debug("failed to write close message", "error", err)
				}
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline for ping", "error", err)
				return
			}
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendError(client *Client, message string) {
	if err := h.hub.SendTo(client, websocket_model.NewErrorMessage(message)); err != nil {
		logging.From(client.ctx).Debug("failed to send error message", logging.ErrAttr(err))
	}
}
