package websocket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	websocket_model "github.com/secmon-lab/notifyme/pkg/domain/model/websocket"
	"github.com/secmon-lab/notifyme/pkg/service/toast"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients indexed by client ID
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages. nil once closed.
	send chan []byte
	mu   sync.Mutex

	// Tab ID to distinguish multiple connections from the same browser
	tabID    string
	clientID string

	ctx    context.Context
	cancel context.CancelFunc
}

const (
	// Maximum message size allowed from peer (64KB)
	maxMessageSize = 64 * 1024

	maxClients = 100

	clientSendBufferSize = 256
)

// NewHub creates a new Hub
func NewHub(ctx context.Context) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	logger := logging.From(h.ctx)
	logger.Info("WebSocket Hub started")

	defer func() {
		logger.Info("WebSocket Hub stopped")
		h.cancel()
	}()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastAll(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger := logging.From(h.ctx)

	// A reconnecting tab replaces its previous connection
	for id, existing := range h.clients {
		if existing.tabID == client.tabID {
			logger.Info("Replacing existing connection for tab",
				"tab_id", client.tabID,
				"old_client_id", existing.clientID,
				"new_client_id", client.clientID)
			delete(h.clients, id)
			existing.closeSend()
			existing.cancel()
		}
	}

	if len(h.clients) >= maxClients {
		logger.Warn("Maximum clients reached", "max_clients", maxClients)
		client.closeSend()
		return
	}

	h.clients[client.clientID] = client
	logger.Info("Client registered",
		"tab_id", client.tabID,
		"client_id", client.clientID,
		"total_clients", len(h.clients))

	if data, err := websocket_model.NewStatusMessage("Connected to notice feed").ToBytes(); err == nil {
		client.trySend(data)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.clientID]; ok && current == client {
		delete(h.clients, client.clientID)
		logging.From(h.ctx).Info("Client unregistered",
			"tab_id", client.tabID,
			"client_id", client.clientID,
			"remaining_clients", len(h.clients))
	}

	client.closeSend()
	client.cancel()
}

func (h *Hub) broadcastAll(message []byte) {
	h.mu.RLock()
	var slow []*Client
	for _, client := range h.clients {
		if !client.trySend(message) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Clients that cannot keep up are dropped; they reconnect and resync.
	for _, client := range slow {
		h.unregisterClient(client)
	}
}

// Broadcast sends message to every connected client
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	}
}

// PublishToastEvent pushes a toast queue change to every client. It is
// meant to be registered with toast.Queue.Watch.
func (h *Hub) PublishToastEvent(ev toast.Event) {
	msg := websocket_model.NewToastsMessage(websocket_model.Toasts{
		Kind:          string(ev.Kind),
		Toasts:        ev.Toasts,
		Notifications: ev.Notifications,
		UnreadCount:   ev.UnreadCount,
	})
	data, err := msg.ToBytes()
	if err != nil {
		logging.From(h.ctx).Error("failed to marshal toast event", logging.ErrAttr(err))
		return
	}
	h.Broadcast(data)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient creates a new client for conn
func (h *Hub) NewClient(conn *websocket.Conn, tabID string) *Client {
	clientID := generateClientID(tabID)
	ctx, cancel := context.WithCancel(logging.Attach(h.ctx, "tab_id", tabID, "client_id", clientID))
	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, clientSendBufferSize),
		tabID:    tabID,
		clientID: clientID,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register registers a client with the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		client.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Close gracefully shuts down the hub
func (h *Hub) Close() error {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		client.cancel()
		client.closeSend()
		delete(h.clients, id)
	}
	return nil
}

// SendTo sends msg to a single client
func (h *Hub) SendTo(client *Client, msg *websocket_model.ServerMessage) error {
	data, err := msg.ToBytes()
	if err != nil {
		return goerr.Wrap(err, "failed to marshal server message")
	}
	if !client.trySend(data) {
		go h.Unregister(client)
		return goerr.New("client send channel full, client unregistered", goerr.V("client_id", client.clientID))
	}
	return nil
}

// trySend queues data without blocking. It returns false when the
// channel is full; a closed client silently drops data.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send == nil {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// ClientID returns the unique ID of the connection
func (c *Client) ClientID() string {
	return c.clientID
}

func generateClientID(tabID string) string {
	timestamp := time.Now().Unix()
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("client_%s_%d", tabID, timestamp)
	}
	return fmt.Sprintf("client_%s_%d_%s", tabID, timestamp, hex.EncodeToString(randomBytes))
}
