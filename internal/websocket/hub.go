package chatws

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/realtime"
)

const lookupTimeout = 5 * time.Second

// Hub routes chat insert events to the sockets watching that PT session.
// Only the Run goroutine writes to or closes a client's send channel.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.ChatMessage
	direct     chan directMessage
	lookup     messageLookup
	log        *logger.Logger
}

// directMessage is a frame for one client, such as an error reply.
type directMessage struct {
	client  *Client
	payload []byte
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID uuid.UUID
	userID    uuid.UUID
	send      chan []byte
}

type messageLookup interface {
	LookupMessage(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error)
}

type poster interface {
	PostMessage(ctx context.Context, senderID, sessionID uuid.UUID, body string) (*models.ChatMessage, error)
}

type Envelope struct {
	Type    string              `json:"type"`
	Message *models.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func NewHub(lookup messageLookup, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.ChatMessage, 64),
		direct:     make(chan directMessage, 64),
		lookup:     lookup,
		log:        log.With("component", "ChatHub"),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID, userID uuid.UUID) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		userID:    userID,
		send:      make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.sessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.sessionID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			if h.registered(client) {
				h.drop(client)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		case msg := <-h.direct:
			// The client may have been dropped since the frame was queued.
			if h.registered(msg.client) {
				h.push(msg.client, msg.payload)
			}
		}
	}
}

func (h *Hub) registered(client *Client) bool {
	_, ok := h.clients[client.sessionID][client]
	return ok
}

// drop removes a client and closes its send channel, which ends WritePump.
func (h *Hub) drop(client *Client) {
	set := h.clients[client.sessionID]
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.sessionID)
	}
}

// push hands a frame to a registered client; a full buffer means the client
// is too slow and it is dropped.
func (h *Hub) push(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.log.Warn("chat client too slow, dropping", "session_id", client.sessionID, "user_id", client.userID)
		h.drop(client)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// HandleEvent is the bus forwarder callback. The event only names the row, so
// the message and its sender are loaded before fan-out.
func (h *Hub) HandleEvent(event realtime.MessageInserted) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	message, err := h.lookup.LookupMessage(ctx, event.MessageID)
	if err != nil {
		h.log.Warn("chat hub lookup failed", "message_id", event.MessageID, "error", err)
		return
	}
	if message.PTSessionID != event.PTSessionID {
		h.log.Warn("chat event session mismatch", "message_id", event.MessageID)
		return
	}
	h.broadcast <- message
}

func (h *Hub) deliver(message *models.ChatMessage) {
	set, ok := h.clients[message.PTSessionID]
	if !ok {
		return
	}

	encoded, err := json.Marshal(Envelope{Type: "message", Message: message})
	if err != nil {
		h.log.Error("chat hub encode message", "error", err)
		return
	}

	for client := range set {
		h.push(client, encoded)
	}
}

// ReadPump accepts {"type":"message","content":"..."} frames and posts them
// through the chat service. Delivery back to the socket happens through the
// bus like any other insert.
func (c *Client) ReadPump(service poster) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}

		if _, err := service.PostMessage(context.Background(), c.userID, c.sessionID, incoming.Content); err != nil {
			writeError(c, "failed to send message")
			continue
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Envelope{Type: "error", Error: message})
	if err != nil {
		return
	}
	select {
	case client.hub.direct <- directMessage{client: client, payload: payload}:
	default:
		client.hub.log.Warn("chat hub busy, error frame dropped", "session_id", client.sessionID)
	}
}
