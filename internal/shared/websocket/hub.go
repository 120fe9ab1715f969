package websocket

import (
	"context"
	"time"

	"github.com/cortega/playerauction/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Hub keeps the registry of connected observers and fans broadcast events
// out to every one of them. The auction runs a single shared room: every
// observer sees every event, in the order it was queued.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool
	// Outbound events to fan out. Buffered so the coordinator's critical
	// section never blocks on emission.
	broadcast chan []byte
	// Register requests from clients.
	register chan *Client
	// Unregister requests from clients.
	unregister chan *Client
	// Inbound is consumed by the auction message handler.
	Inbound chan *ClientMessage
}

// Client represents one WebSocket connection.
type Client struct {
	Hub *Hub
	// The websocket connection.
	Conn *websocket.Conn
	// Buffered channel of outbound messages.
	Send chan []byte
	// Unique identifier for the client.
	ID string
}

// ClientMessage wraps an inbound frame with the client that sent it.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		Inbound:    make(chan *ClientMessage, 64),
	}
}

// Run starts the hub loop. All registry mutation and fan-out happens here,
// on a single goroutine.
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("WebSocket hub shutting down")
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.Int("total_clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info("Client unregistered",
					zap.String("clientID", client.ID),
					zap.Int("total_clients", len(h.clients)),
				)
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- data:
				default:
					// Client cannot keep up; drop it rather than stall
					// delivery to everyone else.
					close(client.Send)
					delete(h.clients, client)
					log.Warn("Failed to send to client, unregistering",
						zap.String("clientID", client.ID),
					)
				}
			}
		}
	}
}

// RegisterClient queues a new client for registration.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
		log.Debug("Client queued for registration", zap.String("clientID", client.ID))
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
		)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

// UnregisterClient queues a client for removal.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
		log.Debug("Client queued for unregistration", zap.String("clientID", client.ID))
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID),
		)
	}
}

// Broadcast queues an event for delivery to every connected client. The
// send never blocks; if the buffer is full the event is dropped and logged.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
		log.Debug("Event queued for broadcast", zap.Int("bytes", len(data)))
	default:
		log.Error("Broadcast channel is full, event dropped")
	}
}

// ReadPump reads frames from the client connection and forwards them to the
// hub's Inbound channel. Runs on its own goroutine per client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("remote_addr", c.Conn.RemoteAddr().String()),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			log.Info("ReadPump context cancelled", zap.String("clientID", c.ID))
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			} else {
				log.Info("WebSocket connection closed by peer",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			break
		}

		select {
		case c.Hub.Inbound <- &ClientMessage{Client: c, Data: message}:
		default:
			// Handlers are not keeping up; drop the frame.
			log.Error("Hub Inbound channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.ByteString("message", message),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with pings. The application guarantees at most
// one writer per connection by funneling all writes through here.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("WritePump stopped for client", zap.String("clientID", c.ID))
	}()

	for {
		select {
		case <-ctx.Done():
			err := c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			if err != nil {
				log.Error("Failed to send close control message",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
