package websocket

import (
	"context"
	"encoding/json"

	"github.com/cortega/playerauction/internal/auction/application"
	"github.com/cortega/playerauction/internal/shared/logger"
	ws "github.com/cortega/playerauction/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler dispatches inbound auction events from the hub to the
// coordinator and pushes a snapshot to every observer that joins.
type AuctionWSHandler struct {
	coordinator *application.Coordinator
	hub         *ws.Hub
	ctx         context.Context
}

func NewAuctionWSHandler(ctx context.Context, coordinator *application.Coordinator, hub *ws.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		coordinator: coordinator,
		hub:         hub,
		ctx:         ctx,
	}
}

// RegisterRoutes mounts the upgrade endpoint on the fiber app.
func (h *AuctionWSHandler) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/auction", websocket.New(h.serveClient))
}

// serveClient owns one connection: register with the hub, send the join
// snapshot, then pump until the peer goes away.
func (h *AuctionWSHandler) serveClient(conn *websocket.Conn) {
	client := &ws.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 16),
		ID:   uuid.NewString(),
	}
	h.hub.RegisterClient(client)
	h.sendSnapshot(client)

	go client.WritePump(h.ctx)
	client.ReadPump(h.ctx)
}

// ListenForMessages consumes the hub's inbound channel. Dispatch is
// concurrent; ordering is guaranteed by the coordinator, not here.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("Auction WS handler listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("Auction WS handler stopped")
			return
		case msg := <-h.hub.Inbound:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *ws.Client, data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.sendError(client, "invalid message format")
		return
	}

	switch env.Type {
	case EventJoinRoom:
		h.sendSnapshot(client)
	case EventStartRound:
		h.handleStartRound(ctx, client, env.Payload)
	case EventPlaceBid:
		h.handlePlaceBid(client, env.Payload)
	case EventManualFinalize:
		h.handleManualFinalize(ctx, client, env.Payload)
	default:
		h.sendError(client, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleStartRound(ctx context.Context, client *ws.Client, payload json.RawMessage) {
	var req StartRoundPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, "invalid start-round payload")
		return
	}
	if err := h.coordinator.StartRound(ctx, req.ItemID); err != nil {
		// Reported to the caller that requested the start, never broadcast.
		h.sendError(client, err.Error())
	}
}

func (h *AuctionWSHandler) handlePlaceBid(client *ws.Client, payload json.RawMessage) {
	var req PlaceBidPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, "invalid place-bid payload")
		return
	}
	if err := h.coordinator.PlaceBid(req.BidderID, req.Amount); err != nil {
		// Contention outcome: only the submitting client hears about it.
		h.sendError(client, err.Error())
	}
}

func (h *AuctionWSHandler) handleManualFinalize(ctx context.Context, client *ws.Client, payload json.RawMessage) {
	var req ManualFinalizePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, "invalid manual-finalize payload")
		return
	}
	var assignment *application.Assignment
	if req.Assignment != nil {
		assignment = &application.Assignment{
			TeamID: req.Assignment.TeamID,
			Amount: req.Assignment.Amount,
		}
	}
	if err := h.coordinator.Finalize(ctx, application.FinalizeReason(req.Reason), assignment); err != nil {
		h.sendError(client, err.Error())
	}
}

// sendSnapshot delivers the current round view to a single client.
func (h *AuctionWSHandler) sendSnapshot(client *ws.Client) {
	snap := h.coordinator.Join()
	data, err := json.Marshal(Envelope{Type: application.EventCurrentSnapshot, Payload: snap})
	if err != nil {
		log.Error("Failed to marshal snapshot", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("Client send channel full, snapshot dropped",
			zap.String("clientID", client.ID),
		)
	}
}

func (h *AuctionWSHandler) sendError(client *ws.Client, message string) {
	data, err := json.Marshal(Envelope{
		Type:    EventServerError,
		Payload: ServerErrorPayload{Error: message},
	})
	if err != nil {
		log.Error("Failed to marshal server error", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("Client send channel full or closed, error message dropped",
			zap.String("clientID", client.ID),
		)
	}
}
