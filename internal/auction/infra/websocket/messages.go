package websocket

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Inbound event names accepted from clients.
const (
	EventJoinRoom       = "join-room"
	EventStartRound     = "start-round"
	EventPlaceBid       = "place-bid"
	EventManualFinalize = "manual-finalize"
)

// EventServerError is sent only to the offending client, never broadcast.
const EventServerError = "server-error"

// Envelope frames every message on the wire as {type, payload}.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inboundEnvelope defers payload decoding until the type is known.
type inboundEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type StartRoundPayload struct {
	ItemID uuid.UUID `json:"itemId"`
}

type PlaceBidPayload struct {
	Amount   float64   `json:"amount"`
	BidderID uuid.UUID `json:"bidderId"`
}

type AssignmentPayload struct {
	TeamID uuid.UUID `json:"teamId"`
	Amount float64   `json:"amount"`
}

type ManualFinalizePayload struct {
	Reason     string             `json:"reason"`
	Assignment *AssignmentPayload `json:"assignment,omitempty"`
}

type ServerErrorPayload struct {
	Error string `json:"error"`
}
