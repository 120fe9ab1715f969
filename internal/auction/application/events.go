package application

import (
	"time"

	"github.com/cortega/playerauction/internal/auction/domain"
	roster "github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
)

// Outbound event names. These are the contract observers depend on.
const (
	EventRoundStarted    = "round-started"
	EventBidUpdated      = "bid-updated"
	EventAuctionComplete = "auction-complete"
	EventCurrentSnapshot = "current-snapshot"
)

// Event is one confirmed state transition to fan out to observers.
type Event struct {
	Name    string
	Payload any
}

// EventPublisher delivers events to all connected observers. Publish must
// never block: the coordinator calls it inside its critical section so that
// every observer sees transitions in the same order.
type EventPublisher interface {
	Publish(event Event)
}

// PlayerView is the wire shape of a player inside event payloads.
type PlayerView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	BasePrice float64   `json:"basePrice"`
	Status    string    `json:"status"`
}

func NewPlayerView(p *roster.Player) *PlayerView {
	if p == nil {
		return nil
	}
	return &PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Role:      p.Role,
		BasePrice: p.BasePrice,
		Status:    string(p.Status),
	}
}

type RoundStartedPayload struct {
	Item        *PlayerView `json:"item"`
	StartingBid float64     `json:"startingBid"`
}

type BidUpdatedPayload struct {
	Amount   float64   `json:"amount"`
	BidderID uuid.UUID `json:"bidderId"`
}

type AuctionCompletePayload struct {
	Item       *PlayerView `json:"item"`
	FinalPrice float64     `json:"finalPrice"`
	Winner     *uuid.UUID  `json:"winner"`
	Status     string      `json:"status"`
}

// SnapshotPayload is sent only to a newly joined observer; Item is null
// while the auction is idle.
type SnapshotPayload struct {
	Item            *PlayerView `json:"item"`
	CurrentBid      float64     `json:"currentBid"`
	CurrentBidderID *uuid.UUID  `json:"currentBidderId"`
	Deadline        *time.Time  `json:"deadline,omitempty"`
}

func newSnapshotPayload(snap domain.Snapshot) SnapshotPayload {
	return SnapshotPayload{
		Item:            NewPlayerView(snap.Player),
		CurrentBid:      snap.CurrentBid,
		CurrentBidderID: snap.BidderID,
		Deadline:        snap.Deadline,
	}
}
