package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerStatus is the auction lifecycle state of a roster player. Exactly
// one status holds at any time.
type PlayerStatus string

const (
	StatusAvailable PlayerStatus = "available"
	StatusSold      PlayerStatus = "sold"
	StatusUnsold    PlayerStatus = "unsold"
)

// Player is an entity up for auction. WinningTeamID and FinalPrice are set
// only while Status is sold; a bulk reset clears them back to available.
type Player struct {
	ID            uuid.UUID
	Name          string
	Role          string
	BasePrice     float64
	Status        PlayerStatus
	WinningTeamID *uuid.UUID
	FinalPrice    float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPlayer creates an available player with the given base price.
func NewPlayer(id uuid.UUID, name, role string, basePrice float64) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Role:      role,
		BasePrice: basePrice,
		Status:    StatusAvailable,
	}
}
