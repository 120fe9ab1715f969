package domain

import (
	"context"

	roster "github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
)

// PlayerStore is the slice of roster persistence the bidding engine needs:
// a stale-read-checked lookup when a round starts and the outcome write
// when it finalizes.
type PlayerStore interface {
	GetAvailableByID(ctx context.Context, id uuid.UUID) (*roster.Player, error)
	UpdateOutcome(ctx context.Context, id uuid.UUID, status roster.PlayerStatus, winningTeamID *uuid.UUID, finalPrice float64) (*roster.Player, error)
}

// TeamStore covers the authoritative budget/slot check and write at
// finalize time.
type TeamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*roster.Team, error)
	ApplyAssignment(ctx context.Context, id uuid.UUID, filledSlots int, remainingBudget *float64) (*roster.Team, error)
}
