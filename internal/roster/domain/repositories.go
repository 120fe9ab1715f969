package domain

import (
	"context"

	"github.com/google/uuid"
)

type PlayerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Player, error)
	// GetAvailableByID returns ErrPlayerNotAvailable when the player exists
	// but has already been sold or passed unsold.
	GetAvailableByID(ctx context.Context, id uuid.UUID) (*Player, error)
	List(ctx context.Context, status *PlayerStatus) ([]*Player, error)
	BulkInsert(ctx context.Context, players []*Player) error
	// UpdateOutcome writes the finalize result for one player and returns
	// the updated record.
	UpdateOutcome(ctx context.Context, id uuid.UUID, status PlayerStatus, winningTeamID *uuid.UUID, finalPrice float64) (*Player, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ResetAll returns every player to available with no winner or price.
	ResetAll(ctx context.Context) error
}

type TeamRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	List(ctx context.Context) ([]*Team, error)
	Create(ctx context.Context, team *Team) error
	Update(ctx context.Context, team *Team) error
	// ApplyAssignment persists the slot and budget outcome of a sold round
	// and returns the updated record.
	ApplyAssignment(ctx context.Context, id uuid.UUID, filledSlots int, remainingBudget *float64) (*Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ResetAll empties every team's slots and restores its full budget.
	ResetAll(ctx context.Context) error
}
