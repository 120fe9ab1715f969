package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team is a bidding entity with slot capacity and an optional budget.
// A nil Budget means unlimited spending; RemainingBudget is nil iff Budget
// is nil.
type Team struct {
	ID              uuid.UUID
	Name            string
	TotalSlots      int
	FilledSlots     int
	Budget          *float64
	RemainingBudget *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTeam creates a team with no filled slots and its full budget remaining.
func NewTeam(id uuid.UUID, name string, totalSlots int, budget *float64) *Team {
	t := &Team{
		ID:         id,
		Name:       name,
		TotalSlots: totalSlots,
		Budget:     budget,
	}
	if budget != nil {
		remaining := *budget
		t.RemainingBudget = &remaining
	}
	return t
}

// HasOpenSlot reports whether the team can take one more player.
func (t *Team) HasOpenSlot() bool {
	return t.FilledSlots < t.TotalSlots
}

// CanAfford reports whether the team's remaining budget covers amount.
// Teams without a budget can afford anything.
func (t *Team) CanAfford(amount float64) bool {
	if t.Budget == nil {
		return true
	}
	return t.RemainingBudget != nil && *t.RemainingBudget >= amount
}
