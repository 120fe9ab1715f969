package application

import (
	"context"
	"fmt"

	"github.com/cortega/playerauction/internal/roster/domain"
)

// ResetAuctionUseCase returns every player to available and every team to
// its full budget with no filled slots. Meant to be run between auction
// cycles, never while a round is active.
type ResetAuctionUseCase struct {
	players domain.PlayerRepository
	teams   domain.TeamRepository
}

func NewResetAuctionUseCase(players domain.PlayerRepository, teams domain.TeamRepository) *ResetAuctionUseCase {
	return &ResetAuctionUseCase{
		players: players,
		teams:   teams,
	}
}

func (uc *ResetAuctionUseCase) Execute(ctx context.Context) error {
	if err := uc.players.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset auction: players: %w", err)
	}
	if err := uc.teams.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset auction: teams: %w", err)
	}
	log.Info("Auction reset: all players available, all team budgets restored")
	return nil
}
