package application

import (
	"context"
	"io"

	"github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
)

// CreateTeamInput carries the fields an operator supplies for a new team.
// A nil Budget means the team bids without a spending limit.
type CreateTeamInput struct {
	Name       string
	TotalSlots int
	Budget     *float64
}

// RosterService exposes the roster use cases to the transport layer.
type RosterService interface {
	ListPlayers(ctx context.Context, status *domain.PlayerStatus) ([]*domain.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error)
	DeletePlayer(ctx context.Context, id uuid.UUID) error
	ImportPlayers(ctx context.Context, r io.Reader) (*ImportReport, error)

	ListTeams(ctx context.Context) ([]*domain.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	CreateTeam(ctx context.Context, input CreateTeamInput) (*domain.Team, error)
	UpdateTeam(ctx context.Context, team *domain.Team) error
	DeleteTeam(ctx context.Context, id uuid.UUID) error

	ResetAuction(ctx context.Context) error
}

type rosterService struct {
	players  domain.PlayerRepository
	teams    domain.TeamRepository
	importUC *ImportPlayersUseCase
	resetUC  *ResetAuctionUseCase
}

func NewRosterService(players domain.PlayerRepository, teams domain.TeamRepository, importUC *ImportPlayersUseCase, resetUC *ResetAuctionUseCase) RosterService {
	return &rosterService{
		players:  players,
		teams:    teams,
		importUC: importUC,
		resetUC:  resetUC,
	}
}

func (s *rosterService) ListPlayers(ctx context.Context, status *domain.PlayerStatus) ([]*domain.Player, error) {
	return s.players.List(ctx, status)
}

func (s *rosterService) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return s.players.GetByID(ctx, id)
}

func (s *rosterService) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	return s.players.Delete(ctx, id)
}

func (s *rosterService) ImportPlayers(ctx context.Context, r io.Reader) (*ImportReport, error) {
	return s.importUC.Execute(ctx, r)
}

func (s *rosterService) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	return s.teams.List(ctx)
}

func (s *rosterService) GetTeam(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	return s.teams.GetByID(ctx, id)
}

func (s *rosterService) CreateTeam(ctx context.Context, input CreateTeamInput) (*domain.Team, error) {
	team := domain.NewTeam(uuid.New(), input.Name, input.TotalSlots, input.Budget)
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *rosterService) UpdateTeam(ctx context.Context, team *domain.Team) error {
	return s.teams.Update(ctx, team)
}

func (s *rosterService) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return s.teams.Delete(ctx, id)
}

func (s *rosterService) ResetAuction(ctx context.Context) error {
	return s.resetUC.Execute(ctx)
}
