package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// qb builds every query in this package with $n placeholders.
var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var playerColumns = []string{
	"id", "name", "role", "base_price", "status",
	"winning_team_id", "final_price", "created_at", "updated_at",
}

// PlayerRepository implements domain.PlayerRepository on Postgres.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

func NewPlayerRepository(pool *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	p := &domain.Player{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Role,
		&p.BasePrice,
		&p.Status,
		&p.WinningTeamID,
		&p.FinalPrice,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	query, args, err := qb.Select(playerColumns...).
		From("players").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanPlayer(r.pool.QueryRow(ctx, query, args...))
}

func (r *PlayerRepository) GetAvailableByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	player, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if player.Status != domain.StatusAvailable {
		return nil, domain.ErrPlayerNotAvailable
	}
	return player, nil
}

func (r *PlayerRepository) List(ctx context.Context, status *domain.PlayerStatus) ([]*domain.Player, error) {
	builder := qb.Select(playerColumns...).From("players").OrderBy("name")
	if status != nil {
		builder = builder.Where(squirrel.Eq{"status": *status})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *PlayerRepository) BulkInsert(ctx context.Context, players []*domain.Player) error {
	if len(players) == 0 {
		return nil
	}
	builder := qb.Insert("players").
		Columns("id", "name", "role", "base_price", "status")
	for _, p := range players {
		builder = builder.Values(p.ID, p.Name, p.Role, p.BasePrice, p.Status)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func (r *PlayerRepository) UpdateOutcome(ctx context.Context, id uuid.UUID, status domain.PlayerStatus, winningTeamID *uuid.UUID, finalPrice float64) (*domain.Player, error) {
	query, args, err := qb.Update("players").
		Set("status", status).
		Set("winning_team_id", winningTeamID).
		Set("final_price", finalPrice).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(playerColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanPlayer(r.pool.QueryRow(ctx, query, args...))
}

func (r *PlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete("players").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (r *PlayerRepository) ResetAll(ctx context.Context) error {
	query, args, err := qb.Update("players").
		Set("status", domain.StatusAvailable).
		Set("winning_team_id", nil).
		Set("final_price", 0).
		Set("updated_at", squirrel.Expr("NOW()")).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}
