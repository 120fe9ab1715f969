package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var teamColumns = []string{
	"id", "name", "total_slots", "filled_slots",
	"budget", "remaining_budget", "created_at", "updated_at",
}

// joinColumns renders a column list for RETURNING clauses.
func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// TeamRepository implements domain.TeamRepository on Postgres.
type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	t := &domain.Team{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.TotalSlots,
		&t.FilledSlots,
		&t.Budget,
		&t.RemainingBudget,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	query, args, err := qb.Select(teamColumns...).
		From("teams").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanTeam(r.pool.QueryRow(ctx, query, args...))
}

func (r *TeamRepository) List(ctx context.Context) ([]*domain.Team, error) {
	query, args, err := qb.Select(teamColumns...).
		From("teams").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	query, args, err := qb.Insert("teams").
		Columns("id", "name", "total_slots", "filled_slots", "budget", "remaining_budget").
		Values(team.ID, team.Name, team.TotalSlots, team.FilledSlots, team.Budget, team.RemainingBudget).
		ToSql()
	if err != nil {
		return err
	}
	if _, err = r.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on the team name.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrTeamNameTaken
		}
		return err
	}
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, team *domain.Team) error {
	query, args, err := qb.Update("teams").
		Set("name", team.Name).
		Set("total_slots", team.TotalSlots).
		Set("budget", team.Budget).
		Set("remaining_budget", team.RemainingBudget).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": team.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrTeamNameTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *TeamRepository) ApplyAssignment(ctx context.Context, id uuid.UUID, filledSlots int, remainingBudget *float64) (*domain.Team, error) {
	query, args, err := qb.Update("teams").
		Set("filled_slots", filledSlots).
		Set("remaining_budget", remainingBudget).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(teamColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanTeam(r.pool.QueryRow(ctx, query, args...))
}

func (r *TeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete("teams").
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
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *TeamRepository) ResetAll(ctx context.Context) error {
	query, args, err := qb.Update("teams").
		Set("filled_slots", 0).
		Set("remaining_budget", squirrel.Expr("budget")).
		Set("updated_at", squirrel.Expr("NOW()")).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}
