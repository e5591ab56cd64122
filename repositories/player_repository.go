package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/tcgarena/tcg-arena/models"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player display name already taken")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO players (display_name, rating, birth_date, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query, p.DisplayName, p.Rating, p.BirthDate).Scan(&p.ID, &p.CreatedAt)
	if isUniqueViolation(err, "players_display_name_key") {
		return ErrPlayerNameConflict
	}
	return err
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	executor := r.getExecutor(exec)
	var p models.Player
	err := executor.QueryRowContext(ctx,
		`SELECT id, display_name, rating, birth_date, created_at FROM players WHERE id = $1`, id,
	).Scan(&p.ID, &p.DisplayName, &p.Rating, &p.BirthDate, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Player, error) {
	executor := r.getExecutor(exec)
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}
	rows, err := executor.QueryContext(ctx,
		`SELECT id, display_name, rating, birth_date, created_at FROM players WHERE id = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0, len(ids))
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Rating, &p.BirthDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}
