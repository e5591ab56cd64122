package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tcgarena/tcg-arena/models"
)

var ErrRankingNotFound = errors.New("ranking not found")

// RankingRepository stores the computed standings table. Standings are
// recomputed wholesale after every result, so writes replace the
// tournament's rows rather than patching them.
type RankingRepository interface {
	Replace(ctx context.Context, exec SQLExecutor, tournamentID int, rankings []*models.Ranking) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Ranking, error)
	GetByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.Ranking, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankingRepository) Replace(ctx context.Context, exec SQLExecutor, tournamentID int, rankings []*models.Ranking) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM rankings WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("replace rankings: clear old rows: %w", err)
	}

	query := `
		INSERT INTO rankings
			(tournament_id, player_id, rank, points, wins, losses, draws, win_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	now := time.Now()
	for _, ranking := range rankings {
		ranking.TournamentID = tournamentID
		ranking.UpdatedAt = now
		err := executor.QueryRowContext(ctx, query,
			ranking.TournamentID, ranking.PlayerID, ranking.Rank, ranking.Points,
			ranking.Wins, ranking.Losses, ranking.Draws, ranking.WinRate, ranking.UpdatedAt,
		).Scan(&ranking.ID)
		if err != nil {
			return fmt.Errorf("replace rankings: insert player %d: %w", ranking.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresRankingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Ranking, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT r.id, r.tournament_id, r.player_id, r.rank, r.points,
		       r.wins, r.losses, r.draws, r.win_rate, r.updated_at, p.display_name
		FROM rankings r
		JOIN players p ON p.id = r.player_id
		WHERE r.tournament_id = $1
		ORDER BY r.rank ASC, p.display_name ASC`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rankings := make([]*models.Ranking, 0)
	for rows.Next() {
		var rk models.Ranking
		err := rows.Scan(
			&rk.ID, &rk.TournamentID, &rk.PlayerID, &rk.Rank, &rk.Points,
			&rk.Wins, &rk.Losses, &rk.Draws, &rk.WinRate, &rk.UpdatedAt, &rk.PlayerName,
		)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, &rk)
	}
	return rankings, rows.Err()
}

func (r *postgresRankingRepository) GetByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.Ranking, error) {
	executor := r.getExecutor(exec)
	var rk models.Ranking
	err := executor.QueryRowContext(ctx, `
		SELECT id, tournament_id, player_id, rank, points, wins, losses, draws, win_rate, updated_at
		FROM rankings WHERE tournament_id = $1 AND player_id = $2`,
		tournamentID, playerID,
	).Scan(
		&rk.ID, &rk.TournamentID, &rk.PlayerID, &rk.Rank, &rk.Points,
		&rk.Wins, &rk.Losses, &rk.Draws, &rk.WinRate, &rk.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return &rk, nil
}

func (r *postgresRankingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM rankings WHERE tournament_id = $1`, tournamentID)
	return err
}
