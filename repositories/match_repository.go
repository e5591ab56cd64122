package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tcgarena/tcg-arena/models"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchCounts is the finished/total tally used by progress reporting.
type MatchCounts struct {
	Total    int
	Finished int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]*models.Match, error)
	// ListFedBy returns the matches whose player slots are fed by the
	// given match, i.e. rows whose next_match_id or loser_next_match_id
	// point at it.
	ListFedBy(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, m *models.Match) error
	UpdateLinks(ctx context.Context, exec SQLExecutor, id int, nextMatchID *int, nextSlot *models.MatchSlot, loserNextMatchID *int, loserNextSlot *models.MatchSlot) error
	SetPlayerSlot(ctx context.Context, exec SQLExecutor, id int, slot models.MatchSlot, playerID *int) error
	Counts(ctx context.Context, exec SQLExecutor, tournamentID int) (MatchCounts, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round, side, phase, status,
	player_a_id, player_b_id, player_a_score, player_b_score, winner_id,
	next_match_id, next_slot, loser_next_match_id, loser_next_slot,
	table_number, scheduled_at, started_at, finished_at, notes`

func (r *postgresMatchRepository) scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.Side, &m.Phase, &m.Status,
		&m.PlayerAID, &m.PlayerBID, &m.PlayerAScore, &m.PlayerBScore, &m.WinnerID,
		&m.NextMatchID, &m.NextSlot, &m.LoserNextMatchID, &m.LoserNextSlot,
		&m.TableNumber, &m.ScheduledAt, &m.StartedAt, &m.FinishedAt, &m.Notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, round, side, phase, status,
			 player_a_id, player_b_id, player_a_score, player_b_score, winner_id,
			 next_match_id, next_slot, loser_next_match_id, loser_next_slot,
			 table_number, scheduled_at, started_at, finished_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`
	return executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.Side, m.Phase, m.Status,
		m.PlayerAID, m.PlayerBID, m.PlayerAScore, m.PlayerBScore, m.WinnerID,
		m.NextMatchID, m.NextSlot, m.LoserNextMatchID, m.LoserNextSlot,
		m.TableNumber, m.ScheduledAt, m.StartedAt, m.FinishedAt, m.Notes,
	).Scan(&m.ID)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	return r.scanMatch(row)
}

func (r *postgresMatchRepository) listQuery(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	return r.listQuery(ctx, r.getExecutor(exec),
		`SELECT `+matchColumns+` FROM matches WHERE tournament_id = $1 ORDER BY side, round, id`,
		tournamentID)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]*models.Match, error) {
	return r.listQuery(ctx, r.getExecutor(exec),
		`SELECT `+matchColumns+` FROM matches WHERE tournament_id = $1 AND round = $2 ORDER BY side, id`,
		tournamentID, round)
}

func (r *postgresMatchRepository) ListFedBy(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Match, error) {
	return r.listQuery(ctx, r.getExecutor(exec),
		`SELECT `+matchColumns+` FROM matches WHERE next_match_id = $1 OR loser_next_match_id = $1 ORDER BY id`,
		matchID)
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			round = $1, side = $2, phase = $3, status = $4,
			player_a_id = $5, player_b_id = $6, player_a_score = $7, player_b_score = $8, winner_id = $9,
			table_number = $10, scheduled_at = $11, started_at = $12, finished_at = $13, notes = $14
		WHERE id = $15`
	result, err := executor.ExecContext(ctx, query,
		m.Round, m.Side, m.Phase, m.Status,
		m.PlayerAID, m.PlayerBID, m.PlayerAScore, m.PlayerBScore, m.WinnerID,
		m.TableNumber, m.ScheduledAt, m.StartedAt, m.FinishedAt, m.Notes,
		m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, exec SQLExecutor, id int, nextMatchID *int, nextSlot *models.MatchSlot, loserNextMatchID *int, loserNextSlot *models.MatchSlot) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET next_match_id = $1, next_slot = $2, loser_next_match_id = $3, loser_next_slot = $4 WHERE id = $5`,
		nextMatchID, nextSlot, loserNextMatchID, loserNextSlot, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetPlayerSlot(ctx context.Context, exec SQLExecutor, id int, slot models.MatchSlot, playerID *int) error {
	executor := r.getExecutor(exec)
	column := "player_a_id"
	if slot == models.SlotB {
		column = "player_b_id"
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET `+column+` = $1 WHERE id = $2`, playerID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Counts(ctx context.Context, exec SQLExecutor, tournamentID int) (MatchCounts, error) {
	executor := r.getExecutor(exec)
	var c MatchCounts
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status IN ($2, $3))
		 FROM matches WHERE tournament_id = $1`,
		tournamentID, models.MatchStatusFinished, models.MatchStatusForfeit,
	).Scan(&c.Total, &c.Finished)
	return c, err
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	return err
}
