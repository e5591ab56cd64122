package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/tcgarena/tcg-arena/models"
)

var (
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrRegistrationConflict  = errors.New("player already registered for this tournament")
	ErrRegistrationRefBroken = errors.New("registration references a missing tournament or player")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.TournamentRegistration) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentRegistration, error)
	GetByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.TournamentRegistration, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, statuses ...models.RegistrationStatus) ([]*models.TournamentRegistration, error)
	CountByStatus(ctx context.Context, exec SQLExecutor, tournamentID int) (map[models.RegistrationStatus]int, error)
	FirstWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentRegistration, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	SetCheckedIn(ctx context.Context, exec SQLExecutor, id int, checkedIn bool, at *time.Time) error
	MarkEliminated(ctx context.Context, exec SQLExecutor, tournamentID, playerID, round int, at time.Time) error
	ClearElimination(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `
	id, tournament_id, player_id, status, notes, confirmation_code,
	checked_in, checked_in_at, eliminated_at, eliminated_round,
	registered_at, updated_at`

func (r *postgresRegistrationRepository) scanRegistration(row interface{ Scan(...interface{}) error }) (*models.TournamentRegistration, error) {
	var reg models.TournamentRegistration
	err := row.Scan(
		&reg.ID, &reg.TournamentID, &reg.PlayerID, &reg.Status, &reg.Notes, &reg.ConfirmationCode,
		&reg.CheckedIn, &reg.CheckedInAt, &reg.EliminatedAt, &reg.EliminatedRound,
		&reg.RegisteredAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.TournamentRegistration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_registrations
			(tournament_id, player_id, status, notes, confirmation_code, checked_in, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, registered_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		reg.TournamentID, reg.PlayerID, reg.Status, reg.Notes, reg.ConfirmationCode, reg.CheckedIn,
	).Scan(&reg.ID, &reg.RegisteredAt, &reg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "tournament_registrations_tournament_id_player_id_key") {
			return ErrRegistrationConflict
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrRegistrationRefBroken
		}
		return err
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentRegistration, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM tournament_registrations WHERE id = $1`, id)
	return r.scanRegistration(row)
}

func (r *postgresRegistrationRepository) GetByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.TournamentRegistration, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM tournament_registrations WHERE tournament_id = $1 AND player_id = $2`,
		tournamentID, playerID)
	return r.scanRegistration(row)
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, statuses ...models.RegistrationStatus) ([]*models.TournamentRegistration, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + registrationColumns + ` FROM tournament_registrations WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if len(statuses) > 0 {
		list := make([]string, len(statuses))
		for i, s := range statuses {
			list[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(list))
	}
	query += ` ORDER BY registered_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*models.TournamentRegistration, 0)
	for rows.Next() {
		reg, err := r.scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *postgresRegistrationRepository) CountByStatus(ctx context.Context, exec SQLExecutor, tournamentID int) (map[models.RegistrationStatus]int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tournament_registrations WHERE tournament_id = $1 GROUP BY status`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.RegistrationStatus]int)
	for rows.Next() {
		var status models.RegistrationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// FirstWaitlisted returns the longest-waiting waitlisted registration.
func (r *postgresRegistrationRepository) FirstWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentRegistration, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM tournament_registrations
		 WHERE tournament_id = $1 AND status = $2
		 ORDER BY registered_at ASC, id ASC LIMIT 1`,
		tournamentID, models.RegistrationStatusWaitlisted)
	return r.scanRegistration(row)
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_registrations SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) SetCheckedIn(ctx context.Context, exec SQLExecutor, id int, checkedIn bool, at *time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_registrations SET checked_in = $1, checked_in_at = $2, updated_at = NOW() WHERE id = $3`,
		checkedIn, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) MarkEliminated(ctx context.Context, exec SQLExecutor, tournamentID, playerID, round int, at time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_registrations
		 SET status = $1, eliminated_round = $2, eliminated_at = $3, updated_at = NOW()
		 WHERE tournament_id = $4 AND player_id = $5`,
		models.RegistrationStatusEliminated, round, at, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

// ClearElimination reinstates a player after a match reset undid the
// result that eliminated them.
func (r *postgresRegistrationRepository) ClearElimination(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_registrations
		 SET status = $1, eliminated_round = NULL, eliminated_at = NULL, updated_at = NOW()
		 WHERE tournament_id = $2 AND player_id = $3`,
		models.RegistrationStatusConfirmed, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournament_registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
