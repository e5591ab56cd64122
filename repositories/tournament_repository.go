package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tcgarena/tcg-arena/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

// TournamentFilter narrows List results. Zero values mean "no filter".
type TournamentFilter struct {
	Status      models.TournamentStatus
	Format      models.TournamentFormat
	OrganizerID int
	PublicOnly  bool
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter TournamentFilter) ([]*models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateRounds(ctx context.Context, exec SQLExecutor, id, currentRound, totalRounds int) error
	SetStandingsExportURL(ctx context.Context, exec SQLExecutor, id int, url string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, description, location, organizer_id, format, status,
	min_players, max_players, current_round, total_rounds,
	start_date, end_date, registration_deadline,
	allow_late_registration, requires_approval, enable_waitlist, is_public,
	rules, additional_info, age_restriction_min, age_restriction_max,
	standings_export_url, created_at, updated_at`

func (r *postgresTournamentRepository) scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Location, &t.OrganizerID, &t.Format, &t.Status,
		&t.MinPlayers, &t.MaxPlayers, &t.CurrentRound, &t.TotalRounds,
		&t.StartDate, &t.EndDate, &t.RegistrationDeadline,
		&t.AllowLateRegistration, &t.RequiresApproval, &t.EnableWaitlist, &t.IsPublic,
		&t.Rules, &t.AdditionalInfo, &t.AgeRestrictionMin, &t.AgeRestrictionMax,
		&t.StandingsExportURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	query := `
		INSERT INTO tournaments
			(name, description, location, organizer_id, format, status,
			 min_players, max_players, current_round, total_rounds,
			 start_date, end_date, registration_deadline,
			 allow_late_registration, requires_approval, enable_waitlist, is_public,
			 rules, additional_info, age_restriction_min, age_restriction_max,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id`
	return executor.QueryRowContext(ctx, query,
		t.Name, t.Description, t.Location, t.OrganizerID, t.Format, t.Status,
		t.MinPlayers, t.MaxPlayers, t.CurrentRound, t.TotalRounds,
		t.StartDate, t.EndDate, t.RegistrationDeadline,
		t.AllowLateRegistration, t.RequiresApproval, t.EnableWaitlist, t.IsPublic,
		t.Rules, t.AdditionalInfo, t.AgeRestrictionMin, t.AgeRestrictionMax,
		t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	return r.scanTournament(row)
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter TournamentFilter) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments`)
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.Format != "" {
		conds = append(conds, "format = "+arg(filter.Format))
	}
	if filter.OrganizerID != 0 {
		conds = append(conds, "organizer_id = "+arg(filter.OrganizerID))
	}
	if filter.PublicOnly {
		conds = append(conds, "is_public = TRUE")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY start_date DESC, id DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}

	rows, err := executor.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, err := r.scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			name = $1, description = $2, location = $3, format = $4,
			min_players = $5, max_players = $6,
			start_date = $7, end_date = $8, registration_deadline = $9,
			allow_late_registration = $10, requires_approval = $11, enable_waitlist = $12, is_public = $13,
			rules = $14, additional_info = $15, age_restriction_min = $16, age_restriction_max = $17,
			updated_at = NOW()
		WHERE id = $18`
	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Description, t.Location, t.Format,
		t.MinPlayers, t.MaxPlayers,
		t.StartDate, t.EndDate, t.RegistrationDeadline,
		t.AllowLateRegistration, t.RequiresApproval, t.EnableWaitlist, t.IsPublic,
		t.Rules, t.AdditionalInfo, t.AgeRestrictionMin, t.AgeRestrictionMax,
		t.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET status = $1,
			end_date = CASE WHEN $1 = 'finished' THEN NOW() ELSE end_date END,
			updated_at = NOW()
		WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateRounds(ctx context.Context, exec SQLExecutor, id, currentRound, totalRounds int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET current_round = $1, total_rounds = $2, updated_at = NOW() WHERE id = $3`,
		currentRound, totalRounds, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetStandingsExportURL(ctx context.Context, exec SQLExecutor, id int, url string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET standings_export_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
