package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
	"github.com/tcgarena/tcg-arena/utils"
)

// RegisterParams is the payload for a new registration.
type RegisterParams struct {
	TournamentID int     `json:"tournament_id"`
	PlayerID     int     `json:"player_id"`
	Notes        *string `json:"notes,omitempty"`
}

type RegistrationService struct {
	transactor    repositories.Transactor
	tournaments   repositories.TournamentRepository
	players       repositories.PlayerRepository
	registrations repositories.RegistrationRepository
	locks         *TournamentLocks
	notifier      Notifier
	log           *slog.Logger
}

func NewRegistrationService(
	transactor repositories.Transactor,
	tournaments repositories.TournamentRepository,
	players repositories.PlayerRepository,
	registrations repositories.RegistrationRepository,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		transactor:    transactor,
		tournaments:   tournaments,
		players:       players,
		registrations: registrations,
		locks:         locks,
		notifier:      notifier,
		log:           logger,
	}
}

// Register signs a player up. Approval-gated tournaments produce a
// pending registration, a full tournament produces a waitlisted one
// when the waitlist is enabled, otherwise the seat is confirmed
// immediately.
func (s *RegistrationService) Register(ctx context.Context, params RegisterParams) (*models.TournamentRegistration, error) {
	unlock := s.locks.Lock(params.TournamentID)
	defer unlock()

	var reg *models.TournamentRegistration
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, params.TournamentID)
		if err != nil {
			return err
		}
		if err := s.checkRegistrationWindow(t); err != nil {
			return err
		}
		player, err := s.players.GetByID(ctx, exec, params.PlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		if err := checkAgeRestriction(t, player); err != nil {
			return err
		}

		status := models.RegistrationStatusConfirmed
		if t.RequiresApproval {
			status = models.RegistrationStatusPending
		}

		full, err := s.isFull(ctx, exec, t)
		if err != nil {
			return err
		}
		if full {
			if !t.EnableWaitlist {
				return ErrTournamentFull
			}
			status = models.RegistrationStatusWaitlisted
		}

		// A cancelled registration is revived instead of inserting a
		// second (tournament, player) row.
		existing, err := s.registrations.GetByTournamentAndPlayer(ctx, exec, t.ID, params.PlayerID)
		switch {
		case err == nil:
			if existing.Status.IsActive() {
				return ErrRegistrationConflict
			}
			if err := s.registrations.UpdateStatus(ctx, exec, existing.ID, status); err != nil {
				return err
			}
			existing.Status = status
			reg = existing
			return nil
		case !errors.Is(err, repositories.ErrRegistrationNotFound):
			return err
		}

		reg = &models.TournamentRegistration{
			TournamentID:     t.ID,
			PlayerID:         params.PlayerID,
			Status:           status,
			Notes:            params.Notes,
			ConfirmationCode: uuid.NewString(),
		}
		if err := s.registrations.Create(ctx, exec, reg); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrRegistrationConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("player registered",
		"tournament_id", reg.TournamentID, "player_id", reg.PlayerID, "status", reg.Status)
	return reg, nil
}

func (s *RegistrationService) checkRegistrationWindow(t *models.Tournament) error {
	switch t.Status {
	case models.TournamentStatusRegistrationOpen:
		if t.RegistrationDeadline != nil && time.Now().After(*t.RegistrationDeadline) && !t.AllowLateRegistration {
			return ErrRegistrationDeadline
		}
		return nil
	case models.TournamentStatusRegistrationClosed:
		if t.AllowLateRegistration {
			return nil
		}
		return ErrRegistrationNotOpen
	default:
		return ErrRegistrationNotOpen
	}
}

// checkAgeRestriction enforces the tournament's age window. A
// restricted event requires a known birth date.
func checkAgeRestriction(t *models.Tournament, p *models.Player) error {
	if t.AgeRestrictionMin == nil && t.AgeRestrictionMax == nil {
		return nil
	}
	age := p.AgeAt(time.Now())
	if age == nil {
		return fmt.Errorf("%w: birth date required", ErrAgeRestriction)
	}
	if t.AgeRestrictionMin != nil && *age < *t.AgeRestrictionMin {
		return ErrAgeRestriction
	}
	if t.AgeRestrictionMax != nil && *age > *t.AgeRestrictionMax {
		return ErrAgeRestriction
	}
	return nil
}

// isFull counts seats taken by pending and confirmed registrations
// against the maximum.
func (s *RegistrationService) isFull(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (bool, error) {
	counts, err := s.registrations.CountByStatus(ctx, exec, t.ID)
	if err != nil {
		return false, err
	}
	taken := counts[models.RegistrationStatusPending] + counts[models.RegistrationStatusConfirmed]
	return taken >= t.MaxPlayers, nil
}

func (s *RegistrationService) Get(ctx context.Context, id int) (*models.TournamentRegistration, error) {
	reg, err := s.registrations.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (s *RegistrationService) ListByTournament(ctx context.Context, tournamentID int, statuses ...models.RegistrationStatus) ([]*models.TournamentRegistration, error) {
	return s.registrations.ListByTournament(ctx, nil, tournamentID, statuses...)
}

func (s *RegistrationService) Counts(ctx context.Context, tournamentID int) (*models.RegistrationCounts, error) {
	counts, err := s.registrations.CountByStatus(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	return &models.RegistrationCounts{
		Pending:    counts[models.RegistrationStatusPending],
		Confirmed:  counts[models.RegistrationStatusConfirmed],
		Waitlisted: counts[models.RegistrationStatusWaitlisted],
		Cancelled:  counts[models.RegistrationStatusCancelled],
		Eliminated: counts[models.RegistrationStatusEliminated],
	}, nil
}

// Approve confirms a pending registration. If the tournament filled up
// in the meantime the registration moves to the waitlist instead.
func (s *RegistrationService) Approve(ctx context.Context, registrationID int) (*models.TournamentRegistration, error) {
	return s.mutate(ctx, registrationID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, reg *models.TournamentRegistration) error {
		if reg.Status != models.RegistrationStatusPending {
			return ErrNotPending
		}
		full, err := s.isFull(ctx, exec, t)
		if err != nil {
			return err
		}
		status := models.RegistrationStatusConfirmed
		if full {
			if !t.EnableWaitlist {
				return ErrTournamentFull
			}
			status = models.RegistrationStatusWaitlisted
		}
		reg.Status = status
		return s.registrations.UpdateStatus(ctx, exec, reg.ID, status)
	})
}

// ApproveAll confirms every pending registration of a tournament,
// waitlisting the overflow. It returns the number approved.
func (s *RegistrationService) ApproveAll(ctx context.Context, tournamentID int) (int, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	approved := 0
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		pending, err := s.registrations.ListByTournament(ctx, exec, tournamentID, models.RegistrationStatusPending)
		if err != nil {
			return err
		}
		for _, reg := range pending {
			full, err := s.isFull(ctx, exec, t)
			if err != nil {
				return err
			}
			status := models.RegistrationStatusConfirmed
			if full {
				if !t.EnableWaitlist {
					break
				}
				status = models.RegistrationStatusWaitlisted
			}
			if err := s.registrations.UpdateStatus(ctx, exec, reg.ID, status); err != nil {
				return err
			}
			if status == models.RegistrationStatusConfirmed {
				approved++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return approved, nil
}

// Reject turns down a pending registration.
func (s *RegistrationService) Reject(ctx context.Context, registrationID int) (*models.TournamentRegistration, error) {
	return s.mutate(ctx, registrationID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, reg *models.TournamentRegistration) error {
		if reg.Status != models.RegistrationStatusPending {
			return ErrNotPending
		}
		reg.Status = models.RegistrationStatusCancelled
		return s.registrations.UpdateStatus(ctx, exec, reg.ID, reg.Status)
	})
}

// Cancel withdraws a registration before the tournament starts. A
// freed confirmed seat promotes the longest-waiting waitlisted player.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID int) (*models.TournamentRegistration, error) {
	return s.mutate(ctx, registrationID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, reg *models.TournamentRegistration) error {
		if t.Status == models.TournamentStatusInProgress || t.Status.IsTerminal() {
			return ErrRegistrationNotOpen
		}
		if !reg.Status.IsActive() {
			return ErrNotConfirmed
		}
		freedSeat := reg.Status == models.RegistrationStatusConfirmed
		reg.Status = models.RegistrationStatusCancelled
		if err := s.registrations.UpdateStatus(ctx, exec, reg.ID, reg.Status); err != nil {
			return err
		}
		if freedSeat && t.EnableWaitlist {
			return s.promoteFromWaitlist(ctx, exec, t)
		}
		return nil
	})
}

func (s *RegistrationService) promoteFromWaitlist(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	next, err := s.registrations.FirstWaitlisted(ctx, exec, t.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil
		}
		return err
	}
	status := models.RegistrationStatusConfirmed
	if t.RequiresApproval {
		status = models.RegistrationStatusPending
	}
	if err := s.registrations.UpdateStatus(ctx, exec, next.ID, status); err != nil {
		return err
	}
	s.log.Info("waitlisted player promoted",
		"tournament_id", t.ID, "player_id", next.PlayerID, "status", status)
	return nil
}

// BulkFill creates the given number of placeholder players and
// registers them as confirmed, a fixture helper for organizers testing
// an event setup. It returns the created registrations.
func (s *RegistrationService) BulkFill(ctx context.Context, tournamentID, count int) ([]*models.TournamentRegistration, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be positive", ErrValidation)
	}
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	var regs []*models.TournamentRegistration
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := s.checkRegistrationWindow(t); err != nil {
			return err
		}
		counts, err := s.registrations.CountByStatus(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		taken := counts[models.RegistrationStatusPending] + counts[models.RegistrationStatusConfirmed]
		if taken+count > t.MaxPlayers {
			return fmt.Errorf("%w: %d seats requested, %d free", ErrTournamentFull, count, t.MaxPlayers-taken)
		}

		for i := 0; i < count; i++ {
			player := &models.Player{
				DisplayName: fmt.Sprintf("Player %s", uuid.NewString()[:8]),
				Rating:      1500,
			}
			if err := s.players.Create(ctx, exec, player); err != nil {
				return err
			}
			reg := &models.TournamentRegistration{
				TournamentID:     tournamentID,
				PlayerID:         player.ID,
				Status:           models.RegistrationStatusConfirmed,
				ConfirmationCode: uuid.NewString(),
			}
			if err := s.registrations.Create(ctx, exec, reg); err != nil {
				return err
			}
			regs = append(regs, reg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tournament bulk-filled", "tournament_id", tournamentID, "count", len(regs))
	return regs, nil
}

// BulkCheckIn checks in every confirmed player of a tournament and
// returns how many were affected.
func (s *RegistrationService) BulkCheckIn(ctx context.Context, tournamentID int) (int, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	checkedIn := 0
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.getTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusRegistrationOpen && t.Status != models.TournamentStatusRegistrationClosed {
			return ErrRegistrationNotOpen
		}
		confirmed, err := s.registrations.ListByTournament(ctx, exec, tournamentID, models.RegistrationStatusConfirmed)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, reg := range confirmed {
			if reg.CheckedIn {
				continue
			}
			if err := s.registrations.SetCheckedIn(ctx, exec, reg.ID, true, &now); err != nil {
				return err
			}
			checkedIn++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return checkedIn, nil
}

// CheckIn marks a confirmed player as present. Only checked-in players
// are paired when the bracket is generated.
func (s *RegistrationService) CheckIn(ctx context.Context, registrationID int) (*models.TournamentRegistration, error) {
	return s.mutate(ctx, registrationID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, reg *models.TournamentRegistration) error {
		if t.Status != models.TournamentStatusRegistrationOpen && t.Status != models.TournamentStatusRegistrationClosed {
			return ErrRegistrationNotOpen
		}
		if reg.Status != models.RegistrationStatusConfirmed {
			return ErrNotConfirmed
		}
		now := time.Now()
		reg.CheckedIn = true
		reg.CheckedInAt = utils.Ptr(now)
		return s.registrations.SetCheckedIn(ctx, exec, reg.ID, true, &now)
	})
}

// CheckOut reverts a check-in.
func (s *RegistrationService) CheckOut(ctx context.Context, registrationID int) (*models.TournamentRegistration, error) {
	return s.mutate(ctx, registrationID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, reg *models.TournamentRegistration) error {
		if t.Status != models.TournamentStatusRegistrationOpen && t.Status != models.TournamentStatusRegistrationClosed {
			return ErrRegistrationNotOpen
		}
		reg.CheckedIn = false
		reg.CheckedInAt = nil
		return s.registrations.SetCheckedIn(ctx, exec, reg.ID, false, nil)
	})
}

func (s *RegistrationService) getTournament(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *RegistrationService) mutate(ctx context.Context, registrationID int, fn func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, reg *models.TournamentRegistration) error) (*models.TournamentRegistration, error) {
	probe, err := s.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(probe.TournamentID)
	defer unlock()

	var reg *models.TournamentRegistration
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		r, err := s.registrations.GetByID(ctx, exec, registrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		t, err := s.getTournament(ctx, exec, r.TournamentID)
		if err != nil {
			return fmt.Errorf("load tournament %d: %w", r.TournamentID, err)
		}
		if err := fn(ctx, exec, t, r); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
