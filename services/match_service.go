package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
	"github.com/tcgarena/tcg-arena/utils"
)

// ReportResultParams carries a match result. The winner is derived from
// the scores; WinnerID is only consulted when the scores are level, for
// formats that do not allow draws.
type ReportResultParams struct {
	PlayerAScore int     `json:"player_a_score"`
	PlayerBScore int     `json:"player_b_score"`
	WinnerID     *int    `json:"winner_id,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type MatchService struct {
	transactor    repositories.Transactor
	tournaments   repositories.TournamentRepository
	matches       repositories.MatchRepository
	registrations repositories.RegistrationRepository
	ranking       *RankingService
	lifecycle     *TournamentService
	locks         *TournamentLocks
	notifier      Notifier
	log           *slog.Logger
}

func NewMatchService(
	transactor repositories.Transactor,
	tournaments repositories.TournamentRepository,
	matches repositories.MatchRepository,
	registrations repositories.RegistrationRepository,
	ranking *RankingService,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		transactor:    transactor,
		tournaments:   tournaments,
		matches:       matches,
		registrations: registrations,
		ranking:       ranking,
		locks:         locks,
		notifier:      notifier,
		log:           logger,
	}
}

// BindLifecycle connects the tournament lifecycle so finished matches
// can trigger round advances and completion. The two services refer to
// each other, so the binding happens after construction.
func (s *MatchService) BindLifecycle(lifecycle *TournamentService) {
	s.lifecycle = lifecycle
}

func (s *MatchService) Get(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matches.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MatchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	return s.matches.ListByTournament(ctx, nil, tournamentID)
}

// Start moves a scheduled match with both players resolved to
// in_progress.
func (s *MatchService) Start(ctx context.Context, matchID int, notes *string) (*models.Match, error) {
	return s.mutate(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
		if t.Status != models.TournamentStatusInProgress {
			return ErrTournamentNotInProgress
		}
		if m.Status != models.MatchStatusScheduled {
			return ErrMatchNotScheduled
		}
		if m.PlayerAID == nil || m.PlayerBID == nil {
			return ErrMatchMissingPlayers
		}
		m.Status = models.MatchStatusInProgress
		m.StartedAt = utils.Ptr(time.Now())
		if notes != nil {
			m.Notes = notes
		}
		return s.matches.Update(ctx, exec, m)
	})
}

// ReportResult finishes a running match, propagates the winner and
// loser along the bracket links, stamps eliminations and rebuilds the
// standings, all in one transaction.
func (s *MatchService) ReportResult(ctx context.Context, matchID int, params ReportResultParams) (*models.Match, error) {
	return s.mutate(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
		if t.Status != models.TournamentStatusInProgress {
			return ErrTournamentNotInProgress
		}
		if m.Status != models.MatchStatusInProgress {
			return ErrMatchNotRunning
		}
		if params.PlayerAScore < 0 || params.PlayerBScore < 0 {
			return ErrInvalidScore
		}

		winnerID, err := deriveWinner(t, m, params)
		if err != nil {
			return err
		}

		m.PlayerAScore = params.PlayerAScore
		m.PlayerBScore = params.PlayerBScore
		m.WinnerID = winnerID
		m.Status = models.MatchStatusFinished
		m.FinishedAt = utils.Ptr(time.Now())
		if params.Notes != nil {
			m.Notes = params.Notes
		}
		if err := s.matches.Update(ctx, exec, m); err != nil {
			return err
		}
		return s.finalize(ctx, exec, t, m)
	})
}

// Forfeit awards the match to the opponent of the forfeiting player.
// Allowed from scheduled and in_progress.
func (s *MatchService) Forfeit(ctx context.Context, matchID, playerID int, reason string) (*models.Match, error) {
	return s.mutate(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
		if t.Status != models.TournamentStatusInProgress {
			return ErrTournamentNotInProgress
		}
		if m.Status != models.MatchStatusScheduled && m.Status != models.MatchStatusInProgress {
			return ErrMatchNotScheduled
		}
		if !m.HasPlayer(playerID) {
			return ErrPlayerNotInMatch
		}
		if m.PlayerAID == nil || m.PlayerBID == nil {
			return ErrMatchMissingPlayers
		}

		m.WinnerID = m.OpponentOf(playerID)
		m.Status = models.MatchStatusForfeit
		m.FinishedAt = utils.Ptr(time.Now())
		if reason != "" {
			m.Notes = utils.Ptr("Forfeit: " + reason)
		}
		if err := s.matches.Update(ctx, exec, m); err != nil {
			return err
		}
		return s.finalize(ctx, exec, t, m)
	})
}

// Cancel withdraws a scheduled match from play. It keeps its slot in
// the bracket and can be brought back with Reset.
func (s *MatchService) Cancel(ctx context.Context, matchID int) (*models.Match, error) {
	return s.mutate(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
		if m.Status != models.MatchStatusScheduled {
			return ErrMatchNotScheduled
		}
		m.Status = models.MatchStatusCancelled
		return s.matches.Update(ctx, exec, m)
	})
}

// Reset wipes a match result. Every downstream match that received a
// player from it is reset first, so the bracket never keeps a
// progression whose source result no longer exists. Standings are
// recomputed afterwards; once a tournament is finished its results are
// frozen and reset is refused.
func (s *MatchService) Reset(ctx context.Context, matchID int, reason string) (*models.Match, error) {
	return s.mutate(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
		if t.Status == models.TournamentStatusFinished {
			return ErrTournamentFinished
		}
		if !m.Status.IsTerminal() && m.Status != models.MatchStatusCancelled && m.Status != models.MatchStatusInProgress {
			return ErrMatchNotFinished
		}
		if reason != "" {
			m.Notes = utils.Ptr("Reset: " + reason)
		}
		if err := s.resetCascade(ctx, exec, t, m); err != nil {
			return err
		}
		if _, err := s.ranking.Recompute(ctx, exec, t); err != nil {
			return err
		}
		return nil
	})
}

// mutate runs a match mutation under the tournament lock and inside a
// transaction, then notifies subscribers.
func (s *MatchService) mutate(ctx context.Context, matchID int, fn func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error) (*models.Match, error) {
	probe, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(probe.TournamentID)
	defer unlock()

	var match *models.Match
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		m, err := s.matches.GetByID(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		t, err := s.tournaments.GetByID(ctx, exec, m.TournamentID)
		if err != nil {
			return fmt.Errorf("load tournament %d: %w", m.TournamentID, err)
		}
		if err := fn(ctx, exec, t, m); err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.MatchUpdated(match)
	if s.lifecycle != nil {
		s.lifecycle.AfterMatchMutation(ctx, match.TournamentID)
	}
	return match, nil
}

func deriveWinner(t *models.Tournament, m *models.Match, params ReportResultParams) (*int, error) {
	switch {
	case params.PlayerAScore > params.PlayerBScore:
		return m.PlayerAID, nil
	case params.PlayerBScore > params.PlayerAScore:
		return m.PlayerBID, nil
	}
	// Level scores. An explicit winner settles it (a tiebreaker game),
	// otherwise it is a draw where the format permits one.
	if params.WinnerID != nil {
		if !m.HasPlayer(*params.WinnerID) {
			return nil, ErrWinnerNotInMatch
		}
		return params.WinnerID, nil
	}
	if !t.Format.AllowsDraws() {
		return nil, ErrDrawNotAllowed
	}
	return nil, nil
}

// finalize propagates a terminal result. The match row itself is
// already stored.
func (s *MatchService) finalize(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
	if m.WinnerID != nil {
		winner := *m.WinnerID
		loser := m.OpponentOf(winner)

		if m.NextMatchID != nil && m.NextSlot != nil {
			if err := s.matches.SetPlayerSlot(ctx, exec, *m.NextMatchID, *m.NextSlot, &winner); err != nil {
				return fmt.Errorf("advance winner of match %d: %w", m.ID, err)
			}
		}
		if loser != nil {
			switch {
			case m.LoserNextMatchID != nil && m.LoserNextSlot != nil:
				if err := s.matches.SetPlayerSlot(ctx, exec, *m.LoserNextMatchID, *m.LoserNextSlot, loser); err != nil {
					return fmt.Errorf("drop loser of match %d: %w", m.ID, err)
				}
			case m.Side == models.SideGrandFinal && m.Round == 1 && *m.PlayerBID == winner:
				// The losers-bracket finalist won the first grand
				// final; both players now stand at one loss, so a
				// deciding rematch is created instead of an
				// elimination.
				if err := s.createGrandFinalReset(ctx, exec, t, m); err != nil {
					return err
				}
			case t.Format.IsElimination():
				if err := s.registrations.MarkEliminated(ctx, exec, t.ID, *loser, m.Round, time.Now()); err != nil {
					return fmt.Errorf("eliminate player %d: %w", *loser, err)
				}
			}
		}
	}

	if _, err := s.ranking.Recompute(ctx, exec, t); err != nil {
		return err
	}
	if s.lifecycle != nil {
		return s.lifecycle.AdvanceIfReady(ctx, exec, t)
	}
	return nil
}

func (s *MatchService) createGrandFinalReset(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, gf1 *models.Match) error {
	reset := &models.Match{
		TournamentID: t.ID,
		Round:        gf1.Round + 1,
		Side:         models.SideGrandFinal,
		Phase:        models.PhaseFinal,
		Status:       models.MatchStatusScheduled,
		PlayerAID:    gf1.PlayerAID,
		PlayerBID:    gf1.PlayerBID,
		ScheduledAt:  time.Now(),
	}
	if err := s.matches.Create(ctx, exec, reset); err != nil {
		return fmt.Errorf("create grand final reset: %w", err)
	}
	s.log.Info("grand final reset created",
		"tournament_id", t.ID, "match_id", reset.ID)
	return nil
}

func (s *MatchService) resetCascade(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match) error {
	hadResult := m.Status.IsTerminal() && m.WinnerID != nil

	if hadResult {
		winner := *m.WinnerID
		loser := m.OpponentOf(winner)

		// Downstream first, depth-first, so slots are cleared from the
		// leaves back to this match.
		if m.NextMatchID != nil && m.NextSlot != nil {
			if err := s.resetDownstreamSlot(ctx, exec, t, *m.NextMatchID, *m.NextSlot); err != nil {
				return err
			}
		}
		if loser != nil && m.LoserNextMatchID != nil && m.LoserNextSlot != nil {
			if err := s.resetDownstreamSlot(ctx, exec, t, *m.LoserNextMatchID, *m.LoserNextSlot); err != nil {
				return err
			}
		}

		// Undo a grand final rematch spawned by this result.
		if m.Side == models.SideGrandFinal {
			if err := s.deleteGrandFinalReset(ctx, exec, t, m); err != nil {
				return err
			}
		}

		// Reinstate a player this result eliminated.
		if loser != nil && t.Format.IsElimination() && m.LoserNextMatchID == nil && m.Side != models.SideGrandFinal {
			if err := s.clearEliminationIfStamped(ctx, exec, t, *loser, m.Round); err != nil {
				return err
			}
		}
		if loser != nil && m.Side == models.SideGrandFinal {
			if err := s.clearEliminationIfStamped(ctx, exec, t, *loser, m.Round); err != nil {
				return err
			}
		}
	}

	m.Status = models.MatchStatusScheduled
	m.WinnerID = nil
	m.PlayerAScore, m.PlayerBScore = 0, 0
	m.StartedAt, m.FinishedAt = nil, nil
	return s.matches.Update(ctx, exec, m)
}

// resetDownstreamSlot resets the receiving match if it already has a
// result, then vacates the slot the upstream player occupied.
func (s *MatchService) resetDownstreamSlot(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, matchID int, slot models.MatchSlot) error {
	dest, err := s.matches.GetByID(ctx, exec, matchID)
	if err != nil {
		return fmt.Errorf("load downstream match %d: %w", matchID, err)
	}
	if dest.Status != models.MatchStatusScheduled {
		if err := s.resetCascade(ctx, exec, t, dest); err != nil {
			return err
		}
	}
	return s.matches.SetPlayerSlot(ctx, exec, matchID, slot, nil)
}

func (s *MatchService) deleteGrandFinalReset(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, gf *models.Match) error {
	all, err := s.matches.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return err
	}
	for _, m := range all {
		if m.Side != models.SideGrandFinal || m.Round <= gf.Round {
			continue
		}
		if m.Status != models.MatchStatusScheduled {
			if err := s.resetCascade(ctx, exec, t, m); err != nil {
				return err
			}
		}
		if err := s.matches.Delete(ctx, exec, m.ID); err != nil {
			return fmt.Errorf("delete grand final reset %d: %w", m.ID, err)
		}
	}
	return nil
}

func (s *MatchService) clearEliminationIfStamped(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, playerID, round int) error {
	reg, err := s.registrations.GetByTournamentAndPlayer(ctx, exec, t.ID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil
		}
		return err
	}
	if reg.Status != models.RegistrationStatusEliminated || reg.EliminatedRound == nil || *reg.EliminatedRound != round {
		return nil
	}
	return s.registrations.ClearElimination(ctx, exec, t.ID, playerID)
}
