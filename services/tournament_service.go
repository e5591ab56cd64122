package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tcgarena/tcg-arena/brackets"
	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
	"github.com/tcgarena/tcg-arena/storage"
	"github.com/tcgarena/tcg-arena/utils"
)

// statusTransitions is the lifecycle rule table. A transition missing
// here is invalid, terminal states have no outgoing edges.
var statusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.TournamentStatusDraft: {
		models.TournamentStatusRegistrationOpen,
		models.TournamentStatusCancelled,
	},
	models.TournamentStatusRegistrationOpen: {
		models.TournamentStatusRegistrationClosed,
		models.TournamentStatusCancelled,
	},
	models.TournamentStatusRegistrationClosed: {
		models.TournamentStatusRegistrationOpen,
		models.TournamentStatusInProgress,
		models.TournamentStatusCancelled,
	},
	models.TournamentStatusInProgress: {
		models.TournamentStatusFinished,
		models.TournamentStatusCancelled,
	},
}

func transitionAllowed(from, to models.TournamentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AvailableTransitions lists the statuses a tournament may move to.
func AvailableTransitions(from models.TournamentStatus) []models.TournamentStatus {
	return statusTransitions[from]
}

// StartParams controls bracket generation at kick-off.
type StartParams struct {
	SeedingMethod   brackets.SeedingMethod `json:"seeding_method"`
	CheckInRequired bool                   `json:"check_in_required"`
}

type TournamentService struct {
	transactor    repositories.Transactor
	tournaments   repositories.TournamentRepository
	players       repositories.PlayerRepository
	registrations repositories.RegistrationRepository
	matches       repositories.MatchRepository
	ranking       *RankingService
	swiss         *brackets.SwissPairingEngine
	dropMapping   brackets.DropMapping
	uploader      storage.FileUploader
	locks         *TournamentLocks
	notifier      Notifier
	log           *slog.Logger
}

func NewTournamentService(
	transactor repositories.Transactor,
	tournaments repositories.TournamentRepository,
	players repositories.PlayerRepository,
	registrations repositories.RegistrationRepository,
	matches repositories.MatchRepository,
	ranking *RankingService,
	swissOpts brackets.SwissOptions,
	dropMapping brackets.DropMapping,
	uploader storage.FileUploader,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		transactor:    transactor,
		tournaments:   tournaments,
		players:       players,
		registrations: registrations,
		matches:       matches,
		ranking:       ranking,
		swiss:         brackets.NewSwissPairingEngine(swissOpts),
		dropMapping:   dropMapping,
		uploader:      uploader,
		locks:         locks,
		notifier:      notifier,
		log:           logger,
	}
}

func (s *TournamentService) Create(ctx context.Context, t *models.Tournament) (*models.Tournament, error) {
	if err := validateTournament(t); err != nil {
		return nil, err
	}
	t.Status = models.TournamentStatusDraft
	t.CurrentRound, t.TotalRounds = 0, 0
	if err := s.tournaments.Create(ctx, nil, t); err != nil {
		return nil, err
	}
	s.log.Info("tournament created", "tournament_id", t.ID, "format", t.Format)
	return t, nil
}

func validateTournament(t *models.Tournament) error {
	switch t.Format {
	case models.FormatSingleElimination, models.FormatDoubleElimination,
		models.FormatSwissSystem, models.FormatRoundRobin:
	default:
		return ErrTournamentInvalidFormat
	}
	if t.MinPlayers < 2 || t.MaxPlayers < t.MinPlayers {
		return ErrTournamentInvalidCapacity
	}
	if !t.EndDate.IsZero() && !t.EndDate.After(t.StartDate) {
		return ErrTournamentInvalidDateRange
	}
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

func (s *TournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error) {
	return s.tournaments.List(ctx, nil, filter)
}

// Update edits tournament settings. Allowed until play starts.
func (s *TournamentService) Update(ctx context.Context, t *models.Tournament) (*models.Tournament, error) {
	unlock := s.locks.Lock(t.ID)
	defer unlock()

	current, err := s.Get(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case models.TournamentStatusDraft, models.TournamentStatusRegistrationOpen, models.TournamentStatusRegistrationClosed:
	default:
		return nil, fmt.Errorf("%w: tournament can no longer be edited", ErrInvalidState)
	}
	if current.Status != models.TournamentStatusDraft && t.Format != current.Format {
		return nil, fmt.Errorf("%w: format is frozen once registration opens", ErrInvalidState)
	}
	if err := validateTournament(t); err != nil {
		return nil, err
	}
	if err := s.tournaments.Update(ctx, nil, t); err != nil {
		return nil, err
	}
	return s.Get(ctx, t.ID)
}

// Delete removes a draft tournament together with its dependent rows.
// Anything later must be cancelled instead, so history is preserved.
func (s *TournamentService) Delete(ctx context.Context, id int) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.tournaments.GetByID(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if t.Status != models.TournamentStatusDraft {
			return fmt.Errorf("%w: only draft tournaments can be deleted", ErrInvalidState)
		}
		if err := s.matches.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		if err := s.ranking.Clear(ctx, exec, id); err != nil {
			return err
		}
		return s.tournaments.Delete(ctx, exec, id)
	})
}

func (s *TournamentService) OpenRegistration(ctx context.Context, id int) (*models.Tournament, error) {
	return s.transition(ctx, id, models.TournamentStatusRegistrationOpen, nil)
}

func (s *TournamentService) CloseRegistration(ctx context.Context, id int) (*models.Tournament, error) {
	return s.transition(ctx, id, models.TournamentStatusRegistrationClosed, nil)
}

// Cancel aborts a tournament from any non-terminal state. Matches and
// registrations are kept for the record.
func (s *TournamentService) Cancel(ctx context.Context, id int) (*models.Tournament, error) {
	return s.transition(ctx, id, models.TournamentStatusCancelled, nil)
}

func (s *TournamentService) transition(ctx context.Context, id int, to models.TournamentStatus, inTx func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error) (*models.Tournament, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var updated *models.Tournament
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.tournaments.GetByID(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if !transitionAllowed(t.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, t.Status, to)
		}
		if inTx != nil {
			if err := inTx(ctx, exec, t); err != nil {
				return err
			}
		}
		if err := s.tournaments.UpdateStatus(ctx, exec, id, to); err != nil {
			return err
		}
		t.Status = to
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tournament status changed", "tournament_id", id, "status", to)
	s.notifier.TournamentUpdated(updated)
	return updated, nil
}

// Start seeds the confirmed field, generates the bracket (or the first
// swiss round), zeroes the standings and moves the tournament to
// in_progress, atomically.
func (s *TournamentService) Start(ctx context.Context, id int, params StartParams) (*models.Tournament, error) {
	if params.SeedingMethod == "" {
		params.SeedingMethod = brackets.SeedingRandom
	}
	t, err := s.transition(ctx, id, models.TournamentStatusInProgress, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
		regs, err := s.registrations.ListByTournament(ctx, exec, t.ID, models.RegistrationStatusConfirmed)
		if err != nil {
			return err
		}
		if params.CheckInRequired {
			for _, reg := range regs {
				if !reg.CheckedIn {
					return fmt.Errorf("%w: player %d has not checked in", ErrInvalidState, reg.PlayerID)
				}
			}
		}
		n := len(regs)
		if n < t.MinPlayers || n < 2 {
			return fmt.Errorf("%w: have %d, need at least %d", ErrNotEnoughPlayers, n, max(2, t.MinPlayers))
		}
		if n > t.MaxPlayers {
			return fmt.Errorf("%w: %d confirmed players exceed the limit of %d", ErrValidation, n, t.MaxPlayers)
		}

		seeded, err := s.seedField(ctx, exec, regs, params.SeedingMethod)
		if err != nil {
			return err
		}

		totalRounds, err := s.generateInitialMatches(ctx, exec, t, seeded)
		if err != nil {
			return err
		}
		if err := s.tournaments.UpdateRounds(ctx, exec, t.ID, 1, totalRounds); err != nil {
			return err
		}
		t.CurrentRound, t.TotalRounds = 1, totalRounds

		_, err = s.ranking.Recompute(ctx, exec, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.BracketUpdated(id)
	return t, nil
}

func (s *TournamentService) seedField(ctx context.Context, exec repositories.SQLExecutor, regs []*models.TournamentRegistration, method brackets.SeedingMethod) ([]brackets.SeededPlayer, error) {
	ids := make([]int, len(regs))
	for i, reg := range regs {
		ids[i] = reg.PlayerID
	}
	players, err := s.players.ListByIDs(ctx, exec, ids)
	if err != nil {
		return nil, err
	}
	ratings := make(map[int]int, len(players))
	for _, p := range players {
		ratings[p.ID] = p.Rating
	}

	entries := make([]brackets.SeedEntry, len(regs))
	for i, reg := range regs {
		entries[i] = brackets.SeedEntry{
			PlayerID:     reg.PlayerID,
			Rating:       ratings[reg.PlayerID],
			RegisteredAt: reg.RegisteredAt,
		}
	}
	seeded, err := brackets.SeedPlayers(method, entries, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeedingMethod, err)
	}
	return seeded, nil
}

func (s *TournamentService) generateInitialMatches(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, seeded []brackets.SeededPlayer) (int, error) {
	if t.Format == models.FormatSwissSystem {
		totalRounds := s.swiss.RoundCount(len(seeded))
		standings := make([]brackets.SwissStanding, len(seeded))
		for i, p := range seeded {
			standings[i] = brackets.SwissStanding{PlayerID: p.PlayerID, Rank: p.Seed}
		}
		if err := s.persistSwissRound(ctx, exec, t, 1, standings, brackets.NewPairSet(), nil); err != nil {
			return 0, err
		}
		return totalRounds, nil
	}

	var gen brackets.Generator
	switch t.Format {
	case models.FormatDoubleElimination:
		gen = brackets.NewDoubleEliminationGenerator(s.dropMapping)
	default:
		var err error
		gen, err = brackets.NewGenerator(t.Format)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTournamentInvalidFormat, err)
		}
	}
	bracket, err := gen.Generate(brackets.GenerateParams{Players: seeded})
	if err != nil {
		switch {
		case errors.Is(err, brackets.ErrNotEnoughPlayers):
			return 0, fmt.Errorf("%w: %v", ErrNotEnoughPlayers, err)
		case errors.Is(err, brackets.ErrDuplicatePlayer), errors.Is(err, brackets.ErrDuplicateSeed):
			return 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return 0, err
	}
	if err := s.persistBracket(ctx, exec, t, bracket); err != nil {
		return 0, err
	}
	return bracket.TotalRounds, nil
}

// persistBracket stores generated matches in two passes. Rows are
// created first to obtain database ids, then the generator's local
// links are rewritten onto the rows.
func (s *TournamentService) persistBracket(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, bracket *brackets.GeneratedBracket) error {
	idByUID := make(map[string]int, len(bracket.Matches))
	rows := make(map[string]*models.Match, len(bracket.Matches))
	now := time.Now()

	for _, bm := range bracket.Matches {
		row := &models.Match{
			TournamentID: t.ID,
			Round:        bm.Round,
			Side:         bm.Side,
			Phase:        bm.Phase,
			Status:       models.MatchStatusScheduled,
			PlayerAID:    bm.PlayerAID,
			PlayerBID:    bm.PlayerBID,
			ScheduledAt:  now,
		}
		if err := s.matches.Create(ctx, exec, row); err != nil {
			return fmt.Errorf("persist bracket match %s: %w", bm.UID, err)
		}
		idByUID[bm.UID] = row.ID
		rows[bm.UID] = row
	}

	for _, bm := range bracket.Matches {
		if bm.WinnerToUID == nil && bm.LoserToUID == nil {
			continue
		}
		var nextID *int
		var nextSlot *models.MatchSlot
		if bm.WinnerToUID != nil {
			id, ok := idByUID[*bm.WinnerToUID]
			if !ok {
				return fmt.Errorf("bracket match %s links to unknown match %s", bm.UID, *bm.WinnerToUID)
			}
			nextID = utils.Ptr(id)
			nextSlot = utils.Ptr(bm.WinnerToSlot)
		}
		var loserID *int
		var loserSlot *models.MatchSlot
		if bm.LoserToUID != nil {
			id, ok := idByUID[*bm.LoserToUID]
			if !ok {
				return fmt.Errorf("bracket match %s links to unknown match %s", bm.UID, *bm.LoserToUID)
			}
			loserID = utils.Ptr(id)
			loserSlot = utils.Ptr(bm.LoserToSlot)
		}
		if err := s.matches.UpdateLinks(ctx, exec, rows[bm.UID].ID, nextID, nextSlot, loserID, loserSlot); err != nil {
			return fmt.Errorf("link bracket match %s: %w", bm.UID, err)
		}
	}
	return nil
}

// persistSwissRound pairs and stores one swiss round. A bye is stored
// as an already finished single-player match so the standings pick up
// the free win.
func (s *TournamentService) persistSwissRound(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, round int, standings []brackets.SwissStanding, played brackets.PairSet, hadBye map[int]bool) error {
	pairings, err := s.swiss.PairRound(standings, played, hadBye)
	if err != nil {
		if errors.Is(err, brackets.ErrPairingExhausted) {
			return ErrPairingExhausted
		}
		if errors.Is(err, brackets.ErrNotEnoughPlayers) {
			return fmt.Errorf("%w: swiss round %d", ErrNotEnoughPlayers, round)
		}
		return err
	}

	now := time.Now()
	for _, pairing := range pairings {
		row := &models.Match{
			TournamentID: t.ID,
			Round:        round,
			Side:         models.SideWinners,
			Phase:        models.PhaseQualification,
			Status:       models.MatchStatusScheduled,
			PlayerAID:    utils.Ptr(pairing.PlayerAID),
			PlayerBID:    pairing.PlayerBID,
			TableNumber:  utils.Ptr(pairing.Table),
			ScheduledAt:  now,
		}
		if pairing.PlayerBID == nil {
			// Bye: a free win, finished on arrival.
			row.Status = models.MatchStatusFinished
			row.WinnerID = utils.Ptr(pairing.PlayerAID)
			row.FinishedAt = utils.Ptr(now)
		}
		if err := s.matches.Create(ctx, exec, row); err != nil {
			return fmt.Errorf("persist swiss round %d table %d: %w", round, pairing.Table, err)
		}
	}
	return nil
}

// AdvanceRound moves a swiss or round robin tournament to its next
// round once every match of the current round is settled. Swiss pairs
// the new round from live standings. Elimination brackets advance
// through their links and reject this operation.
func (s *TournamentService) AdvanceRound(ctx context.Context, id int) (*models.Tournament, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var updated *models.Tournament
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.tournaments.GetByID(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if t.Status != models.TournamentStatusInProgress {
			return ErrTournamentNotInProgress
		}
		if t.Format.IsElimination() {
			return fmt.Errorf("%w: elimination brackets advance through match links", ErrInvalidState)
		}
		if err := s.advanceRoundLocked(ctx, exec, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.TournamentUpdated(updated)
	s.notifier.BracketUpdated(id)
	return updated, nil
}

func (s *TournamentService) advanceRoundLocked(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	settled, err := s.roundSettled(ctx, exec, t)
	if err != nil {
		return err
	}
	if !settled {
		return ErrRoundIncomplete
	}
	if t.CurrentRound >= t.TotalRounds {
		return ErrNoMoreRounds
	}

	next := t.CurrentRound + 1
	if t.Format == models.FormatSwissSystem {
		if err := s.pairNextSwissRound(ctx, exec, t, next); err != nil {
			return err
		}
	}
	if err := s.tournaments.UpdateRounds(ctx, exec, t.ID, next, t.TotalRounds); err != nil {
		return err
	}
	t.CurrentRound = next
	s.log.Info("round advanced", "tournament_id", t.ID, "round", next)
	return nil
}

// roundSettled reports whether every match of the current round is
// terminal. Cancelled matches count as settled so a withdrawn pairing
// cannot deadlock the round barrier.
func (s *TournamentService) roundSettled(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (bool, error) {
	matches, err := s.matches.ListByRound(ctx, exec, t.ID, t.CurrentRound)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if !m.Status.IsTerminal() && m.Status != models.MatchStatusCancelled {
			return false, nil
		}
	}
	return true, nil
}

func (s *TournamentService) pairNextSwissRound(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, round int) error {
	rankings, err := s.ranking.Recompute(ctx, exec, t)
	if err != nil {
		return err
	}
	regs, err := s.registrations.ListByTournament(ctx, exec, t.ID, models.RegistrationStatusConfirmed)
	if err != nil {
		return err
	}
	active := make(map[int]bool, len(regs))
	for _, reg := range regs {
		active[reg.PlayerID] = true
	}

	standings := make([]brackets.SwissStanding, 0, len(regs))
	for _, r := range rankings {
		if active[r.PlayerID] {
			standings = append(standings, brackets.SwissStanding{
				PlayerID: r.PlayerID,
				Points:   r.Points,
				Rank:     r.Rank,
			})
		}
	}

	played := brackets.NewPairSet()
	hadBye := make(map[int]bool)
	all, err := s.matches.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return err
	}
	for _, m := range all {
		switch {
		case m.PlayerAID != nil && m.PlayerBID != nil && m.Status != models.MatchStatusCancelled:
			played.Add(*m.PlayerAID, *m.PlayerBID)
		case m.PlayerAID != nil && m.PlayerBID == nil:
			hadBye[*m.PlayerAID] = true
		}
	}

	return s.persistSwissRound(ctx, exec, t, round, standings, played, hadBye)
}

// AdvanceIfReady is the automatic barrier invoked after every match
// finalization, inside the same transaction. When the round settles it
// advances swiss and round robin tournaments, or finishes the
// tournament once nothing is left to play. A pairing dead-end is logged
// and left for the organizer instead of failing the result report.
func (s *TournamentService) AdvanceIfReady(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	if t.Status != models.TournamentStatusInProgress {
		return nil
	}

	if t.Format.IsElimination() {
		decided, err := s.bracketDecided(ctx, exec, t)
		if err != nil {
			return err
		}
		if decided {
			return s.markFinished(ctx, exec, t)
		}
		return nil
	}

	settled, err := s.roundSettled(ctx, exec, t)
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}
	if t.CurrentRound >= t.TotalRounds {
		return s.markFinished(ctx, exec, t)
	}
	if err := s.advanceRoundLocked(ctx, exec, t); err != nil {
		if errors.Is(err, ErrPairingExhausted) {
			s.log.Warn("automatic round advance hit a pairing dead-end",
				"tournament_id", t.ID, "round", t.CurrentRound+1)
			return nil
		}
		return err
	}
	return nil
}

// bracketDecided reports whether an elimination bracket has produced a
// champion: every match terminal and no pending grand final rematch.
func (s *TournamentService) bracketDecided(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) (bool, error) {
	matches, err := s.matches.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if !m.Status.IsTerminal() {
			return false, nil
		}
	}
	return len(matches) > 0, nil
}

// Complete explicitly finishes a tournament. All matches must be
// settled; swiss and round robin additionally need every scheduled
// round played.
func (s *TournamentService) Complete(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.transition(ctx, id, models.TournamentStatusFinished, func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
		matches, err := s.matches.ListByTournament(ctx, exec, t.ID)
		if err != nil {
			return err
		}
		for _, m := range matches {
			if !m.Status.IsTerminal() && m.Status != models.MatchStatusCancelled {
				return ErrMatchesUnfinished
			}
		}
		if !t.Format.IsElimination() && t.CurrentRound < t.TotalRounds {
			return fmt.Errorf("%w: round %d of %d", ErrMatchesUnfinished, t.CurrentRound, t.TotalRounds)
		}
		if err := s.tournaments.UpdateRounds(ctx, exec, t.ID, t.CurrentRound, t.TotalRounds); err != nil {
			return err
		}
		_, err = s.ranking.Recompute(ctx, exec, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterFinished(t)
	return t, nil
}

// markFinished is the in-transaction part of automatic completion.
func (s *TournamentService) markFinished(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	if _, err := s.ranking.Recompute(ctx, exec, t); err != nil {
		return err
	}
	if err := s.tournaments.UpdateStatus(ctx, exec, t.ID, models.TournamentStatusFinished); err != nil {
		return err
	}
	t.Status = models.TournamentStatusFinished
	s.log.Info("tournament finished", "tournament_id", t.ID)
	return nil
}

// AfterMatchMutation publishes post-commit effects of a match change:
// live events, and the standings archive when the mutation finished the
// tournament.
func (s *TournamentService) AfterMatchMutation(ctx context.Context, tournamentID int) {
	t, err := s.Get(ctx, tournamentID)
	if err != nil {
		s.log.Error("post-commit tournament load failed", "tournament_id", tournamentID, "error", err)
		return
	}
	s.notifier.TournamentUpdated(t)
	if rankings, err := s.ranking.Standings(ctx, tournamentID); err == nil {
		s.notifier.RankingsUpdated(tournamentID, rankings)
	}
	if t.Status == models.TournamentStatusFinished && t.StandingsExportURL == nil {
		s.afterFinished(t)
	}
}

// afterFinished archives the final standings CSV outside the lock. Best
// effort: a storage failure is logged, the tournament stays finished.
func (s *TournamentService) afterFinished(t *models.Tournament) {
	if s.uploader == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		data, err := s.ranking.ExportCSV(ctx, t.ID)
		if err != nil {
			s.log.Error("standings export failed", "tournament_id", t.ID, "error", err)
			return
		}
		key := fmt.Sprintf("tournaments/%d/standings.csv", t.ID)
		result, err := s.uploader.Upload(ctx, key, "text/csv", bytes.NewReader(data))
		if err != nil {
			s.log.Error("standings archive upload failed", "tournament_id", t.ID, "error", err)
			return
		}
		if err := s.tournaments.SetStandingsExportURL(ctx, nil, t.ID, result.Location); err != nil {
			s.log.Error("recording standings archive url failed", "tournament_id", t.ID, "error", err)
			return
		}
		s.log.Info("standings archived", "tournament_id", t.ID, "url", result.Location)
	}()
}

// Progress assembles the live progress read model.
func (s *TournamentService) Progress(ctx context.Context, id int) (*models.TournamentProgress, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.matches.Counts(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	regCounts, err := s.registrations.CountByStatus(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	progress := &models.TournamentProgress{
		Status:            t.Status,
		CurrentRound:      t.CurrentRound,
		TotalRounds:       t.TotalRounds,
		CompletedMatches:  counts.Finished,
		TotalMatches:      counts.Total,
		ActivePlayers:     regCounts[models.RegistrationStatusConfirmed],
		EliminatedPlayers: regCounts[models.RegistrationStatusEliminated],
	}
	if counts.Total > 0 {
		progress.ProgressPercentage = float64(counts.Finished) / float64(counts.Total) * 100
	}
	return progress, nil
}

// Stats aggregates headline numbers.
func (s *TournamentService) Stats(ctx context.Context, id int) (*models.TournamentStats, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.matches.Counts(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	regCounts, err := s.registrations.CountByStatus(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	return &models.TournamentStats{
		TotalPlayers: regCounts[models.RegistrationStatusConfirmed] +
			regCounts[models.RegistrationStatusEliminated],
		TotalMatches:     counts.Total,
		CompletedMatches: counts.Finished,
		CurrentRound:     t.CurrentRound,
		TotalRounds:      t.TotalRounds,
		Registrations: models.RegistrationCounts{
			Pending:    regCounts[models.RegistrationStatusPending],
			Confirmed:  regCounts[models.RegistrationStatusConfirmed],
			Waitlisted: regCounts[models.RegistrationStatusWaitlisted],
			Cancelled:  regCounts[models.RegistrationStatusCancelled],
			Eliminated: regCounts[models.RegistrationStatusEliminated],
		},
	}, nil
}
