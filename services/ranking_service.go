package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
)

// Match points per result. Elimination brackets only track advancement,
// so a win is worth a single point there and draws cannot happen.
const (
	swissWinPoints  = 3
	swissDrawPoints = 1
	elimWinPoints   = 1
)

// TieBreaker orders two rows that are tied on points, win rate and
// wins. Negative ranks a ahead of b, positive the other way round,
// zero leaves them tied. Rows still tied after the whole chain share
// a rank.
type TieBreaker func(a, b *models.Ranking) int

type RankingService struct {
	registrations repositories.RegistrationRepository
	matches       repositories.MatchRepository
	rankings      repositories.RankingRepository
	tieBreakers   []TieBreaker
}

func NewRankingService(
	registrations repositories.RegistrationRepository,
	matches repositories.MatchRepository,
	rankings repositories.RankingRepository,
	tieBreakers ...TieBreaker,
) *RankingService {
	return &RankingService{
		registrations: registrations,
		matches:       matches,
		rankings:      rankings,
		tieBreakers:   tieBreakers,
	}
}

// Standings returns the stored standings table, best rank first.
func (s *RankingService) Standings(ctx context.Context, tournamentID int) ([]*models.Ranking, error) {
	return s.rankings.ListByTournament(ctx, nil, tournamentID)
}

// PlayerStanding returns a single player's row from the stored
// standings.
func (s *RankingService) PlayerStanding(ctx context.Context, tournamentID, playerID int) (*models.Ranking, error) {
	r, err := s.rankings.GetByTournamentAndPlayer(ctx, nil, tournamentID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrRankingNotFound) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return r, nil
}

// Clear drops the stored standings of a tournament.
func (s *RankingService) Clear(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	return s.rankings.DeleteByTournament(ctx, exec, tournamentID)
}

// Recompute rebuilds the standings of a tournament from its finished
// matches and stores them. Called inside the same transaction that
// changed a result, so the stored table never disagrees with the
// matches.
func (s *RankingService) Recompute(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) ([]*models.Ranking, error) {
	regs, err := s.registrations.ListByTournament(ctx, exec, t.ID,
		models.RegistrationStatusConfirmed, models.RegistrationStatusEliminated)
	if err != nil {
		return nil, fmt.Errorf("recompute rankings: list participants: %w", err)
	}
	matches, err := s.matches.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute rankings: list matches: %w", err)
	}

	tally := make(map[int]*models.Ranking, len(regs))
	for _, reg := range regs {
		tally[reg.PlayerID] = &models.Ranking{TournamentID: t.ID, PlayerID: reg.PlayerID}
	}

	winPoints := elimWinPoints
	if !t.Format.IsElimination() {
		winPoints = swissWinPoints
	}

	for _, m := range matches {
		if !m.Status.IsTerminal() {
			continue
		}
		a, b := lookup(tally, m.PlayerAID), lookup(tally, m.PlayerBID)
		switch {
		case m.WinnerID != nil:
			winner := lookup(tally, m.WinnerID)
			if winner != nil {
				winner.Wins++
				winner.Points += winPoints
			}
			if loser := m.OpponentOf(*m.WinnerID); loser != nil {
				if l := lookup(tally, loser); l != nil {
					l.Losses++
				}
			}
		case a != nil && b != nil:
			a.Draws++
			b.Draws++
			a.Points += swissDrawPoints
			b.Points += swissDrawPoints
		}
	}

	rankings := make([]*models.Ranking, 0, len(tally))
	for _, r := range tally {
		if played := r.Wins + r.Losses + r.Draws; played > 0 {
			r.WinRate = float64(r.Wins) / float64(played)
		}
		rankings = append(rankings, r)
	}

	// Points, then win rate, then raw wins, then the configured
	// tie-breaker chain. Players still tied after that share a rank;
	// the following distinct entry skips past them.
	sort.Slice(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		for _, tb := range s.tieBreakers {
			if d := tb(a, b); d != 0 {
				return d < 0
			}
		}
		return a.PlayerID < b.PlayerID
	})
	for i, r := range rankings {
		if i > 0 && s.tied(r, rankings[i-1]) {
			r.Rank = rankings[i-1].Rank
			continue
		}
		r.Rank = i + 1
	}

	if err := s.rankings.Replace(ctx, exec, t.ID, rankings); err != nil {
		return nil, fmt.Errorf("recompute rankings: store: %w", err)
	}
	return rankings, nil
}

func (s *RankingService) tied(a, b *models.Ranking) bool {
	if a.Points != b.Points || a.WinRate != b.WinRate || a.Wins != b.Wins {
		return false
	}
	for _, tb := range s.tieBreakers {
		if tb(a, b) != 0 {
			return false
		}
	}
	return true
}

func lookup(tally map[int]*models.Ranking, playerID *int) *models.Ranking {
	if playerID == nil {
		return nil
	}
	return tally[*playerID]
}

// ExportCSV renders the stored standings as CSV, one row per player.
func (s *RankingService) ExportCSV(ctx context.Context, tournamentID int) ([]byte, error) {
	rankings, err := s.rankings.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("export standings: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"rank", "player", "points", "wins", "losses", "draws", "winRate"}); err != nil {
		return nil, err
	}
	for _, r := range rankings {
		record := []string{
			strconv.Itoa(r.Rank),
			r.PlayerName,
			strconv.Itoa(r.Points),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			strconv.Itoa(r.Draws),
			strconv.FormatFloat(r.WinRate, 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
