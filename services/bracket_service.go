package services

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
)

// BracketRound groups one round's matches within a bracket side.
type BracketRound struct {
	Round   int               `json:"round"`
	Phase   models.MatchPhase `json:"phase"`
	Matches []*models.Match   `json:"matches"`
}

// BracketSide is one side of the bracket: winners, losers or the grand
// final. Single elimination and the round based formats only have the
// winners side.
type BracketSide struct {
	Side   models.BracketSide `json:"side"`
	Rounds []*BracketRound    `json:"rounds"`
}

// BracketStructure is the full bracket read model.
type BracketStructure struct {
	TournamentID int                     `json:"tournament_id"`
	Format       models.TournamentFormat `json:"format"`
	CurrentRound int                     `json:"current_round"`
	TotalRounds  int                     `json:"total_rounds"`
	Sides        []*BracketSide          `json:"sides"`
}

// RoundPairings is a table view of one round, for swiss and round robin.
type RoundPairings struct {
	Round   int             `json:"round"`
	Matches []*models.Match `json:"matches"`
}

type BracketService struct {
	tournaments repositories.TournamentRepository
	matches     repositories.MatchRepository
}

func NewBracketService(tournaments repositories.TournamentRepository, matches repositories.MatchRepository) *BracketService {
	return &BracketService{tournaments: tournaments, matches: matches}
}

// Structure loads the tournament and its matches concurrently and
// groups them by side and round.
func (s *BracketService) Structure(ctx context.Context, tournamentID int) (*BracketStructure, error) {
	var (
		t       *models.Tournament
		matches []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.tournaments.GetByID(gctx, nil, tournamentID)
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matches.ListByTournament(gctx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	structure := &BracketStructure{
		TournamentID: t.ID,
		Format:       t.Format,
		CurrentRound: t.CurrentRound,
		TotalRounds:  t.TotalRounds,
		Sides:        groupBySide(matches),
	}
	return structure, nil
}

// Feeders returns the matches that send their winner or loser into the
// given match. First-round matches and swiss pairings have none.
func (s *BracketService) Feeders(ctx context.Context, matchID int) ([]*models.Match, error) {
	if _, err := s.matches.GetByID(ctx, nil, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return s.matches.ListFedBy(ctx, nil, matchID)
}

// Round returns one round's pairings, table order first.
func (s *BracketService) Round(ctx context.Context, tournamentID, round int) (*RoundPairings, error) {
	matches, err := s.matches.ListByRound(ctx, nil, tournamentID, round)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].TableNumber, matches[j].TableNumber
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return matches[i].ID < matches[j].ID
	})
	return &RoundPairings{Round: round, Matches: matches}, nil
}

var sideOrder = map[models.BracketSide]int{
	models.SideWinners:    0,
	models.SideLosers:     1,
	models.SideGrandFinal: 2,
}

func groupBySide(matches []*models.Match) []*BracketSide {
	bySide := make(map[models.BracketSide]map[int][]*models.Match)
	for _, m := range matches {
		if bySide[m.Side] == nil {
			bySide[m.Side] = make(map[int][]*models.Match)
		}
		bySide[m.Side][m.Round] = append(bySide[m.Side][m.Round], m)
	}

	sides := make([]*BracketSide, 0, len(bySide))
	for side, byRound := range bySide {
		rounds := make([]*BracketRound, 0, len(byRound))
		for round, roundMatches := range byRound {
			sort.Slice(roundMatches, func(i, j int) bool { return roundMatches[i].ID < roundMatches[j].ID })
			rounds = append(rounds, &BracketRound{
				Round:   round,
				Phase:   roundMatches[0].Phase,
				Matches: roundMatches,
			})
		}
		sort.Slice(rounds, func(i, j int) bool { return rounds[i].Round < rounds[j].Round })
		sides = append(sides, &BracketSide{Side: side, Rounds: rounds})
	}
	sort.Slice(sides, func(i, j int) bool { return sideOrder[sides[i].Side] < sideOrder[sides[j].Side] })
	return sides
}
