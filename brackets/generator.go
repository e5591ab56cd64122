package brackets

import (
	"errors"
	"fmt"

	"github.com/tcgarena/tcg-arena/models"
)

var (
	ErrNotEnoughPlayers  = errors.New("not enough players to generate a bracket (minimum 2)")
	ErrDuplicatePlayer   = errors.New("seeding list contains a duplicate player")
	ErrDuplicateSeed     = errors.New("seeding list contains a duplicate seed")
	ErrPairingExhausted  = errors.New("no valid pairing left: all remaining pairings have already been played")
	ErrUnsupportedFormat = errors.New("unsupported tournament format")
)

// SeededPlayer is one entry of the ordered seed list the generators
// consume. Seed is 1-based; seed 1 is the strongest entry.
type SeededPlayer struct {
	PlayerID int
	Seed     int
}

// BracketMatch is a generated match before persistence. UIDs are local
// to one generation run; the service resolves them to database ids and
// rewrites WinnerTo/LoserTo links into next_match_id/next_slot columns.
type BracketMatch struct {
	UID          string
	Side         models.BracketSide
	Round        int
	OrderInRound int
	Phase        models.MatchPhase

	// Pre-resolved player slots. A nil slot is fed by another match.
	PlayerAID *int
	PlayerBID *int

	WinnerToUID  *string
	WinnerToSlot models.MatchSlot
	LoserToUID   *string
	LoserToSlot  models.MatchSlot
}

// GeneratedBracket is the output of one generation run.
type GeneratedBracket struct {
	Matches     []*BracketMatch
	TotalRounds int
}

// GenerateParams carries the confirmed, checked-in, seeded player list.
type GenerateParams struct {
	Players []SeededPlayer
}

// Generator builds the full match structure for one tournament format.
// Swiss is not a Generator: its rounds depend on standings and are paired
// one at a time by SwissPairingEngine.
type Generator interface {
	Generate(params GenerateParams) (*GeneratedBracket, error)
	Name() string
}

// NewGenerator selects the strategy for the format, once, at start time.
func NewGenerator(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(DropMappingAlternating), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func validatePlayers(players []SeededPlayer) error {
	if len(players) < 2 {
		return ErrNotEnoughPlayers
	}
	seenPlayer := make(map[int]bool, len(players))
	seenSeed := make(map[int]bool, len(players))
	for _, p := range players {
		if seenPlayer[p.PlayerID] {
			return fmt.Errorf("%w: player %d", ErrDuplicatePlayer, p.PlayerID)
		}
		if seenSeed[p.Seed] {
			return fmt.Errorf("%w: seed %d", ErrDuplicateSeed, p.Seed)
		}
		seenPlayer[p.PlayerID] = true
		seenSeed[p.Seed] = true
	}
	return nil
}

// seedOrder lays 0-based seed indexes onto bracket positions so that
// consecutive pairs form round-1 matchups of the standard mirrored
// seeding (1 vs n, 2 vs n-1, ...). Top seeds cannot meet before the
// rounds force them to.
func seedOrder(bracketSize int) []int {
	positions := []int{0}
	for len(positions) < bracketSize {
		next := make([]int, 0, len(positions)*2)
		count := len(positions) * 2
		for _, s := range positions {
			next = append(next, s, count-1-s)
		}
		positions = next
	}
	return positions
}

// phaseForRound labels a round for display. totalRounds is the depth of
// the bracket the round belongs to.
func phaseForRound(round, totalRounds int) models.MatchPhase {
	switch {
	case round == totalRounds:
		return models.PhaseFinal
	case round == totalRounds-1:
		return models.PhaseSemiFinal
	case round == totalRounds-2:
		return models.PhaseQuarterFinal
	default:
		return models.PhaseQualification
	}
}

// roundCount returns ceil(log2(n)) without going through floats.
func roundCount(n int) int {
	rounds := 0
	for size := 1; size < n; size <<= 1 {
		rounds++
	}
	return rounds
}
