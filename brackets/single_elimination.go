package brackets

import (
	"fmt"
	"sort"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/utils"
)

// SingleEliminationGenerator builds a knockout bracket. Byes never
// become match rows: the seeded player is written straight into the
// next round's slot, so a bracket for n players always has exactly
// n-1 matches.
type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return string(models.FormatSingleElimination)
}

func (g *SingleEliminationGenerator) Generate(params GenerateParams) (*GeneratedBracket, error) {
	if err := validatePlayers(params.Players); err != nil {
		return nil, err
	}

	players := make([]SeededPlayer, len(params.Players))
	copy(players, params.Players)
	sort.Slice(players, func(i, j int) bool { return players[i].Seed < players[j].Seed })

	n := len(players)
	rounds := roundCount(n)
	size := 1 << rounds
	order := seedOrder(size)

	uid := func(round, pos int) string {
		return fmt.Sprintf("R%dM%d", round, pos)
	}

	byUID := make(map[string]*BracketMatch)
	var matches []*BracketMatch
	for r := 1; r <= rounds; r++ {
		count := size >> r
		for p := 1; p <= count; p++ {
			m := &BracketMatch{
				UID:          uid(r, p),
				Side:         models.SideWinners,
				Round:        r,
				OrderInRound: p,
				Phase:        phaseForRound(r, rounds),
			}
			if r < rounds {
				m.WinnerToUID = utils.Ptr(uid(r+1, (p+1)/2))
				if p%2 == 1 {
					m.WinnerToSlot = models.SlotA
				} else {
					m.WinnerToSlot = models.SlotB
				}
			}
			byUID[m.UID] = m
			matches = append(matches, m)
		}
	}

	// Fill round 1. A missing opponent is a bye: the match is dropped
	// and the player advances into the round-2 slot directly. The
	// mirrored seed order guarantees the present player of a bye pair
	// is always the first of the two positions.
	dropped := make(map[string]bool)
	for p := 0; p < size/2; p++ {
		ia, ib := order[2*p], order[2*p+1]
		m := byUID[uid(1, p+1)]
		if ib >= n {
			dropped[m.UID] = true
			dest := byUID[*m.WinnerToUID]
			setSlot(dest, m.WinnerToSlot, utils.Ptr(players[ia].PlayerID))
			continue
		}
		m.PlayerAID = utils.Ptr(players[ia].PlayerID)
		m.PlayerBID = utils.Ptr(players[ib].PlayerID)
	}

	out := make([]*BracketMatch, 0, n-1)
	for _, m := range matches {
		if !dropped[m.UID] {
			out = append(out, m)
		}
	}
	return &GeneratedBracket{Matches: out, TotalRounds: rounds}, nil
}

func setSlot(m *BracketMatch, slot models.MatchSlot, playerID *int) {
	if slot == models.SlotA {
		m.PlayerAID = playerID
	} else {
		m.PlayerBID = playerID
	}
}
