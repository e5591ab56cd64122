package brackets

import (
	"fmt"
	"sort"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/utils"
)

// RoundRobinGenerator schedules every unordered pair of players exactly
// once using the circle method. With an odd field a phantom seat marks
// the sitting player each round; sit-outs produce no match rows and
// award no points.
type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() *RoundRobinGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return string(models.FormatRoundRobin)
}

func (g *RoundRobinGenerator) Generate(params GenerateParams) (*GeneratedBracket, error) {
	if err := validatePlayers(params.Players); err != nil {
		return nil, err
	}

	players := make([]SeededPlayer, len(params.Players))
	copy(players, params.Players)
	sort.Slice(players, func(i, j int) bool { return players[i].Seed < players[j].Seed })

	seats := make([]*int, 0, len(players)+1)
	for _, p := range players {
		seats = append(seats, utils.Ptr(p.PlayerID))
	}
	if len(seats)%2 == 1 {
		seats = append(seats, nil)
	}

	m := len(seats)
	rounds := m - 1

	var matches []*BracketMatch
	for r := 1; r <= rounds; r++ {
		pos := 1
		for i := 0; i < m/2; i++ {
			a, b := seats[i], seats[m-1-i]
			if a == nil || b == nil {
				continue
			}
			matches = append(matches, &BracketMatch{
				UID:          fmt.Sprintf("R%dM%d", r, pos),
				Side:         models.SideWinners,
				Round:        r,
				OrderInRound: pos,
				Phase:        models.PhaseQualification,
				PlayerAID:    a,
				PlayerBID:    b,
			})
			pos++
		}
		// Rotate all seats but the first one step clockwise.
		last := seats[m-1]
		copy(seats[2:], seats[1:m-1])
		seats[1] = last
	}

	return &GeneratedBracket{Matches: matches, TotalRounds: rounds}, nil
}
