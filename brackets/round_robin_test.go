package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinEveryPairOnce(t *testing.T) {
	gen := NewRoundRobinGenerator()
	for _, n := range []int{2, 3, 4, 5, 7, 8} {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			bracket, err := gen.Generate(GenerateParams{Players: seeds(n)})
			require.NoError(t, err)

			expectedMatches := n * (n - 1) / 2
			assert.Len(t, bracket.Matches, expectedMatches)

			expectedRounds := n - 1
			if n%2 == 1 {
				expectedRounds = n
			}
			assert.Equal(t, expectedRounds, bracket.TotalRounds)

			met := NewPairSet()
			perRound := make(map[int]map[int]bool)
			for _, m := range bracket.Matches {
				require.NotNil(t, m.PlayerAID)
				require.NotNil(t, m.PlayerBID)
				assert.False(t, met.Has(*m.PlayerAID, *m.PlayerBID),
					"pair %d-%d scheduled twice", *m.PlayerAID, *m.PlayerBID)
				met.Add(*m.PlayerAID, *m.PlayerBID)

				// No player sits at two tables in the same round.
				if perRound[m.Round] == nil {
					perRound[m.Round] = make(map[int]bool)
				}
				assert.False(t, perRound[m.Round][*m.PlayerAID])
				assert.False(t, perRound[m.Round][*m.PlayerBID])
				perRound[m.Round][*m.PlayerAID] = true
				perRound[m.Round][*m.PlayerBID] = true
			}
		})
	}
}

func TestRoundRobinOddFieldSitOuts(t *testing.T) {
	gen := NewRoundRobinGenerator()
	bracket, err := gen.Generate(GenerateParams{Players: seeds(5)})
	require.NoError(t, err)
	require.Len(t, bracket.Matches, 10)
	assert.Equal(t, 5, bracket.TotalRounds)

	// Each round has two matches and one sitting player; no bye rows.
	perRound := make(map[int]int)
	games := make(map[int]int)
	for _, m := range bracket.Matches {
		perRound[m.Round]++
		games[*m.PlayerAID]++
		games[*m.PlayerBID]++
	}
	for r := 1; r <= 5; r++ {
		assert.Equal(t, 2, perRound[r], "round %d", r)
	}
	for id, count := range games {
		assert.Equal(t, 4, count, "player %d", id)
	}
}

func TestRoundRobinNoLinks(t *testing.T) {
	gen := NewRoundRobinGenerator()
	bracket, err := gen.Generate(GenerateParams{Players: seeds(4)})
	require.NoError(t, err)
	for _, m := range bracket.Matches {
		assert.Nil(t, m.WinnerToUID)
		assert.Nil(t, m.LoserToUID)
	}
}
