package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/models"
)

func seeds(n int) []SeededPlayer {
	players := make([]SeededPlayer, n)
	for i := range players {
		players[i] = SeededPlayer{PlayerID: 100 + i, Seed: i + 1}
	}
	return players
}

func TestValidatePlayers(t *testing.T) {
	t.Run("too few", func(t *testing.T) {
		err := validatePlayers(seeds(1))
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	})

	t.Run("duplicate player", func(t *testing.T) {
		players := seeds(4)
		players[2].PlayerID = players[0].PlayerID
		err := validatePlayers(players)
		assert.ErrorIs(t, err, ErrDuplicatePlayer)
	})

	t.Run("duplicate seed", func(t *testing.T) {
		players := seeds(4)
		players[3].Seed = 1
		err := validatePlayers(players)
		assert.ErrorIs(t, err, ErrDuplicateSeed)
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validatePlayers(seeds(8)))
	})
}

func TestSeedOrder(t *testing.T) {
	testCases := []struct {
		size     int
		expected []int
	}{
		{size: 2, expected: []int{0, 1}},
		{size: 4, expected: []int{0, 3, 1, 2}},
		{size: 8, expected: []int{0, 7, 3, 4, 1, 6, 2, 5}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, seedOrder(tc.size), "size %d", tc.size)
	}
}

func TestRoundCount(t *testing.T) {
	testCases := map[int]int{2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4, 17: 5}
	for n, expected := range testCases {
		assert.Equal(t, expected, roundCount(n), "n=%d", n)
	}
}

func TestPhaseForRound(t *testing.T) {
	assert.Equal(t, models.PhaseFinal, phaseForRound(4, 4))
	assert.Equal(t, models.PhaseSemiFinal, phaseForRound(3, 4))
	assert.Equal(t, models.PhaseQuarterFinal, phaseForRound(2, 4))
	assert.Equal(t, models.PhaseQualification, phaseForRound(1, 4))
	assert.Equal(t, models.PhaseFinal, phaseForRound(1, 1))
}

func TestNewGenerator(t *testing.T) {
	for _, format := range []models.TournamentFormat{
		models.FormatSingleElimination,
		models.FormatDoubleElimination,
		models.FormatRoundRobin,
	} {
		gen, err := NewGenerator(format)
		require.NoError(t, err)
		assert.Equal(t, string(format), gen.Name())
	}

	_, err := NewGenerator(models.FormatSwissSystem)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
