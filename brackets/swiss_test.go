package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swissStandings(points ...int) []SwissStanding {
	standings := make([]SwissStanding, len(points))
	for i, p := range points {
		standings[i] = SwissStanding{PlayerID: i + 1, Points: p, Rank: i + 1}
	}
	return standings
}

func TestSwissRoundCount(t *testing.T) {
	engine := NewSwissPairingEngine(SwissOptions{})
	assert.Equal(t, 3, engine.RoundCount(8))
	assert.Equal(t, 4, engine.RoundCount(9))
	assert.Equal(t, 5, engine.RoundCount(32))
	assert.Equal(t, 6, engine.RoundCount(33))
}

func TestSwissFirstRoundPairsByRank(t *testing.T) {
	engine := NewSwissPairingEngine(SwissOptions{})
	pairings, err := engine.PairRound(swissStandings(0, 0, 0, 0), NewPairSet(), nil)
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	assert.Equal(t, 1, pairings[0].PlayerAID)
	assert.Equal(t, 2, *pairings[0].PlayerBID)
	assert.Equal(t, 3, pairings[1].PlayerAID)
	assert.Equal(t, 4, *pairings[1].PlayerBID)
	assert.Equal(t, 1, pairings[0].Table)
	assert.Equal(t, 2, pairings[1].Table)
}

func TestSwissAvoidsRematches(t *testing.T) {
	engine := NewSwissPairingEngine(SwissOptions{})
	played := NewPairSet()
	played.Add(1, 2)
	played.Add(3, 4)

	pairings, err := engine.PairRound(swissStandings(3, 3, 0, 0), played, nil)
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	for _, p := range pairings {
		assert.False(t, played.Has(p.PlayerAID, *p.PlayerBID),
			"rematch %d-%d", p.PlayerAID, *p.PlayerBID)
	}
}

func TestSwissBacktracksAcrossGroups(t *testing.T) {
	// 1 and 2 lead and have already met; a greedy 1v3 pairing would
	// leave 2v4 which was also played. Only 1v4 with 2v3 works.
	engine := NewSwissPairingEngine(SwissOptions{})
	played := NewPairSet()
	played.Add(1, 2)
	played.Add(2, 4)
	played.Add(1, 3)

	pairings, err := engine.PairRound(swissStandings(6, 6, 3, 3), played, nil)
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	got := NewPairSet()
	for _, p := range pairings {
		got.Add(p.PlayerAID, *p.PlayerBID)
	}
	assert.True(t, got.Has(1, 4))
	assert.True(t, got.Has(2, 3))
}

func TestSwissByeGoesToBottomWithoutPriorBye(t *testing.T) {
	engine := NewSwissPairingEngine(SwissOptions{})

	t.Run("bottom player", func(t *testing.T) {
		pairings, err := engine.PairRound(swissStandings(6, 3, 3, 1, 0), NewPairSet(), nil)
		require.NoError(t, err)
		require.Len(t, pairings, 3)

		bye := pairings[2]
		assert.Nil(t, bye.PlayerBID)
		assert.Equal(t, 5, bye.PlayerAID)
	})

	t.Run("bottom already had one", func(t *testing.T) {
		hadBye := map[int]bool{5: true}
		pairings, err := engine.PairRound(swissStandings(6, 3, 3, 1, 0), NewPairSet(), hadBye)
		require.NoError(t, err)

		bye := pairings[2]
		assert.Nil(t, bye.PlayerBID)
		assert.Equal(t, 4, bye.PlayerAID)
	})
}

func TestSwissPairingExhausted(t *testing.T) {
	engine := NewSwissPairingEngine(SwissOptions{})
	played := NewPairSet()
	// Complete round robin among four players: nothing is left.
	for a := 1; a <= 4; a++ {
		for b := a + 1; b <= 4; b++ {
			played.Add(a, b)
		}
	}
	_, err := engine.PairRound(swissStandings(9, 6, 3, 0), played, nil)
	assert.ErrorIs(t, err, ErrPairingExhausted)
}

func TestSwissTooFewPlayers(t *testing.T) {
	engine := NewSwissPairingEngine(SwissOptions{})
	_, err := engine.PairRound(swissStandings(0), NewPairSet(), nil)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestPairSetNormalizesOrder(t *testing.T) {
	set := NewPairSet()
	set.Add(7, 3)
	assert.True(t, set.Has(3, 7))
	assert.True(t, set.Has(7, 3))
	assert.False(t, set.Has(3, 8))
}
