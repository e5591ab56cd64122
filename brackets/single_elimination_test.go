package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/models"
)

func TestSingleEliminationMatchCount(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	for _, n := range []int{2, 3, 4, 5, 7, 8, 13, 16} {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			bracket, err := gen.Generate(GenerateParams{Players: seeds(n)})
			require.NoError(t, err)
			assert.Len(t, bracket.Matches, n-1)
			assert.Equal(t, roundCount(n), bracket.TotalRounds)
		})
	}
}

func TestSingleEliminationFourPlayers(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	bracket, err := gen.Generate(GenerateParams{Players: seeds(4)})
	require.NoError(t, err)

	byUID := indexByUID(t, bracket)
	require.Len(t, bracket.Matches, 3)

	// Mirrored seeding: 1v4 and 2v3 in round 1.
	m1, m2 := byUID["R1M1"], byUID["R1M2"]
	assert.Equal(t, 100, *m1.PlayerAID)
	assert.Equal(t, 103, *m1.PlayerBID)
	assert.Equal(t, 101, *m2.PlayerAID)
	assert.Equal(t, 102, *m2.PlayerBID)

	final := byUID["R2M1"]
	assert.Equal(t, models.PhaseFinal, final.Phase)
	assert.Nil(t, final.WinnerToUID)
	assert.Equal(t, "R2M1", *m1.WinnerToUID)
	assert.Equal(t, models.SlotA, m1.WinnerToSlot)
	assert.Equal(t, "R2M1", *m2.WinnerToUID)
	assert.Equal(t, models.SlotB, m2.WinnerToSlot)
}

func TestSingleEliminationByesAdvanceDirectly(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	bracket, err := gen.Generate(GenerateParams{Players: seeds(5)})
	require.NoError(t, err)
	require.Len(t, bracket.Matches, 4)

	byUID := indexByUID(t, bracket)

	// Only seeds 4 and 5 play round 1; the other three byes land
	// straight in round 2.
	round1 := 0
	for _, m := range bracket.Matches {
		if m.Round == 1 {
			round1++
			require.NotNil(t, m.PlayerAID)
			require.NotNil(t, m.PlayerBID)
		}
	}
	assert.Equal(t, 1, round1)

	semi1 := byUID["R2M1"]
	require.NotNil(t, semi1.PlayerAID)
	assert.Equal(t, 100, *semi1.PlayerAID) // seed 1 bye
}

func TestSingleEliminationLinksResolve(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	bracket, err := gen.Generate(GenerateParams{Players: seeds(13)})
	require.NoError(t, err)

	byUID := indexByUID(t, bracket)
	finals := 0
	for _, m := range bracket.Matches {
		if m.WinnerToUID == nil {
			finals++
			continue
		}
		_, ok := byUID[*m.WinnerToUID]
		assert.True(t, ok, "match %s links to missing %s", m.UID, *m.WinnerToUID)
	}
	assert.Equal(t, 1, finals)
}

func indexByUID(t *testing.T, bracket *GeneratedBracket) map[string]*BracketMatch {
	t.Helper()
	byUID := make(map[string]*BracketMatch, len(bracket.Matches))
	for _, m := range bracket.Matches {
		require.NotContains(t, byUID, m.UID, "duplicate UID %s", m.UID)
		byUID[m.UID] = m
	}
	return byUID
}
