package brackets

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntries() []SeedEntry {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []SeedEntry{
		{PlayerID: 1, Rating: 1500, RegisteredAt: base},
		{PlayerID: 2, Rating: 1800, RegisteredAt: base.Add(time.Hour)},
		{PlayerID: 3, Rating: 1800, RegisteredAt: base.Add(2 * time.Hour)},
		{PlayerID: 4, Rating: 1200, RegisteredAt: base.Add(3 * time.Hour)},
	}
}

func TestSeedPlayersRanking(t *testing.T) {
	seeded, err := SeedPlayers(SeedingRanking, seedEntries(), nil)
	require.NoError(t, err)

	// Highest rating first; equal ratings fall back to registration order.
	ids := make([]int, len(seeded))
	for i, s := range seeded {
		ids[i] = s.PlayerID
		assert.Equal(t, i+1, s.Seed)
	}
	assert.Equal(t, []int{2, 3, 1, 4}, ids)
}

func TestSeedPlayersManualKeepsOrder(t *testing.T) {
	seeded, err := SeedPlayers(SeedingManual, seedEntries(), nil)
	require.NoError(t, err)
	ids := make([]int, len(seeded))
	for i, s := range seeded {
		ids[i] = s.PlayerID
	}
	assert.Equal(t, []int{1, 2, 3, 4}, ids)
}

func TestSeedPlayersRandomIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seeded, err := SeedPlayers(SeedingRandom, seedEntries(), rng)
	require.NoError(t, err)
	require.Len(t, seeded, 4)

	seen := make(map[int]bool)
	for i, s := range seeded {
		assert.Equal(t, i+1, s.Seed)
		seen[s.PlayerID] = true
	}
	assert.Len(t, seen, 4)
}

func TestSeedPlayersUnknownMethod(t *testing.T) {
	_, err := SeedPlayers(SeedingMethod("bogus"), seedEntries(), nil)
	assert.Error(t, err)
}
