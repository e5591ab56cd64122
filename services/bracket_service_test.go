package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/models"
)

func TestBracketStructure(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	svc := NewBracketService(e.store.Tournaments(), e.store.Matches())

	_, err := svc.Structure(ctx, 999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	tour := e.openTournament(t, models.FormatDoubleElimination)
	e.startWith(t, tour.ID, 4)

	structure, err := svc.Structure(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, tour.ID, structure.TournamentID)
	assert.Equal(t, models.FormatDoubleElimination, structure.Format)
	assert.Equal(t, 1, structure.CurrentRound)

	require.Len(t, structure.Sides, 3)
	assert.Equal(t, models.SideWinners, structure.Sides[0].Side)
	assert.Equal(t, models.SideLosers, structure.Sides[1].Side)
	assert.Equal(t, models.SideGrandFinal, structure.Sides[2].Side)

	winners := structure.Sides[0]
	require.NotEmpty(t, winners.Rounds)
	assert.Equal(t, 1, winners.Rounds[0].Round)
	assert.Len(t, winners.Rounds[0].Matches, 2)
}

func TestBracketFeeders(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	svc := NewBracketService(e.store.Tournaments(), e.store.Matches())

	_, err := svc.Feeders(ctx, 999)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	tour := e.openTournament(t, models.FormatSingleElimination)
	e.startWith(t, tour.ID, 4)

	round1 := e.matchesByRound(t, tour.ID, 1)
	final := e.matchesByRound(t, tour.ID, 2)
	require.Len(t, round1, 2)
	require.Len(t, final, 1)

	feeders, err := svc.Feeders(ctx, final[0].ID)
	require.NoError(t, err)
	require.Len(t, feeders, 2)
	assert.Equal(t, round1[0].ID, feeders[0].ID)
	assert.Equal(t, round1[1].ID, feeders[1].ID)

	// Openers take their players from the seeding, not from matches.
	feeders, err = svc.Feeders(ctx, round1[0].ID)
	require.NoError(t, err)
	assert.Empty(t, feeders)
}

func TestBracketRoundOrdersByTable(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	svc := NewBracketService(e.store.Tournaments(), e.store.Matches())

	tour := e.openTournament(t, models.FormatSwissSystem)
	e.startWith(t, tour.ID, 4)

	round, err := svc.Round(ctx, tour.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, round.Round)
	require.Len(t, round.Matches, 2)

	require.NotNil(t, round.Matches[0].TableNumber)
	require.NotNil(t, round.Matches[1].TableNumber)
	assert.Less(t, *round.Matches[0].TableNumber, *round.Matches[1].TableNumber)
}
