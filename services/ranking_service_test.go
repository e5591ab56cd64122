package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/utils"
)

// seedStandingsFixture creates an in-progress tournament with four
// confirmed players, bypassing the registration flow.
func seedStandingsFixture(t *testing.T, e *testEnv, format models.TournamentFormat) (*models.Tournament, []int) {
	t.Helper()
	ctx := context.Background()

	tour := draftTournament(format)
	tour.Status = models.TournamentStatusInProgress
	require.NoError(t, e.store.Tournaments().Create(ctx, nil, tour))

	ids := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		p := e.addPlayer(t)
		require.NoError(t, e.store.Registrations().Create(ctx, nil, &models.TournamentRegistration{
			TournamentID: tour.ID,
			PlayerID:     p.ID,
			Status:       models.RegistrationStatusConfirmed,
		}))
		ids = append(ids, p.ID)
	}
	return tour, ids
}

func finishedMatch(t *testing.T, e *testEnv, tournamentID, a, b int, winner *int) {
	t.Helper()
	require.NoError(t, e.store.Matches().Create(context.Background(), nil, &models.Match{
		TournamentID: tournamentID,
		Round:        1,
		Side:         models.SideWinners,
		Phase:        models.PhaseQualification,
		Status:       models.MatchStatusFinished,
		PlayerAID:    utils.Ptr(a),
		PlayerBID:    utils.Ptr(b),
		WinnerID:     winner,
	}))
}

func TestRecomputeSwissPoints(t *testing.T) {
	e := newTestEnv()
	tour, ids := seedStandingsFixture(t, e, models.FormatSwissSystem)
	p1, p2, p3, p4 := ids[0], ids[1], ids[2], ids[3]

	finishedMatch(t, e, tour.ID, p1, p2, utils.Ptr(p1))
	finishedMatch(t, e, tour.ID, p3, p4, nil) // draw
	finishedMatch(t, e, tour.ID, p1, p3, utils.Ptr(p1))
	finishedMatch(t, e, tour.ID, p2, p4, utils.Ptr(p2))

	rankings, err := e.ranking.Recompute(context.Background(), nil, tour)
	require.NoError(t, err)
	require.Len(t, rankings, 4)

	byPlayer := make(map[int]*models.Ranking, len(rankings))
	for _, r := range rankings {
		byPlayer[r.PlayerID] = r
	}

	assert.Equal(t, 6, byPlayer[p1].Points)
	assert.Equal(t, 2, byPlayer[p1].Wins)
	assert.Equal(t, 1.0, byPlayer[p1].WinRate)
	assert.Equal(t, 1, byPlayer[p1].Rank)

	assert.Equal(t, 3, byPlayer[p2].Points)
	assert.Equal(t, 2, byPlayer[p2].Rank)

	// p3 and p4 are both 0-1-1 on one point and share third place.
	assert.Equal(t, 1, byPlayer[p3].Points)
	assert.Equal(t, 1, byPlayer[p3].Draws)
	assert.Equal(t, 3, byPlayer[p3].Rank)
	assert.Equal(t, 3, byPlayer[p4].Rank)
}

func TestRecomputeTieBreakerChain(t *testing.T) {
	e := newTestEnv()
	tour, ids := seedStandingsFixture(t, e, models.FormatSwissSystem)
	p1, p2, p3, p4 := ids[0], ids[1], ids[2], ids[3]

	finishedMatch(t, e, tour.ID, p1, p2, utils.Ptr(p1))
	finishedMatch(t, e, tour.ID, p3, p4, nil) // p3 and p4 end up tied

	higherIDFirst := func(a, b *models.Ranking) int { return b.PlayerID - a.PlayerID }
	svc := NewRankingService(e.store.Registrations(), e.store.Matches(), e.store.Rankings(), higherIDFirst)

	rankings, err := svc.Recompute(context.Background(), nil, tour)
	require.NoError(t, err)

	byPlayer := make(map[int]*models.Ranking, len(rankings))
	for _, r := range rankings {
		byPlayer[r.PlayerID] = r
	}
	assert.NotEqual(t, byPlayer[p3].Rank, byPlayer[p4].Rank, "the chain splits the tie")
	assert.Less(t, byPlayer[p4].Rank, byPlayer[p3].Rank)
}

func TestRecomputeEliminationPoints(t *testing.T) {
	e := newTestEnv()
	tour, ids := seedStandingsFixture(t, e, models.FormatSingleElimination)
	p1, p2 := ids[0], ids[1]

	finishedMatch(t, e, tour.ID, p1, p2, utils.Ptr(p1))

	rankings, err := e.ranking.Recompute(context.Background(), nil, tour)
	require.NoError(t, err)

	byPlayer := make(map[int]*models.Ranking, len(rankings))
	for _, r := range rankings {
		byPlayer[r.PlayerID] = r
	}
	assert.Equal(t, 1, byPlayer[p1].Points, "elimination wins are worth a single point")
	assert.Equal(t, 0, byPlayer[p2].Points)
	assert.Equal(t, 1, byPlayer[p2].Losses)
}

func TestRecomputeIgnoresUnfinishedMatches(t *testing.T) {
	e := newTestEnv()
	tour, ids := seedStandingsFixture(t, e, models.FormatSwissSystem)

	require.NoError(t, e.store.Matches().Create(context.Background(), nil, &models.Match{
		TournamentID: tour.ID,
		Round:        1,
		Side:         models.SideWinners,
		Phase:        models.PhaseQualification,
		Status:       models.MatchStatusScheduled,
		PlayerAID:    utils.Ptr(ids[0]),
		PlayerBID:    utils.Ptr(ids[1]),
	}))

	rankings, err := e.ranking.Recompute(context.Background(), nil, tour)
	require.NoError(t, err)
	for _, r := range rankings {
		assert.Zero(t, r.Points)
		assert.Zero(t, r.Wins+r.Losses+r.Draws)
		assert.Equal(t, 1, r.Rank, "an all-zero field shares first place")
	}
}

func TestPlayerStanding(t *testing.T) {
	e := newTestEnv()
	tour, ids := seedStandingsFixture(t, e, models.FormatSwissSystem)
	p1, p2 := ids[0], ids[1]

	finishedMatch(t, e, tour.ID, p1, p2, utils.Ptr(p1))
	_, err := e.ranking.Recompute(context.Background(), nil, tour)
	require.NoError(t, err)

	standing, err := e.ranking.PlayerStanding(context.Background(), tour.ID, p1)
	require.NoError(t, err)
	assert.Equal(t, 1, standing.Rank)
	assert.Equal(t, 3, standing.Points)

	_, err = e.ranking.PlayerStanding(context.Background(), tour.ID, 999)
	assert.ErrorIs(t, err, ErrRankingNotFound)
}

func TestExportCSV(t *testing.T) {
	e := newTestEnv()
	tour, ids := seedStandingsFixture(t, e, models.FormatSwissSystem)
	p1, p2 := ids[0], ids[1]

	finishedMatch(t, e, tour.ID, p1, p2, utils.Ptr(p1))

	_, err := e.ranking.Recompute(context.Background(), nil, tour)
	require.NoError(t, err)

	out, err := e.ranking.ExportCSV(context.Background(), tour.ID)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "rank,player,points,wins,losses,draws,winRate", lines[0])

	winner, err := e.players.Get(context.Background(), p1)
	require.NoError(t, err)
	assert.Equal(t, "1,"+winner.DisplayName+",3,1,0,0,1.000", lines[1])
}
