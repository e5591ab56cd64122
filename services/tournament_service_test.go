package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/brackets"
	"github.com/tcgarena/tcg-arena/models"
)

func TestCreateTournamentValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()

	tests := []struct {
		name    string
		mutate  func(*models.Tournament)
		wantErr error
	}{
		{
			name:    "unknown format",
			mutate:  func(t *models.Tournament) { t.Format = "best_of_vibes" },
			wantErr: ErrTournamentInvalidFormat,
		},
		{
			name:    "min below two",
			mutate:  func(t *models.Tournament) { t.MinPlayers = 1 },
			wantErr: ErrTournamentInvalidCapacity,
		},
		{
			name:    "max below min",
			mutate:  func(t *models.Tournament) { t.MinPlayers = 8; t.MaxPlayers = 4 },
			wantErr: ErrTournamentInvalidCapacity,
		},
		{
			name:    "end before start",
			mutate:  func(t *models.Tournament) { t.EndDate = t.StartDate.Add(-time.Hour) },
			wantErr: ErrTournamentInvalidDateRange,
		},
		{
			name:    "missing name",
			mutate:  func(t *models.Tournament) { t.Name = "" },
			wantErr: ErrValidation,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := draftTournament(models.FormatSwissSystem)
			tc.mutate(draft)
			_, err := e.tournaments.Create(ctx, draft)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("valid draft", func(t *testing.T) {
		created, err := e.tournaments.Create(ctx, draftTournament(models.FormatSwissSystem))
		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusDraft, created.Status)
		assert.Zero(t, created.CurrentRound)
	})
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()

	created, err := e.tournaments.Create(ctx, draftTournament(models.FormatSwissSystem))
	require.NoError(t, err)

	// Registration cannot close before it opens.
	_, err = e.tournaments.CloseRegistration(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	opened, err := e.tournaments.OpenRegistration(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusRegistrationOpen, opened.Status)

	_, err = e.tournaments.OpenRegistration(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	closed, err := e.tournaments.CloseRegistration(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusRegistrationClosed, closed.Status)

	// Closing was premature, registration reopens.
	reopened, err := e.tournaments.OpenRegistration(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusRegistrationOpen, reopened.Status)

	cancelled, err := e.tournaments.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusCancelled, cancelled.Status)

	// Terminal states stay terminal.
	_, err = e.tournaments.OpenRegistration(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	_, err = e.tournaments.Cancel(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestAvailableTransitions(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.TournamentStatus{models.TournamentStatusRegistrationOpen, models.TournamentStatusCancelled},
		AvailableTransitions(models.TournamentStatusDraft))
	assert.Empty(t, AvailableTransitions(models.TournamentStatusFinished))
	assert.Empty(t, AvailableTransitions(models.TournamentStatusCancelled))
}

func TestUpdateTournament(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()

	created, err := e.tournaments.Create(ctx, draftTournament(models.FormatSwissSystem))
	require.NoError(t, err)

	// Anything can change while the tournament is a draft.
	created.Name = "City League Qualifier"
	created.Format = models.FormatRoundRobin
	updated, err := e.tournaments.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "City League Qualifier", updated.Name)
	assert.Equal(t, models.FormatRoundRobin, updated.Format)

	_, err = e.tournaments.OpenRegistration(ctx, created.ID)
	require.NoError(t, err)

	// The format is frozen once registration opens.
	updated.Format = models.FormatSwissSystem
	_, err = e.tournaments.Update(ctx, updated)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeleteTournament(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()

	created, err := e.tournaments.Create(ctx, draftTournament(models.FormatSwissSystem))
	require.NoError(t, err)

	// Stray dependent rows go with the tournament, matching the schema
	// cascade on backends without one.
	require.NoError(t, e.store.Matches().Create(ctx, nil, &models.Match{
		TournamentID: created.ID,
		Round:        1,
		Side:         models.SideWinners,
		Phase:        models.PhaseQualification,
		Status:       models.MatchStatusScheduled,
	}))
	require.NoError(t, e.store.Rankings().Replace(ctx, nil, created.ID,
		[]*models.Ranking{{PlayerID: 1, Rank: 1}}))

	require.NoError(t, e.tournaments.Delete(ctx, created.ID))
	_, err = e.tournaments.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	remaining, err := e.store.Matches().ListByTournament(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	standings, err := e.store.Rankings().ListByTournament(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Empty(t, standings)

	second := e.openTournament(t, models.FormatSwissSystem)
	err = e.tournaments.Delete(ctx, second.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStartSingleElimination(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSingleElimination)
	e.startWith(t, tour.ID, 4)

	started := e.getTournament(t, tour.ID)
	assert.Equal(t, models.TournamentStatusInProgress, started.Status)
	assert.Equal(t, 1, started.CurrentRound)
	assert.Equal(t, 2, started.TotalRounds)

	all, err := e.matches.ListByTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)

	final := e.matchesByRound(t, tour.ID, 2)[0]
	assert.Equal(t, models.PhaseFinal, final.Phase)
	assert.Nil(t, final.PlayerAID)
	assert.Nil(t, final.PlayerBID)

	// Both openers feed the final.
	for _, m := range e.matchesByRound(t, tour.ID, 1) {
		require.NotNil(t, m.NextMatchID)
		assert.Equal(t, final.ID, *m.NextMatchID)
	}

	standings, err := e.ranking.Standings(ctx, tour.ID)
	require.NoError(t, err)
	assert.Len(t, standings, 4, "standings start zeroed for the whole field")
}

func TestStartChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("only from registration_closed", func(t *testing.T) {
		e := newTestEnv()
		created, err := e.tournaments.Create(ctx, draftTournament(models.FormatSwissSystem))
		require.NoError(t, err)
		_, err = e.tournaments.Start(ctx, created.ID, StartParams{})
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("not enough players", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
			t.MinPlayers = 4
		})
		e.enrol(t, tour.ID, 2)
		_, err := e.tournaments.CloseRegistration(ctx, tour.ID)
		require.NoError(t, err)
		_, err = e.tournaments.Start(ctx, tour.ID, StartParams{})
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	})

	t.Run("check-in required", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		e.enrol(t, tour.ID, 4)
		_, err := e.tournaments.CloseRegistration(ctx, tour.ID)
		require.NoError(t, err)
		_, err = e.tournaments.Start(ctx, tour.ID, StartParams{CheckInRequired: true})
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown seeding method", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		e.enrol(t, tour.ID, 4)
		_, err := e.tournaments.CloseRegistration(ctx, tour.ID)
		require.NoError(t, err)
		_, err = e.tournaments.Start(ctx, tour.ID, StartParams{SeedingMethod: "coin_toss"})
		assert.ErrorIs(t, err, ErrInvalidSeedingMethod)
	})
}

func TestStartSwissWithBye(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem)
	players := e.startWith(t, tour.ID, 5)

	started := e.getTournament(t, tour.ID)
	assert.Equal(t, 3, started.TotalRounds)

	round1 := e.matchesByRound(t, tour.ID, 1)
	require.Len(t, round1, 3)

	var bye *models.Match
	paired := 0
	for _, m := range round1 {
		if m.PlayerBID == nil {
			bye = m
			continue
		}
		paired++
		assert.Equal(t, models.MatchStatusScheduled, m.Status)
		assert.NotNil(t, m.TableNumber)
	}
	require.Equal(t, 2, paired)

	// The odd player out gets a free win, recorded as a finished
	// single-player match. It goes to the bottom of the standings.
	require.NotNil(t, bye)
	assert.Equal(t, models.MatchStatusFinished, bye.Status)
	require.NotNil(t, bye.WinnerID)
	assert.Equal(t, players[4], *bye.PlayerAID)

	_, err := e.ranking.Recompute(ctx, nil, started)
	require.NoError(t, err)
	standings, err := e.ranking.Standings(ctx, tour.ID)
	require.NoError(t, err)
	require.NotEmpty(t, standings)
	assert.Equal(t, players[4], standings[0].PlayerID, "the bye win counts before anyone else plays")
}

func TestAdvanceRoundGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("elimination brackets refuse", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSingleElimination)
		e.startWith(t, tour.ID, 4)
		_, err := e.tournaments.AdvanceRound(ctx, tour.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("round must be settled", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		e.startWith(t, tour.ID, 4)
		_, err := e.tournaments.AdvanceRound(ctx, tour.ID)
		assert.ErrorIs(t, err, ErrRoundIncomplete)
	})

	t.Run("not in progress", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		_, err := e.tournaments.AdvanceRound(ctx, tour.ID)
		assert.ErrorIs(t, err, ErrTournamentNotInProgress)
	})
}

func TestSwissRoundsAdvanceAutomatically(t *testing.T) {
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem)
	e.startWith(t, tour.ID, 4)

	require.Equal(t, 2, e.getTournament(t, tour.ID).TotalRounds)

	round1 := e.matchesByRound(t, tour.ID, 1)
	require.Len(t, round1, 2)
	for _, m := range round1 {
		e.winBy(t, m.ID, *m.PlayerAID)
	}

	// The last result of the round triggers the next pairing.
	advanced := e.getTournament(t, tour.ID)
	assert.Equal(t, 2, advanced.CurrentRound)

	round2 := e.matchesByRound(t, tour.ID, 2)
	require.Len(t, round2, 2)
	for _, m := range round2 {
		assert.Equal(t, models.MatchStatusScheduled, m.Status)
		require.NotNil(t, m.PlayerAID)
		require.NotNil(t, m.PlayerBID)
	}

	// No pairing repeats from round one.
	seen := brackets.NewPairSet()
	for _, m := range append(round1, round2...) {
		assert.False(t, seen.Has(*m.PlayerAID, *m.PlayerBID), "rematch scheduled")
		seen.Add(*m.PlayerAID, *m.PlayerBID)
	}

	// Finishing the last round finishes the tournament.
	for _, m := range round2 {
		e.winBy(t, m.ID, *m.PlayerAID)
	}
	assert.Equal(t, models.TournamentStatusFinished, e.getTournament(t, tour.ID).Status)
}

func TestRoundRobinRunThrough(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatRoundRobin)
	players := e.startWith(t, tour.ID, 3)
	p1, p2 := players[0], players[1]

	started := e.getTournament(t, tour.ID)
	assert.Equal(t, 3, started.TotalRounds)

	all, err := e.matches.ListByTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, all, 3, "every pair meets exactly once")

	// Play the whole schedule, the lower-numbered player always wins.
	for round := 1; round <= 3; round++ {
		for _, m := range e.matchesByRound(t, tour.ID, round) {
			winner := *m.PlayerAID
			if *m.PlayerBID < winner {
				winner = *m.PlayerBID
			}
			e.winBy(t, m.ID, winner)
		}
	}

	done := e.getTournament(t, tour.ID)
	assert.Equal(t, models.TournamentStatusFinished, done.Status)
	assert.Equal(t, 3, done.CurrentRound)

	standings, err := e.ranking.Standings(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, p1, standings[0].PlayerID)
	assert.Equal(t, 6, standings[0].Points)
	assert.Equal(t, p2, standings[1].PlayerID)
	assert.Equal(t, 3, standings[1].Points)
}

func TestCompleteTournament(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses with open matches", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		e.startWith(t, tour.ID, 4)
		_, err := e.tournaments.Complete(ctx, tour.ID)
		assert.ErrorIs(t, err, ErrMatchesUnfinished)
	})

	t.Run("closes an abandoned bracket", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSingleElimination)
		e.startWith(t, tour.ID, 2)

		m := e.matchesByRound(t, tour.ID, 1)[0]
		_, err := e.matches.Cancel(ctx, m.ID)
		require.NoError(t, err)

		done, err := e.tournaments.Complete(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusFinished, done.Status)
	})
}

func TestProgressAndStats(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSingleElimination)
	players := e.startWith(t, tour.ID, 4)

	round1 := e.matchesByRound(t, tour.ID, 1)
	e.winBy(t, round1[0].ID, players[0])

	progress, err := e.tournaments.Progress(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusInProgress, progress.Status)
	assert.Equal(t, 3, progress.TotalMatches)
	assert.Equal(t, 1, progress.CompletedMatches)
	assert.Equal(t, 3, progress.ActivePlayers)
	assert.Equal(t, 1, progress.EliminatedPlayers)
	assert.InDelta(t, 33.3, progress.ProgressPercentage, 0.1)

	stats, err := e.tournaments.Stats(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalPlayers)
	assert.Equal(t, 3, stats.Registrations.Confirmed)
	assert.Equal(t, 1, stats.Registrations.Eliminated)
}
