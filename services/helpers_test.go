package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/brackets"
	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
)

// testEnv wires every service against the in-memory store, mirroring
// the wiring in cmd/main.go.
type testEnv struct {
	store         *repositories.MemoryStore
	ranking       *RankingService
	players       *PlayerService
	registrations *RegistrationService
	matches       *MatchService
	tournaments   *TournamentService

	nextName int
}

func newTestEnv() *testEnv {
	store := repositories.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := NewTournamentLocks()
	transactor := repositories.NoopTransactor{}

	ranking := NewRankingService(store.Registrations(), store.Matches(), store.Rankings())
	matches := NewMatchService(transactor, store.Tournaments(), store.Matches(),
		store.Registrations(), ranking, locks, NoopNotifier{}, logger)
	tournaments := NewTournamentService(transactor, store.Tournaments(), store.Players(),
		store.Registrations(), store.Matches(), ranking,
		brackets.SwissOptions{}, brackets.DropMappingAlternating, nil,
		locks, NoopNotifier{}, logger)
	matches.BindLifecycle(tournaments)

	return &testEnv{
		store:   store,
		ranking: ranking,
		players: NewPlayerService(store.Players()),
		registrations: NewRegistrationService(transactor, store.Tournaments(),
			store.Players(), store.Registrations(), locks, NoopNotifier{}, logger),
		matches:     matches,
		tournaments: tournaments,
	}
}

func draftTournament(format models.TournamentFormat) *models.Tournament {
	return &models.Tournament{
		Name:        "Friday Night Standard",
		OrganizerID: 1,
		Format:      format,
		MinPlayers:  2,
		MaxPlayers:  32,
		StartDate:   time.Now().Add(24 * time.Hour),
		IsPublic:    true,
	}
}

// openTournament creates a tournament and opens registration.
func (e *testEnv) openTournament(t *testing.T, format models.TournamentFormat, mutate ...func(*models.Tournament)) *models.Tournament {
	t.Helper()
	draft := draftTournament(format)
	for _, fn := range mutate {
		fn(draft)
	}
	created, err := e.tournaments.Create(context.Background(), draft)
	require.NoError(t, err)
	opened, err := e.tournaments.OpenRegistration(context.Background(), created.ID)
	require.NoError(t, err)
	return opened
}

func (e *testEnv) addPlayer(t *testing.T) *models.Player {
	t.Helper()
	e.nextName++
	p, err := e.players.Create(context.Background(), &models.Player{
		DisplayName: fmt.Sprintf("Trainer %03d", e.nextName),
	})
	require.NoError(t, err)
	return p
}

// enrol creates n players and registers each of them, returning the
// player ids in registration order.
func (e *testEnv) enrol(t *testing.T, tournamentID, n int) []int {
	t.Helper()
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		p := e.addPlayer(t)
		_, err := e.registrations.Register(context.Background(), RegisterParams{
			TournamentID: tournamentID,
			PlayerID:     p.ID,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	return ids
}

// startWith enrols n players, closes registration and starts the
// tournament with manual seeding so the bracket is deterministic.
func (e *testEnv) startWith(t *testing.T, tournamentID, n int) []int {
	t.Helper()
	ids := e.enrol(t, tournamentID, n)
	_, err := e.tournaments.CloseRegistration(context.Background(), tournamentID)
	require.NoError(t, err)
	_, err = e.tournaments.Start(context.Background(), tournamentID, StartParams{
		SeedingMethod: brackets.SeedingManual,
	})
	require.NoError(t, err)
	return ids
}

func (e *testEnv) matchesByRound(t *testing.T, tournamentID, round int) []*models.Match {
	t.Helper()
	out, err := e.store.Matches().ListByRound(context.Background(), nil, tournamentID, round)
	require.NoError(t, err)
	return out
}

func (e *testEnv) getTournament(t *testing.T, id int) *models.Tournament {
	t.Helper()
	tour, err := e.tournaments.Get(context.Background(), id)
	require.NoError(t, err)
	return tour
}

func (e *testEnv) getMatch(t *testing.T, id int) *models.Match {
	t.Helper()
	m, err := e.matches.Get(context.Background(), id)
	require.NoError(t, err)
	return m
}

// winBy starts the match and reports a 2-0 result for the given player.
func (e *testEnv) winBy(t *testing.T, matchID, winnerID int) *models.Match {
	t.Helper()
	m := e.getMatch(t, matchID)
	_, err := e.matches.Start(context.Background(), matchID, nil)
	require.NoError(t, err)

	params := ReportResultParams{PlayerAScore: 2}
	if m.PlayerBID != nil && *m.PlayerBID == winnerID {
		params = ReportResultParams{PlayerBScore: 2}
	} else {
		require.NotNil(t, m.PlayerAID)
		require.Equal(t, winnerID, *m.PlayerAID)
	}
	finished, err := e.matches.ReportResult(context.Background(), matchID, params)
	require.NoError(t, err)
	return finished
}
