package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/utils"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("open tournament confirms immediately", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		p := e.addPlayer(t)

		reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStatusConfirmed, reg.Status)
		assert.NotEmpty(t, reg.ConfirmationCode)
	})

	t.Run("approval gate produces pending", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
			t.RequiresApproval = true
		})
		p := e.addPlayer(t)

		reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStatusPending, reg.Status)
	})

	t.Run("full without waitlist is rejected", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
			t.MaxPlayers = 2
		})
		e.enrol(t, tour.ID, 2)
		p := e.addPlayer(t)

		_, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		assert.ErrorIs(t, err, ErrTournamentFull)
	})

	t.Run("full with waitlist queues", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
			t.MaxPlayers = 2
			t.EnableWaitlist = true
		})
		e.enrol(t, tour.ID, 2)
		p := e.addPlayer(t)

		reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStatusWaitlisted, reg.Status)
	})

	t.Run("closed registration refuses", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		_, err := e.tournaments.CloseRegistration(ctx, tour.ID)
		require.NoError(t, err)
		p := e.addPlayer(t)

		_, err = e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		assert.ErrorIs(t, err, ErrRegistrationNotOpen)
	})

	t.Run("closed registration with late entry allowed", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
			t.AllowLateRegistration = true
		})
		_, err := e.tournaments.CloseRegistration(ctx, tour.ID)
		require.NoError(t, err)
		p := e.addPlayer(t)

		reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStatusConfirmed, reg.Status)
	})

	t.Run("deadline passed", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
			t.RegistrationDeadline = utils.Ptr(time.Now().Add(-time.Hour))
		})
		p := e.addPlayer(t)

		_, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		assert.ErrorIs(t, err, ErrRegistrationDeadline)
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		p := e.addPlayer(t)

		_, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		_, err = e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		assert.ErrorIs(t, err, ErrRegistrationConflict)
	})

	t.Run("cancelled registration is revived, not duplicated", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)
		p := e.addPlayer(t)

		first, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		_, err = e.registrations.Cancel(ctx, first.ID)
		require.NoError(t, err)

		again, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, models.RegistrationStatusConfirmed, again.Status)
	})

	t.Run("unknown player", func(t *testing.T) {
		e := newTestEnv()
		tour := e.openTournament(t, models.FormatSwissSystem)

		_, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: 999})
		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})
}

func TestRegisterAgeRestriction(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
		t.AgeRestrictionMin = utils.Ptr(18)
	})

	t.Run("unknown birth date refused", func(t *testing.T) {
		p := e.addPlayer(t)
		_, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		assert.ErrorIs(t, err, ErrAgeRestriction)
	})

	t.Run("too young refused", func(t *testing.T) {
		p, err := e.players.Create(ctx, &models.Player{
			DisplayName: "Junior",
			BirthDate:   utils.Ptr(time.Now().AddDate(-12, 0, 0)),
		})
		require.NoError(t, err)
		_, err = e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		assert.ErrorIs(t, err, ErrAgeRestriction)
	})

	t.Run("old enough accepted", func(t *testing.T) {
		p, err := e.players.Create(ctx, &models.Player{
			DisplayName: "Senior",
			BirthDate:   utils.Ptr(time.Now().AddDate(-30, 0, 0)),
		})
		require.NoError(t, err)
		reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationStatusConfirmed, reg.Status)
	})
}

func TestApprovalFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
		t.RequiresApproval = true
	})
	p := e.addPlayer(t)
	reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
	require.NoError(t, err)

	approved, err := e.registrations.Approve(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusConfirmed, approved.Status)

	// A confirmed registration cannot be approved again.
	_, err = e.registrations.Approve(ctx, reg.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestCancelPromotesFromWaitlist(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
		t.MaxPlayers = 2
		t.MinPlayers = 2
		t.EnableWaitlist = true
	})

	e.enrol(t, tour.ID, 2)
	waitlisted := e.enrol(t, tour.ID, 2) // both land on the waitlist

	regs, err := e.registrations.ListByTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, regs, 4)

	firstSeat := regs[0]
	require.Equal(t, models.RegistrationStatusConfirmed, firstSeat.Status)

	_, err = e.registrations.Cancel(ctx, firstSeat.ID)
	require.NoError(t, err)

	// The earliest waitlisted player takes the freed seat, in FIFO order.
	promoted, err := e.store.Registrations().GetByTournamentAndPlayer(ctx, nil, tour.ID, waitlisted[0])
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusConfirmed, promoted.Status)

	still, err := e.store.Registrations().GetByTournamentAndPlayer(ctx, nil, tour.ID, waitlisted[1])
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusWaitlisted, still.Status)
}

func TestCheckInFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem)
	p := e.addPlayer(t)
	reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
	require.NoError(t, err)

	checked, err := e.registrations.CheckIn(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, checked.CheckedIn)
	assert.NotNil(t, checked.CheckedInAt)

	reverted, err := e.registrations.CheckOut(ctx, reg.ID)
	require.NoError(t, err)
	assert.False(t, reverted.CheckedIn)
	assert.Nil(t, reverted.CheckedInAt)
}

func TestCheckInRequiresConfirmed(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
		t.RequiresApproval = true
	})
	p := e.addPlayer(t)
	reg, err := e.registrations.Register(ctx, RegisterParams{TournamentID: tour.ID, PlayerID: p.ID})
	require.NoError(t, err)

	_, err = e.registrations.CheckIn(ctx, reg.ID)
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestBulkFill(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem, func(t *models.Tournament) {
		t.MaxPlayers = 8
	})

	regs, err := e.registrations.BulkFill(ctx, tour.ID, 5)
	require.NoError(t, err)
	assert.Len(t, regs, 5)
	for _, reg := range regs {
		assert.Equal(t, models.RegistrationStatusConfirmed, reg.Status)
	}

	_, err = e.registrations.BulkFill(ctx, tour.ID, 4)
	assert.ErrorIs(t, err, ErrTournamentFull, "only 3 seats remain")

	_, err = e.registrations.BulkFill(ctx, tour.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkCheckIn(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	tour := e.openTournament(t, models.FormatSwissSystem)
	e.enrol(t, tour.ID, 3)

	n, err := e.registrations.BulkCheckIn(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Already checked in, nothing left to do.
	n, err = e.registrations.BulkCheckIn(ctx, tour.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
