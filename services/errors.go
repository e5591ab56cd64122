package services

import (
	"errors"
	"fmt"
)

// Error categories. Every sentinel below wraps exactly one of these, so
// handlers can map whole classes to HTTP codes with a single errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("requested resource not found")
)

var (
	// Not found
	ErrTournamentNotFound   = fmt.Errorf("%w: tournament", ErrNotFound)
	ErrPlayerNotFound       = fmt.Errorf("%w: player", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("%w: registration", ErrNotFound)
	ErrMatchNotFound        = fmt.Errorf("%w: match", ErrNotFound)
	ErrRankingNotFound      = fmt.Errorf("%w: ranking", ErrNotFound)

	// Validation and business rules
	ErrTournamentInvalidCapacity  = fmt.Errorf("%w: player limits must satisfy 2 <= min <= max", ErrValidation)
	ErrTournamentInvalidDateRange = fmt.Errorf("%w: end date must be after start date", ErrValidation)
	ErrTournamentInvalidFormat    = fmt.Errorf("%w: unknown tournament format", ErrValidation)
	ErrInvalidSeedingMethod       = fmt.Errorf("%w: unknown seeding method", ErrValidation)
	ErrNotEnoughPlayers           = fmt.Errorf("%w: not enough players", ErrValidation)
	ErrInvalidScore               = fmt.Errorf("%w: scores must be non-negative", ErrValidation)
	ErrDrawNotAllowed             = fmt.Errorf("%w: format does not allow draws", ErrValidation)
	ErrWinnerNotInMatch           = fmt.Errorf("%w: winner is not a player of this match", ErrValidation)
	ErrPlayerNotInMatch           = fmt.Errorf("%w: player is not part of this match", ErrValidation)
	ErrAgeRestriction             = fmt.Errorf("%w: player does not meet the age restriction", ErrValidation)

	// State machine violations
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid tournament status transition", ErrInvalidState)
	ErrRegistrationNotOpen     = fmt.Errorf("%w: tournament registration is not open", ErrInvalidState)
	ErrRegistrationDeadline    = fmt.Errorf("%w: registration deadline has passed", ErrInvalidState)
	ErrTournamentNotInProgress = fmt.Errorf("%w: tournament is not in progress", ErrInvalidState)
	ErrTournamentFinished      = fmt.Errorf("%w: tournament is already finished", ErrInvalidState)
	ErrMatchNotScheduled       = fmt.Errorf("%w: match is not in a startable state", ErrInvalidState)
	ErrMatchNotRunning         = fmt.Errorf("%w: match is not in progress", ErrInvalidState)
	ErrMatchNotFinished        = fmt.Errorf("%w: match has no result to reset", ErrInvalidState)
	ErrMatchMissingPlayers     = fmt.Errorf("%w: match is still waiting for players", ErrInvalidState)
	ErrRoundIncomplete         = fmt.Errorf("%w: current round still has unfinished matches", ErrInvalidState)
	ErrNoMoreRounds            = fmt.Errorf("%w: all scheduled rounds have been played", ErrInvalidState)
	ErrMatchesUnfinished       = fmt.Errorf("%w: tournament still has unfinished matches", ErrInvalidState)
	ErrNotConfirmed            = fmt.Errorf("%w: registration is not confirmed", ErrInvalidState)
	ErrNotPending              = fmt.Errorf("%w: registration is not pending approval", ErrInvalidState)

	// Conflicts
	ErrRegistrationConflict = fmt.Errorf("%w: player is already registered for this tournament", ErrConflict)
	ErrTournamentFull       = fmt.Errorf("%w: tournament is full", ErrConflict)
	ErrPlayerNameConflict   = fmt.Errorf("%w: display name is already in use", ErrConflict)
	ErrPairingExhausted     = fmt.Errorf("%w: no rematch-free pairing exists for the next round", ErrConflict)
)
