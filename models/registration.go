package models

import "time"

// RegistrationStatus mirrors the ENUM in the database.
type RegistrationStatus string

const (
	RegistrationStatusPending    RegistrationStatus = "pending"
	RegistrationStatusConfirmed  RegistrationStatus = "confirmed"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
	RegistrationStatusWaitlisted RegistrationStatus = "waitlisted"
	RegistrationStatusEliminated RegistrationStatus = "eliminated"
)

// IsActive reports whether the registration still occupies or may occupy
// a slot. A player has at most one active registration per tournament.
func (s RegistrationStatus) IsActive() bool {
	return s != RegistrationStatusCancelled
}

// TournamentRegistration is the (tournament, player) pair. Unique per pair.
type TournamentRegistration struct {
	ID           int                `json:"id" db:"id"`
	TournamentID int                `json:"tournament_id" db:"tournament_id"`
	PlayerID     int                `json:"player_id" db:"player_id"`
	Status       RegistrationStatus `json:"status" db:"status"`

	Notes            *string `json:"notes,omitempty" db:"notes"`
	ConfirmationCode string  `json:"confirmation_code" db:"confirmation_code"`

	CheckedIn   bool       `json:"checked_in" db:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty" db:"checked_in_at"`

	EliminatedAt    *time.Time `json:"eliminated_at,omitempty" db:"eliminated_at"`
	EliminatedRound *int       `json:"eliminated_round,omitempty" db:"eliminated_round"`

	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
