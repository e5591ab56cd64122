package models

import "time"

// Ranking is the per-(tournament, player) standings row. Rows exist 1:1
// with confirmed registrations and are recomputed, never hand-edited.
type Ranking struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	Rank         int       `json:"rank" db:"rank"`
	Points       int       `json:"points" db:"points"`
	Wins         int       `json:"wins" db:"wins"`
	Losses       int       `json:"losses" db:"losses"`
	Draws        int       `json:"draws" db:"draws"`
	WinRate      float64   `json:"win_rate" db:"win_rate"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Display name joined in by the service for read models; not a column.
	PlayerName string `json:"player_name,omitempty" db:"-"`
}
