package models

import "time"

// MatchStatus mirrors the ENUM in the database.
type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusFinished   MatchStatus = "finished"
	MatchStatusForfeit    MatchStatus = "forfeit"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// IsTerminal reports whether the match produced a result.
// Cancelled matches are void, not terminal results.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusFinished || s == MatchStatusForfeit
}

// MatchPhase labels where in the competition a match sits, for display.
type MatchPhase string

const (
	PhaseQualification MatchPhase = "qualification"
	PhaseQuarterFinal  MatchPhase = "quarter_final"
	PhaseSemiFinal     MatchPhase = "semi_final"
	PhaseFinal         MatchPhase = "final"
)

// BracketSide distinguishes the sub-brackets of a double-elimination
// tournament. Single elimination, Swiss and round robin use SideWinners.
type BracketSide string

const (
	SideWinners    BracketSide = "winners"
	SideLosers     BracketSide = "losers"
	SideGrandFinal BracketSide = "grand_final"
)

// MatchSlot identifies one of the two player seats of a match.
type MatchSlot string

const (
	SlotA MatchSlot = "A"
	SlotB MatchSlot = "B"
)

// Match is a single pairing inside a tournament. Player slots are
// optional: an unresolved slot means the feeding match has not finished
// yet ("TBD"). NextMatchID/NextSlot carry the winner forward in bracket
// formats; LoserNextMatchID/LoserNextSlot carry the loser into the
// losers bracket in double elimination.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	Side         BracketSide `json:"side" db:"side"`
	Phase        MatchPhase  `json:"phase" db:"phase"`
	Status       MatchStatus `json:"status" db:"status"`

	PlayerAID *int `json:"player_a_id,omitempty" db:"player_a_id"`
	PlayerBID *int `json:"player_b_id,omitempty" db:"player_b_id"`

	PlayerAScore int  `json:"player_a_score" db:"player_a_score"`
	PlayerBScore int  `json:"player_b_score" db:"player_b_score"`
	WinnerID     *int `json:"winner_id,omitempty" db:"winner_id"`

	NextMatchID      *int       `json:"next_match_id,omitempty" db:"next_match_id"`
	NextSlot         *MatchSlot `json:"next_slot,omitempty" db:"next_slot"`
	LoserNextMatchID *int       `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextSlot    *MatchSlot `json:"loser_next_slot,omitempty" db:"loser_next_slot"`

	// Table number for Swiss rounds, display only.
	TableNumber *int `json:"table_number,omitempty" db:"table_number"`

	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`

	Notes *string `json:"notes,omitempty" db:"notes"`
}

// IsBye reports whether the match is a recorded automatic win: only
// slot A is populated and slot B will never resolve.
func (m *Match) IsBye() bool {
	return m.PlayerAID != nil && m.PlayerBID == nil && m.NextMatchID == nil &&
		m.Status == MatchStatusFinished
}

// HasPlayer reports whether the given player occupies one of the slots.
func (m *Match) HasPlayer(playerID int) bool {
	return (m.PlayerAID != nil && *m.PlayerAID == playerID) ||
		(m.PlayerBID != nil && *m.PlayerBID == playerID)
}

// OpponentOf returns the other slot's player, if resolved.
func (m *Match) OpponentOf(playerID int) *int {
	switch {
	case m.PlayerAID != nil && *m.PlayerAID == playerID:
		return m.PlayerBID
	case m.PlayerBID != nil && *m.PlayerBID == playerID:
		return m.PlayerAID
	default:
		return nil
	}
}
