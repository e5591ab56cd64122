package models

import "time"

// TournamentFormat is the closed set of supported competition formats.
// The format is fixed at creation time and selects the bracket/pairing
// strategy once, when the tournament starts.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatSwissSystem       TournamentFormat = "swiss_system"
	FormatRoundRobin        TournamentFormat = "round_robin"
)

// IsElimination reports whether the format knocks players out on a loss.
func (f TournamentFormat) IsElimination() bool {
	return f == FormatSingleElimination || f == FormatDoubleElimination
}

// AllowsDraws reports whether the format's point system defines a draw.
func (f TournamentFormat) AllowsDraws() bool {
	return f == FormatSwissSystem || f == FormatRoundRobin
}

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusDraft              TournamentStatus = "draft"
	TournamentStatusRegistrationOpen   TournamentStatus = "registration_open"
	TournamentStatusRegistrationClosed TournamentStatus = "registration_closed"
	TournamentStatusInProgress         TournamentStatus = "in_progress"
	TournamentStatusFinished           TournamentStatus = "finished"
	TournamentStatusCancelled          TournamentStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s TournamentStatus) IsTerminal() bool {
	return s == TournamentStatusFinished || s == TournamentStatusCancelled
}

// Tournament is the aggregate root. Registrations, matches and rankings
// reference it by id only; the object graph is never embedded.
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Location    *string          `json:"location,omitempty" db:"location"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	Format      TournamentFormat `json:"format" db:"format"`
	Status      TournamentStatus `json:"status" db:"status"`

	MinPlayers int `json:"min_players" db:"min_players"`
	MaxPlayers int `json:"max_players" db:"max_players"`

	CurrentRound int `json:"current_round" db:"current_round"`
	TotalRounds  int `json:"total_rounds" db:"total_rounds"`

	StartDate            time.Time  `json:"start_date" db:"start_date"`
	EndDate              time.Time  `json:"end_date" db:"end_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty" db:"registration_deadline"`

	AllowLateRegistration bool `json:"allow_late_registration" db:"allow_late_registration"`
	RequiresApproval      bool `json:"requires_approval" db:"requires_approval"`
	EnableWaitlist        bool `json:"enable_waitlist" db:"enable_waitlist"`
	IsPublic              bool `json:"is_public" db:"is_public"`

	Rules             *string `json:"rules,omitempty" db:"rules"`
	AdditionalInfo    *string `json:"additional_info,omitempty" db:"additional_info"`
	AgeRestrictionMin *int    `json:"age_restriction_min,omitempty" db:"age_restriction_min"`
	AgeRestrictionMax *int    `json:"age_restriction_max,omitempty" db:"age_restriction_max"`

	// Public URL of the archived final-standings CSV, set after completion.
	StandingsExportURL *string `json:"standings_export_url,omitempty" db:"standings_export_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TournamentProgress is a read model summarising how far along a
// running tournament is.
type TournamentProgress struct {
	Status             TournamentStatus `json:"status"`
	CurrentRound       int              `json:"current_round"`
	TotalRounds        int              `json:"total_rounds"`
	CompletedMatches   int              `json:"completed_matches"`
	TotalMatches       int              `json:"total_matches"`
	ActivePlayers      int              `json:"active_players"`
	EliminatedPlayers  int              `json:"eliminated_players"`
	ProgressPercentage float64          `json:"progress_percentage"`
}

// RegistrationCounts groups registration totals by status.
type RegistrationCounts struct {
	Confirmed  int `json:"confirmed"`
	Pending    int `json:"pending"`
	Waitlisted int `json:"waitlisted"`
	Cancelled  int `json:"cancelled"`
	Eliminated int `json:"eliminated"`
}

// TournamentStats aggregates headline numbers for dashboards.
type TournamentStats struct {
	TotalPlayers     int                `json:"total_players"`
	TotalMatches     int                `json:"total_matches"`
	CompletedMatches int                `json:"completed_matches"`
	CurrentRound     int                `json:"current_round"`
	TotalRounds      int                `json:"total_rounds"`
	Registrations    RegistrationCounts `json:"registrations"`
}
