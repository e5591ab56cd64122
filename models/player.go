package models

import "time"

// Player is referenced by id from matches, registrations and rankings;
// it is never embedded by value.
type Player struct {
	ID          int        `json:"id" db:"id"`
	DisplayName string     `json:"display_name" db:"display_name"`
	Rating      int        `json:"rating" db:"rating"`
	BirthDate   *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// AgeAt returns the player's age in full years at the given moment, or
// nil when the birth date is unknown.
func (p *Player) AgeAt(at time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	age := at.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(age, 0, 0)
	if anniversary.After(at) {
		age--
	}
	return &age
}
