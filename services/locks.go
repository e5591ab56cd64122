package services

import "sync"

// TournamentLocks serializes mutating operations per tournament, so two
// concurrent result reports or lifecycle changes for the same
// tournament cannot interleave. Different tournaments proceed in
// parallel.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[int]*tournamentLock
}

type tournamentLock struct {
	mu   sync.Mutex
	refs int
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[int]*tournamentLock)}
}

// Lock acquires the lock for a tournament and returns its unlock
// function. Entries are reference-counted and dropped when idle, the
// map does not grow with the number of tournaments ever seen.
func (l *TournamentLocks) Lock(tournamentID int) func() {
	l.mu.Lock()
	entry, ok := l.locks[tournamentID]
	if !ok {
		entry = &tournamentLock{}
		l.locks[tournamentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, tournamentID)
		}
		l.mu.Unlock()
	}
}
