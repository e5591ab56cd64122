package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tcgarena/tcg-arena/models"
)

// MemoryStore backs every repository interface with plain maps. It
// exists for tests and local experiments; the SQLExecutor arguments
// are accepted and ignored, pair it with NoopTransactor.
type MemoryStore struct {
	mu sync.RWMutex

	tournaments   map[int]*models.Tournament
	players       map[int]*models.Player
	registrations map[int]*models.TournamentRegistration
	matches       map[int]*models.Match
	rankings      map[int][]*models.Ranking

	nextTournamentID   int
	nextPlayerID       int
	nextRegistrationID int
	nextMatchID        int
	nextRankingID      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments:   make(map[int]*models.Tournament),
		players:       make(map[int]*models.Player),
		registrations: make(map[int]*models.TournamentRegistration),
		matches:       make(map[int]*models.Match),
		rankings:      make(map[int][]*models.Ranking),
	}
}

func (s *MemoryStore) Tournaments() TournamentRepository     { return (*memoryTournamentRepo)(s) }
func (s *MemoryStore) Players() PlayerRepository             { return (*memoryPlayerRepo)(s) }
func (s *MemoryStore) Registrations() RegistrationRepository { return (*memoryRegistrationRepo)(s) }
func (s *MemoryStore) Matches() MatchRepository              { return (*memoryMatchRepo)(s) }
func (s *MemoryStore) Rankings() RankingRepository           { return (*memoryRankingRepo)(s) }

func copyTournament(t *models.Tournament) *models.Tournament {
	c := *t
	return &c
}

func copyRegistration(r *models.TournamentRegistration) *models.TournamentRegistration {
	c := *r
	return &c
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	return &c
}

func copyRanking(r *models.Ranking) *models.Ranking {
	c := *r
	return &c
}

type memoryTournamentRepo MemoryStore

func (s *memoryTournamentRepo) Create(_ context.Context, _ SQLExecutor, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTournamentID++
	t.ID = s.nextTournamentID
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tournaments[t.ID] = copyTournament(t)
	return nil
}

func (s *memoryTournamentRepo) GetByID(_ context.Context, _ SQLExecutor, id int) (*models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return copyTournament(t), nil
}

func (s *memoryTournamentRepo) List(_ context.Context, _ SQLExecutor, filter TournamentFilter) ([]*models.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tournament, 0)
	for _, t := range s.tournaments {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Format != "" && t.Format != filter.Format {
			continue
		}
		if filter.OrganizerID != 0 && t.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.PublicOnly && !t.IsPublic {
			continue
		}
		out = append(out, copyTournament(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Tournament{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memoryTournamentRepo) Update(_ context.Context, _ SQLExecutor, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	updated := copyTournament(t)
	updated.Status = stored.Status
	updated.CurrentRound = stored.CurrentRound
	updated.TotalRounds = stored.TotalRounds
	updated.StandingsExportURL = stored.StandingsExportURL
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	s.tournaments[t.ID] = updated
	return nil
}

func (s *memoryTournamentRepo) UpdateStatus(_ context.Context, _ SQLExecutor, id int, status models.TournamentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.Status = status
	if status == models.TournamentStatusFinished {
		t.EndDate = time.Now()
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (s *memoryTournamentRepo) UpdateRounds(_ context.Context, _ SQLExecutor, id, currentRound, totalRounds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.CurrentRound, t.TotalRounds = currentRound, totalRounds
	t.UpdatedAt = time.Now()
	return nil
}

func (s *memoryTournamentRepo) SetStandingsExportURL(_ context.Context, _ SQLExecutor, id int, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.StandingsExportURL = &url
	t.UpdatedAt = time.Now()
	return nil
}

func (s *memoryTournamentRepo) Delete(_ context.Context, _ SQLExecutor, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(s.tournaments, id)
	return nil
}

type memoryPlayerRepo MemoryStore

func (s *memoryPlayerRepo) Create(_ context.Context, _ SQLExecutor, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.DisplayName == p.DisplayName {
			return ErrPlayerNameConflict
		}
	}
	s.nextPlayerID++
	p.ID = s.nextPlayerID
	p.CreatedAt = time.Now()
	c := *p
	s.players[p.ID] = &c
	return nil
}

func (s *memoryPlayerRepo) GetByID(_ context.Context, _ SQLExecutor, id int) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	c := *p
	return &c, nil
}

func (s *memoryPlayerRepo) ListByIDs(_ context.Context, _ SQLExecutor, ids []int) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryRegistrationRepo MemoryStore

func (s *memoryRegistrationRepo) Create(_ context.Context, _ SQLExecutor, reg *models.TournamentRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.registrations {
		if existing.TournamentID == reg.TournamentID && existing.PlayerID == reg.PlayerID {
			return ErrRegistrationConflict
		}
	}
	s.nextRegistrationID++
	reg.ID = s.nextRegistrationID
	now := time.Now()
	reg.RegisteredAt, reg.UpdatedAt = now, now
	s.registrations[reg.ID] = copyRegistration(reg)
	return nil
}

func (s *memoryRegistrationRepo) GetByID(_ context.Context, _ SQLExecutor, id int) (*models.TournamentRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	return copyRegistration(reg), nil
}

func (s *memoryRegistrationRepo) GetByTournamentAndPlayer(_ context.Context, _ SQLExecutor, tournamentID, playerID int) (*models.TournamentRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.registrations {
		if reg.TournamentID == tournamentID && reg.PlayerID == playerID {
			return copyRegistration(reg), nil
		}
	}
	return nil, ErrRegistrationNotFound
}

func (s *memoryRegistrationRepo) listLocked(tournamentID int, statuses ...models.RegistrationStatus) []*models.TournamentRegistration {
	accept := func(st models.RegistrationStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, want := range statuses {
			if st == want {
				return true
			}
		}
		return false
	}
	out := make([]*models.TournamentRegistration, 0)
	for _, reg := range s.registrations {
		if reg.TournamentID == tournamentID && accept(reg.Status) {
			out = append(out, copyRegistration(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memoryRegistrationRepo) ListByTournament(_ context.Context, _ SQLExecutor, tournamentID int, statuses ...models.RegistrationStatus) ([]*models.TournamentRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(tournamentID, statuses...), nil
}

func (s *memoryRegistrationRepo) CountByStatus(_ context.Context, _ SQLExecutor, tournamentID int) (map[models.RegistrationStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.RegistrationStatus]int)
	for _, reg := range s.registrations {
		if reg.TournamentID == tournamentID {
			counts[reg.Status]++
		}
	}
	return counts, nil
}

func (s *memoryRegistrationRepo) FirstWaitlisted(_ context.Context, _ SQLExecutor, tournamentID int) (*models.TournamentRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	waitlisted := s.listLocked(tournamentID, models.RegistrationStatusWaitlisted)
	if len(waitlisted) == 0 {
		return nil, ErrRegistrationNotFound
	}
	return waitlisted[0], nil
}

func (s *memoryRegistrationRepo) UpdateStatus(_ context.Context, _ SQLExecutor, id int, status models.RegistrationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return ErrRegistrationNotFound
	}
	reg.Status = status
	reg.UpdatedAt = time.Now()
	return nil
}

func (s *memoryRegistrationRepo) SetCheckedIn(_ context.Context, _ SQLExecutor, id int, checkedIn bool, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return ErrRegistrationNotFound
	}
	reg.CheckedIn = checkedIn
	reg.CheckedInAt = at
	reg.UpdatedAt = time.Now()
	return nil
}

func (s *memoryRegistrationRepo) MarkEliminated(_ context.Context, _ SQLExecutor, tournamentID, playerID, round int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.registrations {
		if reg.TournamentID == tournamentID && reg.PlayerID == playerID {
			reg.Status = models.RegistrationStatusEliminated
			reg.EliminatedRound = &round
			reg.EliminatedAt = &at
			reg.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrRegistrationNotFound
}

func (s *memoryRegistrationRepo) ClearElimination(_ context.Context, _ SQLExecutor, tournamentID, playerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.registrations {
		if reg.TournamentID == tournamentID && reg.PlayerID == playerID {
			reg.Status = models.RegistrationStatusConfirmed
			reg.EliminatedRound = nil
			reg.EliminatedAt = nil
			reg.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrRegistrationNotFound
}

func (s *memoryRegistrationRepo) Delete(_ context.Context, _ SQLExecutor, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[id]; !ok {
		return ErrRegistrationNotFound
	}
	delete(s.registrations, id)
	return nil
}

type memoryMatchRepo MemoryStore

func (s *memoryMatchRepo) Create(_ context.Context, _ SQLExecutor, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMatchID++
	m.ID = s.nextMatchID
	s.matches[m.ID] = copyMatch(m)
	return nil
}

func (s *memoryMatchRepo) GetByID(_ context.Context, _ SQLExecutor, id int) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (s *memoryMatchRepo) collect(pred func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range s.matches {
		if pred(m) {
			out = append(out, copyMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryMatchRepo) ListByTournament(_ context.Context, _ SQLExecutor, tournamentID int) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(m *models.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (s *memoryMatchRepo) ListByRound(_ context.Context, _ SQLExecutor, tournamentID, round int) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(m *models.Match) bool {
		return m.TournamentID == tournamentID && m.Round == round
	}), nil
}

func (s *memoryMatchRepo) ListFedBy(_ context.Context, _ SQLExecutor, matchID int) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(m *models.Match) bool {
		return (m.NextMatchID != nil && *m.NextMatchID == matchID) ||
			(m.LoserNextMatchID != nil && *m.LoserNextMatchID == matchID)
	}), nil
}

func (s *memoryMatchRepo) Update(_ context.Context, _ SQLExecutor, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.matches[m.ID]
	if !ok {
		return ErrMatchNotFound
	}
	updated := copyMatch(m)
	updated.NextMatchID = stored.NextMatchID
	updated.NextSlot = stored.NextSlot
	updated.LoserNextMatchID = stored.LoserNextMatchID
	updated.LoserNextSlot = stored.LoserNextSlot
	s.matches[m.ID] = updated
	return nil
}

func (s *memoryMatchRepo) UpdateLinks(_ context.Context, _ SQLExecutor, id int, nextMatchID *int, nextSlot *models.MatchSlot, loserNextMatchID *int, loserNextSlot *models.MatchSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	m.NextMatchID, m.NextSlot = nextMatchID, nextSlot
	m.LoserNextMatchID, m.LoserNextSlot = loserNextMatchID, loserNextSlot
	return nil
}

func (s *memoryMatchRepo) SetPlayerSlot(_ context.Context, _ SQLExecutor, id int, slot models.MatchSlot, playerID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	if slot == models.SlotA {
		m.PlayerAID = playerID
	} else {
		m.PlayerBID = playerID
	}
	return nil
}

func (s *memoryMatchRepo) Counts(_ context.Context, _ SQLExecutor, tournamentID int) (MatchCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c MatchCounts
	for _, m := range s.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		c.Total++
		if m.Status == models.MatchStatusFinished || m.Status == models.MatchStatusForfeit {
			c.Finished++
		}
	}
	return c, nil
}

func (s *memoryMatchRepo) Delete(_ context.Context, _ SQLExecutor, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(s.matches, id)
	return nil
}

func (s *memoryMatchRepo) DeleteByTournament(_ context.Context, _ SQLExecutor, tournamentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if m.TournamentID == tournamentID {
			delete(s.matches, id)
		}
	}
	return nil
}

type memoryRankingRepo MemoryStore

func (s *memoryRankingRepo) Replace(_ context.Context, _ SQLExecutor, tournamentID int, rankings []*models.Ranking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]*models.Ranking, 0, len(rankings))
	now := time.Now()
	for _, ranking := range rankings {
		s.nextRankingID++
		ranking.ID = s.nextRankingID
		ranking.TournamentID = tournamentID
		ranking.UpdatedAt = now
		c := copyRanking(ranking)
		if p, ok := s.players[ranking.PlayerID]; ok && c.PlayerName == "" {
			c.PlayerName = p.DisplayName
		}
		stored = append(stored, c)
	}
	s.rankings[tournamentID] = stored
	return nil
}

func (s *memoryRankingRepo) ListByTournament(_ context.Context, _ SQLExecutor, tournamentID int) ([]*models.Ranking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.rankings[tournamentID]
	out := make([]*models.Ranking, 0, len(stored))
	for _, ranking := range stored {
		out = append(out, copyRanking(ranking))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out, nil
}

func (s *memoryRankingRepo) GetByTournamentAndPlayer(_ context.Context, _ SQLExecutor, tournamentID, playerID int) (*models.Ranking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ranking := range s.rankings[tournamentID] {
		if ranking.PlayerID == playerID {
			return copyRanking(ranking), nil
		}
	}
	return nil, ErrRankingNotFound
}

func (s *memoryRankingRepo) DeleteByTournament(_ context.Context, _ SQLExecutor, tournamentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rankings, tournamentID)
	return nil
}
