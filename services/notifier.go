package services

import (
	"strconv"

	"github.com/tcgarena/tcg-arena/brackets"
	"github.com/tcgarena/tcg-arena/models"
)

// Event types pushed to tournament websocket rooms.
const (
	EventTournamentUpdated = "TOURNAMENT_UPDATED"
	EventMatchUpdated      = "MATCH_UPDATED"
	EventBracketUpdated    = "BRACKET_UPDATED"
	EventRankingsUpdated   = "RANKINGS_UPDATED"
)

// Notifier publishes live updates. Services call it after a successful
// commit, never inside a transaction.
type Notifier interface {
	TournamentUpdated(t *models.Tournament)
	MatchUpdated(m *models.Match)
	BracketUpdated(tournamentID int)
	RankingsUpdated(tournamentID int, rankings []*models.Ranking)
}

type hubNotifier struct {
	hub *brackets.Hub
}

func NewHubNotifier(hub *brackets.Hub) Notifier {
	return &hubNotifier{hub: hub}
}

func roomID(tournamentID int) string {
	return strconv.Itoa(tournamentID)
}

func (n *hubNotifier) TournamentUpdated(t *models.Tournament) {
	n.hub.BroadcastToRoom(roomID(t.ID), brackets.Message{
		Type: EventTournamentUpdated, Payload: t, RoomID: roomID(t.ID),
	})
}

func (n *hubNotifier) MatchUpdated(m *models.Match) {
	n.hub.BroadcastToRoom(roomID(m.TournamentID), brackets.Message{
		Type: EventMatchUpdated, Payload: m, RoomID: roomID(m.TournamentID),
	})
}

func (n *hubNotifier) BracketUpdated(tournamentID int) {
	n.hub.BroadcastToRoom(roomID(tournamentID), brackets.Message{
		Type: EventBracketUpdated, RoomID: roomID(tournamentID),
	})
}

func (n *hubNotifier) RankingsUpdated(tournamentID int, rankings []*models.Ranking) {
	n.hub.BroadcastToRoom(roomID(tournamentID), brackets.Message{
		Type: EventRankingsUpdated, Payload: rankings, RoomID: roomID(tournamentID),
	})
}

// NoopNotifier is used in tests and when no hub is wired.
type NoopNotifier struct{}

func (NoopNotifier) TournamentUpdated(*models.Tournament)   {}
func (NoopNotifier) MatchUpdated(*models.Match)             {}
func (NoopNotifier) BracketUpdated(int)                     {}
func (NoopNotifier) RankingsUpdated(int, []*models.Ranking) {}
