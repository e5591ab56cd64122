package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/tcgarena/tcg-arena/brackets"
	"github.com/tcgarena/tcg-arena/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin to the frontend host before exposing
		// this publicly.
		return true
	},
}

type WebSocketHandler struct {
	hub         *brackets.Hub
	tournaments *services.TournamentService
	log         *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, tournaments *services.TournamentService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournaments: tournaments, log: logger}
}

// ServeWs upgrades the connection and subscribes the client to one
// tournament's live updates at GET /ws/tournaments/{tournamentID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if _, err := h.tournaments.Get(r.Context(), tournamentID); err != nil {
		mapServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Error("websocket upgrade failed", "tournament_id", tournamentID, "error", err)
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: strconv.Itoa(tournamentID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.log.Info("websocket client subscribed", "tournament_id", tournamentID)
}
