package handlers

import (
	"net/http"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/services"
)

type PlayerHandler struct {
	players *services.PlayerService
}

func NewPlayerHandler(players *services.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// CreateHandler handles POST /players.
func (h *PlayerHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input models.Player
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	player, err := h.players.Create(r.Context(), &input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// GetByIDHandler handles GET /players/{playerID}.
func (h *PlayerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	player, err := h.players.Get(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
