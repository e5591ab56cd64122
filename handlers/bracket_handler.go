package handlers

import (
	"net/http"

	"github.com/tcgarena/tcg-arena/services"
)

type BracketHandler struct {
	brackets *services.BracketService
}

func NewBracketHandler(brackets *services.BracketService) *BracketHandler {
	return &BracketHandler{brackets: brackets}
}

// StructureHandler handles GET /tournaments/{tournamentID}/bracket.
func (h *BracketHandler) StructureHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	structure, err := h.brackets.Structure(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": structure}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// FeedersHandler handles GET /matches/{matchID}/feeders.
func (h *BracketHandler) FeedersHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	feeders, err := h.brackets.Feeders(r.Context(), matchID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"feeders": feeders}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// RoundHandler handles GET /tournaments/{tournamentID}/rounds/{round}.
func (h *BracketHandler) RoundHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	pairings, err := h.brackets.Round(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": pairings}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
