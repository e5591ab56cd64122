package handlers

import (
	"net/http"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/services"
)

type MatchHandler struct {
	matches *services.MatchService
}

func NewMatchHandler(matches *services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// GetByIDHandler handles GET /matches/{matchID}.
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matches.Get(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/matches.
func (h *MatchHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	matches, err := h.matches.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StartHandler handles POST /matches/{matchID}/start. The body is an
// optional {"notes": ...}.
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		Notes *string `json:"notes"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, err)
			return
		}
	}
	match, err := h.matches.Start(r.Context(), id, input.Notes)
	h.respond(w, match, err)
}

// CancelHandler handles POST /matches/{matchID}/cancel.
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matches.Cancel(r.Context(), id)
	h.respond(w, match, err)
}

// ResetHandler handles POST /matches/{matchID}/reset. The body is an
// optional {"reason": ...}.
func (h *MatchHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, err)
			return
		}
	}
	match, err := h.matches.Reset(r.Context(), id, input.Reason)
	h.respond(w, match, err)
}

func (h *MatchHandler) respond(w http.ResponseWriter, match *models.Match, err error) {
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ReportResultHandler handles POST /matches/{matchID}/result.
func (h *MatchHandler) ReportResultHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var params services.ReportResultParams
	if err := readJSON(w, r, &params); err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matches.ReportResult(r.Context(), id, params)
	h.respond(w, match, err)
}

// ForfeitHandler handles POST /matches/{matchID}/forfeit.
func (h *MatchHandler) ForfeitHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		PlayerID int    `json:"player_id"`
		Reason   string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matches.Forfeit(r.Context(), id, input.PlayerID, input.Reason)
	h.respond(w, match, err)
}
