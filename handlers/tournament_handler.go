package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tcgarena/tcg-arena/middleware"
	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
	"github.com/tcgarena/tcg-arena/services"
)

type TournamentHandler struct {
	tournaments *services.TournamentService
	ranking     *services.RankingService
}

func NewTournamentHandler(tournaments *services.TournamentService, ranking *services.RankingService) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments, ranking: ranking}
}

// CreateHandler handles POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "authentication required to create a tournament")
		return
	}

	var input models.Tournament
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	input.OrganizerID = currentUserID

	tournament, err := h.tournaments.Create(r.Context(), &input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	tournament, err := h.tournaments.Get(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ListHandler handles GET /tournaments with query filters.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.TournamentFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		filter.Status = models.TournamentStatus(statusStr)
	}
	if formatStr := query.Get("format"); formatStr != "" {
		filter.Format = models.TournamentFormat(formatStr)
	}
	if organizerIDStr := query.Get("organizer_id"); organizerIDStr != "" {
		if id, err := strconv.Atoi(organizerIDStr); err == nil && id > 0 {
			filter.OrganizerID = id
		} else {
			badRequestResponse(w, errors.New("invalid organizer_id query parameter"))
			return
		}
	}
	filter.PublicOnly = query.Get("public") == "true"
	filter.Limit = 20
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		} else {
			badRequestResponse(w, errors.New("invalid limit query parameter"))
			return
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, errors.New("invalid offset query parameter"))
			return
		}
	}

	tournaments, err := h.tournaments.List(r.Context(), filter)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// UpdateHandler handles PUT /tournaments/{tournamentID}.
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input models.Tournament
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	input.ID = id

	tournament, err := h.tournaments.Update(r.Context(), &input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// DeleteHandler handles DELETE /tournaments/{tournamentID}.
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournaments.Delete(r.Context(), id); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenRegistrationHandler handles POST /tournaments/{tournamentID}/registration/open.
func (h *TournamentHandler) OpenRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.tournaments.OpenRegistration)
}

// CloseRegistrationHandler handles POST /tournaments/{tournamentID}/registration/close.
func (h *TournamentHandler) CloseRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.tournaments.CloseRegistration)
}

// CompleteHandler handles POST /tournaments/{tournamentID}/complete.
func (h *TournamentHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.tournaments.Complete)
}

// CancelHandler handles POST /tournaments/{tournamentID}/cancel.
func (h *TournamentHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.tournaments.Cancel)
}

// AdvanceRoundHandler handles POST /tournaments/{tournamentID}/advance-round.
func (h *TournamentHandler) AdvanceRoundHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.tournaments.AdvanceRound)
}

// lifecycle is the shared shape of the parameterless status endpoints.
func (h *TournamentHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int) (*models.Tournament, error)) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	tournament, err := op(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StartHandler handles POST /tournaments/{tournamentID}/start.
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var params services.StartParams
	if err := readJSON(w, r, &params); err != nil {
		badRequestResponse(w, err)
		return
	}
	tournament, err := h.tournaments.Start(r.Context(), id, params)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ProgressHandler handles GET /tournaments/{tournamentID}/progress.
func (h *TournamentHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	progress, err := h.tournaments.Progress(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": progress}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StatsHandler handles GET /tournaments/{tournamentID}/stats.
func (h *TournamentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	stats, err := h.tournaments.Stats(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StandingsHandler handles GET /tournaments/{tournamentID}/standings.
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	standings, err := h.ranking.Standings(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// PlayerStandingHandler handles GET /tournaments/{tournamentID}/standings/{playerID}.
func (h *TournamentHandler) PlayerStandingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	standing, err := h.ranking.PlayerStanding(r.Context(), id, playerID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standing": standing}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ExportStandingsHandler handles GET /tournaments/{tournamentID}/standings/export
// and streams the standings as CSV.
func (h *TournamentHandler) ExportStandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	data, err := h.ranking.ExportCSV(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="standings.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		// Headers are already out, nothing left to do but log.
		serverErrorResponse(w, err)
	}
}

// TransitionsHandler handles GET /tournaments/{tournamentID}/transitions.
func (h *TournamentHandler) TransitionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	tournament, err := h.tournaments.Get(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	transitions := services.AvailableTransitions(tournament.Status)
	if err := writeJSON(w, http.StatusOK, jsonResponse{
		"status":      tournament.Status,
		"transitions": transitions,
	}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
