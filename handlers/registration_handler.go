package handlers

import (
	"context"
	"net/http"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/services"
)

type RegistrationHandler struct {
	registrations *services.RegistrationService
}

func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// RegisterHandler handles POST /tournaments/{tournamentID}/registrations.
func (h *RegistrationHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		PlayerID int     `json:"player_id"`
		Notes    *string `json:"notes,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	reg, err := h.registrations.Register(r.Context(), services.RegisterParams{
		TournamentID: tournamentID,
		PlayerID:     input.PlayerID,
		Notes:        input.Notes,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/registrations.
func (h *RegistrationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var statuses []models.RegistrationStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		statuses = append(statuses, models.RegistrationStatus(statusStr))
	}

	regs, err := h.registrations.ListByTournament(r.Context(), tournamentID, statuses...)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// CountsHandler handles GET /tournaments/{tournamentID}/registrations/counts.
func (h *RegistrationHandler) CountsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	counts, err := h.registrations.Counts(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"counts": counts}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ApproveHandler handles POST /registrations/{registrationID}/approve.
func (h *RegistrationHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.registrations.Approve)
}

// RejectHandler handles POST /registrations/{registrationID}/reject.
func (h *RegistrationHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.registrations.Reject)
}

// CancelHandler handles POST /registrations/{registrationID}/cancel.
func (h *RegistrationHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.registrations.Cancel)
}

// CheckInHandler handles POST /registrations/{registrationID}/check-in.
func (h *RegistrationHandler) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.registrations.CheckIn)
}

// CheckOutHandler handles POST /registrations/{registrationID}/check-out.
func (h *RegistrationHandler) CheckOutHandler(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.registrations.CheckOut)
}

func (h *RegistrationHandler) mutation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, registrationID int) (*models.TournamentRegistration, error)) {
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	reg, err := op(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ApproveAllHandler handles POST /tournaments/{tournamentID}/registrations/approve-all.
func (h *RegistrationHandler) ApproveAllHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	approved, err := h.registrations.ApproveAll(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"approved": approved}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// BulkFillHandler handles POST /tournaments/{tournamentID}/registrations/bulk-fill.
func (h *RegistrationHandler) BulkFillHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		Count int `json:"count"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	regs, err := h.registrations.BulkFill(r.Context(), tournamentID, input.Count)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// BulkCheckInHandler handles POST /tournaments/{tournamentID}/registrations/bulk-check-in.
func (h *RegistrationHandler) BulkCheckInHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	checkedIn, err := h.registrations.BulkCheckIn(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"checked_in": checkedIn}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
