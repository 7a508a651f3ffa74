package handlers

import (
	"net/http"

	"github.com/Dosada05/knockout-scheduler/services"
)

type MatchHandler struct {
	propagationService services.PropagationService
}

func NewMatchHandler(propagationService services.PropagationService) *MatchHandler {
	return &MatchHandler{propagationService: propagationService}
}

// MarkWinnerHandler записывает победителя матча и продвигает его в
// следующий раунд сетки.
func (h *MatchHandler) MarkWinnerHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TeamID int `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.propagationService.MarkWinner(r.Context(), matchID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
