package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
)

// GameHandler exposes game lifecycle endpoints.
type GameHandler struct {
	service *app.GameService
}

func NewGameHandler(service *app.GameService) *GameHandler {
	return &GameHandler{service: service}
}

type createGameRequest struct {
	RoomID    int64   `json:"roomId"`
	MemberIDs []int64 `json:"memberIds"`
}

// CreateGame draws a quiz bank and seeds the game record for a room.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RoomID == 0 || len(req.MemberIDs) < 2 {
		http.Error(w, "roomId and at least two memberIds required", http.StatusBadRequest)
		return
	}

	err := h.service.StartGame(r.Context(), req.RoomID, req.MemberIDs)
	switch {
	case errors.Is(err, domain.ErrMemberNotFound), errors.Is(err, domain.ErrRoomNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrGameInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusCreated)
	}
}
