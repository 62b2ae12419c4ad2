package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/service"
)

// EventsHandler is the internal scoring boundary: the feed service posts
// engagement events here and the dispatcher turns them into points,
// achievement progress and notifications.
type EventsHandler struct {
	scoringService *service.ScoringService
}

func NewEventsHandler(scoringService *service.ScoringService) *EventsHandler {
	return &EventsHandler{scoringService: scoringService}
}

type EngagementEventRequest struct {
	Kind         string  `json:"kind"`
	UserID       string  `json:"userId"`
	ActorID      *string `json:"actorId"`
	NewTotal     int     `json:"newTotal"`
	StreakLength int     `json:"streakLength"`
}

func (h *EventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req EngagementEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	event := service.EngagementEvent{
		Kind:         req.Kind,
		UserID:       userID,
		NewTotal:     req.NewTotal,
		StreakLength: req.StreakLength,
	}
	if req.ActorID != nil {
		actorID, err := uuid.Parse(*req.ActorID)
		if err != nil {
			http.Error(w, "Invalid actor id", http.StatusBadRequest)
			return
		}
		event.ActorID = &actorID
	}

	if err := h.scoringService.HandleEvent(r.Context(), event); err != nil {
		if errors.Is(err, service.ErrUnknownEventKind) {
			http.Error(w, "Unknown event kind", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
