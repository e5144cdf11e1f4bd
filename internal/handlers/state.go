package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/store"
)

// StateHandler serves the projected client state to local UI surfaces.
type StateHandler struct {
	notifications *store.NotificationStore
	gamification  *store.GamificationStore
	logger        zerolog.Logger
}

func NewStateHandler(notifications *store.NotificationStore, gamification *store.GamificationStore, logger zerolog.Logger) *StateHandler {
	return &StateHandler{
		notifications: notifications,
		gamification:  gamification,
		logger:        logger.With().Str("handler", "state").Logger(),
	}
}

func (h *StateHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.notifications.Recent(),
		"unreadCount":   h.notifications.UnreadCount(),
	})
}

func (h *StateHandler) Gamification(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gamification.Snapshot())
}

func (h *StateHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "Missing notification id", http.StatusBadRequest)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("notification_id", id).Msg("failed to mark notification read")
		http.Error(w, "Failed to mark notification read", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StateHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkAllRead(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("failed to mark all notifications read")
		http.Error(w, "Failed to mark all notifications read", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StateHandler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "Missing reward id", http.StatusBadRequest)
		return
	}
	result, err := h.gamification.RedeemReward(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("reward_id", id).Msg("failed to redeem reward")
		http.Error(w, "Failed to redeem reward", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
