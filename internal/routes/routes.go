package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/famstack/famstack-client/internal/handlers"
)

// NewRouter sets up the local state API consumed by UI surfaces.
func NewRouter(health *handlers.HealthHandler, state *handlers.StateHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", health.Health).Methods(http.MethodGet)

	router.HandleFunc("/state/notifications", state.Notifications).Methods(http.MethodGet)
	router.HandleFunc("/state/notifications/{id}/read", state.MarkRead).Methods(http.MethodPut)
	router.HandleFunc("/state/notifications/read-all", state.MarkAllRead).Methods(http.MethodPut)
	router.HandleFunc("/state/gamification", state.Gamification).Methods(http.MethodGet)
	router.HandleFunc("/state/rewards/{id}/redeem", state.RedeemReward).Methods(http.MethodPost)

	return router
}
