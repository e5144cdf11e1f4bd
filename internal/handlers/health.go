package handlers

import (
	"net/http"

	"github.com/famstack/famstack-client/internal/realtime"
)

type HealthHandler struct {
	manager *realtime.Manager
}

func NewHealthHandler(manager *realtime.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Health reports the hub connection state for the local UI's offline
// indicator. Connectivity problems are never an HTTP error here.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Health())
}
