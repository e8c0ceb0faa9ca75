package endpoints

import (
	"net/http"

	"dealer-support-chat/internal/dto"
	"dealer-support-chat/internal/websocket"
)

type UtilsEndpoints interface {
	Health(http.ResponseWriter, *http.Request) error
}

type utilsEndpoints struct {
	hub *websocket.Hub
}

// NewUtilsEndpoints reports hub occupancy in the health check when hub is set.
func NewUtilsEndpoints(hub *websocket.Hub) UtilsEndpoints {
	return &utilsEndpoints{hub: hub}
}

func (h *utilsEndpoints) Health(w http.ResponseWriter, r *http.Request) error {
	resp := dto.HealthResponse{Status: "ok"}
	if h.hub != nil {
		stats := h.hub.Stats(r.Context())
		resp.Rooms = stats.Rooms
		resp.Subscribers = stats.Subscribers
	}
	return WriteJSON(w, http.StatusOK, resp)
}
