package router

import (
	"net/http"

	"dealer-support-chat/internal/api"
)

// WebsocketRoutes exposes the realtime channel at prefix/ws.
func WebsocketRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		handler := s.Handler()
		mux.HandleFunc(prefix+"/ws", s.MakeHTTPHandleFunc(func(w http.ResponseWriter, r *http.Request) error {
			handler.ServeWS(w, r)
			return nil
		}))
	}
}
