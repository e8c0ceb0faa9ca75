package websocket

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Handler struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	allowedOrigins map[string]struct{}
	allowAll       bool
	sendBuffer     int
	log            zerolog.Logger
}

// NewHandler upgrades connections for hub. An origin list containing "*"
// accepts every origin; requests without an Origin header are always accepted.
func NewHandler(hub *Hub, log zerolog.Logger, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:            hub,
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
		sendBuffer:     defaultSendBuffer,
		log:            log,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			h.allowAll = true
		}
		h.allowedOrigins[strings.TrimRight(origin, "/")] = struct{}{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowAll {
		return true
	}
	if _, ok := h.allowedOrigins[strings.TrimRight(origin, "/")]; ok {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// ServeWS joins the rooms listed in ?room= before upgrading, so events
// published once the handshake completes are never missed.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	rooms := roomsFromQuery(r.URL.Query())
	sub := NewSubscriber(uuid.NewString(), h.sendBuffer)
	ctx := r.Context()

	for _, room := range rooms {
		if err := h.hub.Join(ctx, sub, room); err != nil {
			_ = h.hub.Disconnect(context.Background(), sub)
			http.Error(w, "realtime channel unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = h.hub.Disconnect(context.Background(), sub)
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	incConnections()
	cl := newClient(conn, sub, h.hub, h.log)

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(context.Background())

	h.log.Debug().
		Str("subscriber", sub.ID).
		Strs("rooms", rooms).
		Msg("websocket connected")
}

func roomsFromQuery(q url.Values) []string {
	var rooms []string
	seen := make(map[string]struct{})
	for _, raw := range q["room"] {
		for _, room := range strings.Split(raw, ",") {
			room = strings.TrimSpace(room)
			if room == "" {
				continue
			}
			if _, dup := seen[room]; dup {
				continue
			}
			seen[room] = struct{}{}
			rooms = append(rooms, room)
		}
	}
	return rooms
}
