package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	readLimit    = 512 * 1024
)

type WSClient struct {
	Conn     *websocket.Conn
	sub      *Subscriber
	hub      *Hub
	log      zerolog.Logger
	done     chan struct{} // closed when the read loop exits
	mu       sync.Mutex    // guards writes to Conn
	isClosed bool
}

func newClient(conn *websocket.Conn, sub *Subscriber, hub *Hub, log zerolog.Logger) *WSClient {
	return &WSClient{
		Conn: conn,
		sub:  sub,
		hub:  hub,
		log:  log.With().Str("subscriber", sub.ID).Logger(),
		done: make(chan struct{}),
	}
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			if err := cl.write(websocket.PingMessage, nil); err != nil {
				cl.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

func (cl *WSClient) writeMessage() {
	defer cl.closeConn()

	for {
		select {
		case <-cl.done:
			return
		case event, ok := <-cl.sub.Events():
			if !ok {
				_ = cl.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				cl.log.Error().Err(err).Msg("encode event")
				continue
			}
			if err := cl.write(websocket.TextMessage, data); err != nil {
				cl.log.Debug().Err(err).Msg("write failed")
				return
			}
		}
	}
}

// readMessage handles join/leave frames until the peer goes away.
func (cl *WSClient) readMessage(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			cl.log.Error().Interface("panic", r).Msg("recovered in read loop")
		}
		close(cl.done)
		_ = cl.hub.Disconnect(context.Background(), cl.sub)
		decConnections()
		cl.log.Debug().Msg("client disconnected")
	}()

	cl.Conn.SetReadLimit(readLimit)

	for {
		_, data, err := cl.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				cl.log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		var frame ControlFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Room == "" {
			continue
		}

		switch frame.Action {
		case ActionJoin:
			err = cl.hub.Join(ctx, cl.sub, frame.Room)
		case ActionLeave:
			err = cl.hub.Leave(ctx, cl.sub, frame.Room)
		default:
			continue
		}
		if err != nil {
			return
		}
	}
}

func (cl *WSClient) write(messageType int, data []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.isClosed {
		return websocket.ErrCloseSent
	}
	_ = cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.Conn.WriteMessage(messageType, data)
}

func (cl *WSClient) closeConn() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.isClosed {
		return
	}
	cl.isClosed = true
	cl.Conn.Close()
}
