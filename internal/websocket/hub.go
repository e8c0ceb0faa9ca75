package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var ErrHubClosed = errors.New("websocket hub: closed")

const defaultSendBuffer = 32

// Subscriber is one live connection's view of the hub.
type Subscriber struct {
	ID      string
	send    chan *Event
	rooms   map[string]struct{}
	dropped bool
	once    sync.Once
}

func NewSubscriber(id string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Subscriber{
		ID:    id,
		send:  make(chan *Event, buffer),
		rooms: make(map[string]struct{}),
	}
}

// Events is closed when the hub drops the subscriber.
func (s *Subscriber) Events() <-chan *Event {
	return s.send
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

type membership struct {
	sub  *Subscriber
	room string
}

// Hub fans events out to the subscribers of a room. All room state is owned
// by the Run goroutine, so events reach each subscriber in publish order.
type Hub struct {
	join       chan membership
	leave      chan membership
	disconnect chan *Subscriber
	broadcast  chan *Event
	stats      chan chan roomStats
	done       chan struct{}
	startOnce  sync.Once
	log        zerolog.Logger

	rooms map[string]map[*Subscriber]struct{}
}

type roomStats struct {
	sizes       map[string]int
	subscribers int
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		join:       make(chan membership),
		leave:      make(chan membership),
		disconnect: make(chan *Subscriber),
		broadcast:  make(chan *Event),
		stats:      make(chan chan roomStats),
		done:       make(chan struct{}),
		log:        log,
		rooms:      make(map[string]map[*Subscriber]struct{}),
	}
}

// Run dispatches until ctx is cancelled. Every subscriber is dropped on exit.
func (h *Hub) Run(ctx context.Context) {
	started := false
	h.startOnce.Do(func() { started = true })
	if !started {
		return
	}
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case m := <-h.join:
			if m.sub.dropped {
				continue
			}
			room, ok := h.rooms[m.room]
			if !ok {
				room = make(map[*Subscriber]struct{})
				h.rooms[m.room] = room
			}
			room[m.sub] = struct{}{}
			m.sub.rooms[m.room] = struct{}{}
			setRooms(len(h.rooms))

		case m := <-h.leave:
			h.removeFromRoom(m.sub, m.room)
			delete(m.sub.rooms, m.room)

		case sub := <-h.disconnect:
			h.drop(sub)

		case event := <-h.broadcast:
			room, ok := h.rooms[event.Room]
			if !ok {
				continue
			}
			delivered := 0
			for sub := range room {
				select {
				case sub.send <- event:
					delivered++
				default:
					h.log.Warn().Str("subscriber", sub.ID).Str("room", event.Room).Msg("evicting slow subscriber")
					addEvicted()
					h.drop(sub)
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}

		case reply := <-h.stats:
			rs := roomStats{sizes: make(map[string]int, len(h.rooms))}
			seen := make(map[*Subscriber]struct{})
			for name, subs := range h.rooms {
				rs.sizes[name] = len(subs)
				for sub := range subs {
					seen[sub] = struct{}{}
				}
			}
			rs.subscribers = len(seen)
			reply <- rs
		}
	}
}

// Join subscribes sub to room. Only events published after Join returns are delivered.
func (h *Hub) Join(ctx context.Context, sub *Subscriber, room string) error {
	return send(ctx, h, h.join, membership{sub: sub, room: room})
}

func (h *Hub) Leave(ctx context.Context, sub *Subscriber, room string) error {
	return send(ctx, h, h.leave, membership{sub: sub, room: room})
}

// Disconnect removes sub from every room and closes its event channel.
func (h *Hub) Disconnect(ctx context.Context, sub *Subscriber) error {
	return send(ctx, h, h.disconnect, sub)
}

// Publish encodes payload and hands it to the dispatch loop. It waits only for
// the loop to accept the event, never for subscribers.
func (h *Hub) Publish(ctx context.Context, room, event string, payload interface{}) error {
	e, err := NewEvent(room, event, payload)
	if err != nil {
		return err
	}
	return h.Deliver(ctx, e)
}

// Deliver dispatches an already encoded event, e.g. one relayed from Redis.
func (h *Hub) Deliver(ctx context.Context, event *Event) error {
	return send(ctx, h, h.broadcast, event)
}

func (h *Hub) RoomSize(ctx context.Context, room string) int {
	rs, ok := h.snapshot(ctx)
	if !ok {
		return 0
	}
	return rs.sizes[room]
}

func (h *Hub) Stats(ctx context.Context) Stats {
	rs, ok := h.snapshot(ctx)
	if !ok {
		return Stats{}
	}
	return Stats{Rooms: len(rs.sizes), Subscribers: rs.subscribers}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) snapshot(ctx context.Context) (roomStats, bool) {
	reply := make(chan roomStats, 1)
	if err := send(ctx, h, h.stats, reply); err != nil {
		return roomStats{}, false
	}
	select {
	case rs := <-reply:
		return rs, true
	case <-h.done:
		return roomStats{}, false
	case <-ctx.Done():
		return roomStats{}, false
	}
}

func send[T any](ctx context.Context, h *Hub, ch chan T, v T) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case ch <- v:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) removeFromRoom(sub *Subscriber, name string) {
	room, ok := h.rooms[name]
	if !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, name)
		setRooms(len(h.rooms))
	}
}

func (h *Hub) drop(sub *Subscriber) {
	for name := range sub.rooms {
		h.removeFromRoom(sub, name)
	}
	sub.rooms = make(map[string]struct{})
	sub.dropped = true
	sub.close()
}

func (h *Hub) shutdown() {
	close(h.done)
	for _, subs := range h.rooms {
		for sub := range subs {
			sub.dropped = true
			sub.close()
		}
	}
	h.rooms = make(map[string]map[*Subscriber]struct{})
	setRooms(0)
}
