package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the frame pushed to subscribers.
type Event struct {
	Name      string          `json:"event"`
	Room      string          `json:"room"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewEvent(room, name string, payload interface{}) (*Event, error) {
	if room == "" {
		return nil, fmt.Errorf("websocket event: room required")
	}
	if name == "" {
		return nil, fmt.Errorf("websocket event: name required")
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("websocket event: marshal payload: %w", err)
		}
		raw = data
	}

	return &Event{
		Name:      name,
		Room:      room,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// ControlFrame is what clients send to change their room membership.
type ControlFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Stats is a point-in-time view of the hub.
type Stats struct {
	Rooms       int `json:"rooms"`
	Subscribers int `json:"subscribers"`
}
