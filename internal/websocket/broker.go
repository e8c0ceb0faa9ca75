package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const channelPrefix = "support:room:"

func channelFor(room string) string {
	return channelPrefix + room
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// RedisBroker carries events between processes. Every process relays what
// it receives into its own hub.
type RedisBroker struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisBroker(client *redis.Client, log zerolog.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, room, event string, payload interface{}) error {
	e, err := NewEvent(room, event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("websocket publish: marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(room), data).Err(); err != nil {
		return fmt.Errorf("websocket publish: redis publish: %w", err)
	}
	return nil
}

// Relay forwards every room event from Redis into hub until ctx is done.
func (b *RedisBroker) Relay(ctx context.Context, hub *Hub) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("websocket relay: subscribe: %w", err)
	}
	b.log.Info().Str("pattern", channelPrefix+"*").Msg("relaying realtime events from redis")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := decodeRelayed(msg)
			if err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
				continue
			}
			if err := hub.Deliver(ctx, event); err != nil {
				if err == ErrHubClosed {
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
				b.log.Warn().Err(err).Msg("hub rejected relayed event")
				continue
			}
			addRelayed()
		}
	}
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

func decodeRelayed(msg *redis.Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		return nil, err
	}
	if event.Room == "" {
		event.Room = strings.TrimPrefix(msg.Channel, channelPrefix)
	}
	if event.Name == "" {
		return nil, fmt.Errorf("event name missing")
	}
	return &event, nil
}
