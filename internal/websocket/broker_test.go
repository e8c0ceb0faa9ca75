package websocket

import (
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRelayed(t *testing.T) {
	event, err := decodeRelayed(&redis.Message{
		Channel: channelFor("support:global"),
		Payload: `{"event":"agent_reply","payload":{"messageId":"m1"},"timestamp":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "support:global", event.Room)
	assert.Equal(t, "agent_reply", event.Name)
	assert.JSONEq(t, `{"messageId":"m1"}`, string(event.Payload))

	event, err = decodeRelayed(&redis.Message{
		Channel: channelFor("ignored"),
		Payload: `{"event":"customer_message","room":"abc"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", event.Room)

	_, err = decodeRelayed(&redis.Message{Channel: channelFor("x"), Payload: `{"room":"x"}`})
	assert.Error(t, err)

	_, err = decodeRelayed(&redis.Message{Channel: channelFor("x"), Payload: `not json`})
	assert.Error(t, err)
}
