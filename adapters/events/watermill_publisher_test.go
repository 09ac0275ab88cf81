package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniverse/walletbridge/core"
)

func TestPublishConnected(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	messages, err := pubsub.Subscribe(context.Background(), TopicConnected)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubsub)
	principal := &core.Principal{ID: "id-1", WalletAddress: "0x1234567890abcdef"}
	require.NoError(t, publisher.PublishConnected(context.Background(), principal, true))

	select {
	case msg := <-messages:
		var event ConnectedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "id-1", event.PrincipalID)
		assert.Equal(t, "0x1234567890abcdef", event.WalletAddress)
		assert.True(t, event.Created)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no connect event received")
	}
}

func TestPublishLogout(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	messages, err := pubsub.Subscribe(context.Background(), TopicLogout)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubsub)
	require.NoError(t, publisher.PublishLogout(context.Background(), "id-1", "0x1234567890abcdef"))

	select {
	case msg := <-messages:
		var event LogoutEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "id-1", event.PrincipalID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no logout event received")
	}
}

func TestRedisStreamPublisher(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	streamPublisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		watermill.NopLogger{},
	)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(streamPublisher)
	require.NoError(t, publisher.PublishLogout(context.Background(), "id-1", "0x1234567890abcdef"))

	length, err := client.XLen(context.Background(), TopicLogout).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}
