package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisPubSub(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		ps := NewRedisPubSub(client, zap.NewNop())
		userID := uuid.New()

		var mu sync.Mutex
		var got [][]byte
		cancel, err := ps.SubscribeUser(userID, func(payload []byte) {
			mu.Lock()
			got = append(got, payload)
			mu.Unlock()
		})
		require.NoError(t, err)
		defer cancel()

		require.NoError(t, ps.PublishUserEvent(userID, []byte(`{"type":"new-request"}`)))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(got) == 1 && string(got[0]) == `{"type":"new-request"}`
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("channels are per user", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		ps := NewRedisPubSub(client, zap.NewNop())
		alice, bob := uuid.New(), uuid.New()

		var mu sync.Mutex
		var aliceGot int
		cancel, err := ps.SubscribeUser(alice, func([]byte) {
			mu.Lock()
			aliceGot++
			mu.Unlock()
		})
		require.NoError(t, err)
		defer cancel()

		require.NoError(t, ps.PublishUserEvent(bob, []byte(`{}`)))
		require.NoError(t, ps.PublishUserEvent(alice, []byte(`{}`)))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return aliceGot == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("cancel stops delivery", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		ps := NewRedisPubSub(client, zap.NewNop())
		userID := uuid.New()

		var mu sync.Mutex
		var got int
		cancel, err := ps.SubscribeUser(userID, func([]byte) {
			mu.Lock()
			got++
			mu.Unlock()
		})
		require.NoError(t, err)

		cancel()
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, ps.PublishUserEvent(userID, []byte(`{}`)))
		time.Sleep(100 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Zero(t, got)
	})
}
