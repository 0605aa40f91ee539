package backend

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/activity"
	"checkin/internal/config"
	"checkin/internal/queue"
	"checkin/internal/store"
)

func TestOpenMemoryWithRedisQueueSharesFeed(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.App{StoreBackend: "memory", QueueBackend: "redis", RedisAddr: mr.Addr()}
	ctx := context.Background()

	api, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer api.Close()
	worker, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer worker.Close()

	assert.IsType(t, &store.RedisActivity{}, api.Activity)
	assert.IsType(t, &queue.RedisQueue{}, api.Queue)

	_, err = worker.Activity.Append(ctx, activity.Entry{Kind: "student.created", OccurredAt: time.Now()})
	require.NoError(t, err)
	recent, err := api.Activity.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "student.created", recent[0].Kind)

	assert.Equal(t, map[string]bool{"redis": true}, api.Health(ctx))
}

func TestOpenMemoryQueueKeepsFeedInProcess(t *testing.T) {
	cfg := config.App{StoreBackend: "memory", QueueBackend: "memory", RedisAddr: "127.0.0.1:0"}
	set, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer set.Close()

	assert.IsType(t, &store.MemoryActivity{}, set.Activity)
	assert.IsType(t, &queue.InMemory{}, set.Queue)
	assert.Empty(t, set.Health(context.Background()))
}

func TestOpenUnknownStore(t *testing.T) {
	_, err := Open(context.Background(), config.App{StoreBackend: "sqlite"})
	assert.ErrorContains(t, err, "sqlite")
}
