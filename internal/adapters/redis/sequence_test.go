package redis_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	billingredis "github.com/DanielPopoola/ficmart-billing/internal/adapters/redis"
	"github.com/DanielPopoola/ficmart-billing/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return host + ":" + port.Port()
}

func TestSequence(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := billingredis.Connect(ctx, addr, "", 0, logger)
	require.NoError(t, err)
	defer client.Close()

	t.Run("increments from one", func(t *testing.T) {
		seq := billingredis.NewSequence(client, "test:seq:basic")

		first, err := seq.Next(ctx)
		require.NoError(t, err)
		second, err := seq.Next(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Equal(t, int64(2), second)
	})

	t.Run("is shared between instances", func(t *testing.T) {
		a := billingredis.NewSequence(client, "test:seq:shared")
		b := billingredis.NewSequence(client, "test:seq:shared")

		const perInstance = 100
		seen := make(map[int64]struct{})
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, seq := range []*billingredis.Sequence{a, b} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perInstance {
					v, err := seq.Next(ctx)
					assert.NoError(t, err)
					mu.Lock()
					seen[v] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, 2*perInstance)
	})

	t.Run("drives invoice numbers", func(t *testing.T) {
		numberer := service.NewInvoiceNumberer(billingredis.NewSequence(client, "test:seq:numbers"))

		number, err := numberer.Next(ctx)

		require.NoError(t, err)
		assert.Regexp(t, `^INV-\d{8}-\d{6}-0001$`, number)
	})
}

func TestConnect_Unreachable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := billingredis.Connect(ctx, "127.0.0.1:1", "", 0, logger)

	assert.Error(t, err)
}
