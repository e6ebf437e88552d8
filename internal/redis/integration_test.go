package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	defer func() {
		if err := redContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()
	os.Exit(m.Run())
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL)
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}

	// Flush all keys before each test
	if err := client.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestNewClient_InvalidURL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	_, err := NewClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestVoteRateLimiter_AllowsBurst(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewFakeClock()
	limiter := NewVoteRateLimiter(client, clock, 3, 30)
	reviewerID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, reviewerID)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within burst must be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, reviewerID)
	require.NoError(t, err)
	assert.False(t, allowed, "request beyond burst must be rejected")
}

func TestVoteRateLimiter_RefillsOverTime(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewFakeClock()
	limiter := NewVoteRateLimiter(client, clock, 2, 30)
	reviewerID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, reviewerID)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, reviewerID)
	require.NoError(t, err)
	require.False(t, allowed)

	// 30 tokens/minute is one token every two seconds.
	clock.Advance(2 * time.Second)

	allowed, err = limiter.Allow(ctx, reviewerID)
	require.NoError(t, err)
	assert.True(t, allowed, "token must refill after enough time passes")
}

func TestVoteRateLimiter_RefillCapsAtCapacity(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewFakeClock()
	limiter := NewVoteRateLimiter(client, clock, 2, 30)
	reviewerID := uuid.New()
	ctx := context.Background()

	// Drain the bucket, then wait far longer than a full refill.
	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(ctx, reviewerID)
		require.NoError(t, err)
	}
	clock.Advance(time.Hour / 2)

	allowedCount := 0
	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, reviewerID)
		require.NoError(t, err)
		if allowed {
			allowedCount++
		}
	}
	assert.Equal(t, 2, allowedCount, "refill must not exceed capacity")
}

func TestVoteRateLimiter_ReviewersAreIndependent(t *testing.T) {
	client := setupTestClient(t)
	clock := clockwork.NewFakeClock()
	limiter := NewVoteRateLimiter(client, clock, 1, 30)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()

	allowed, err := limiter.Allow(ctx, first)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, first)
	require.NoError(t, err)
	require.False(t, allowed)

	// Another reviewer's bucket is untouched.
	allowed, err = limiter.Allow(ctx, second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestVoteRateLimiter_ClosedClientReturnsError(t *testing.T) {
	client := setupTestClient(t)
	require.NoError(t, client.Close())

	limiter := NewVoteRateLimiter(client, clockwork.NewFakeClock(), 1, 30)
	_, err := limiter.Allow(context.Background(), uuid.New())
	assert.Error(t, err)
}
