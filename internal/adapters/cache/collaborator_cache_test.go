package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

type countingLandscape struct {
	cachedCalls  int
	computeCalls int
}

func (c *countingLandscape) GetCached(_ context.Context, profileID string) (*domain.LandscapeAnalysis, error) {
	c.cachedCalls++
	return &domain.LandscapeAnalysis{ProfileID: profileID, Summary: "from service"}, nil
}

func (c *countingLandscape) Compute(_ context.Context, profileID string) (domain.LandscapeAnalysis, error) {
	c.computeCalls++
	return domain.LandscapeAnalysis{ProfileID: profileID, Summary: "computed"}, nil
}

// unreachableClient points at a closed port so that every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedLandscapeDegradesWhenRedisIsDown(t *testing.T) {
	next := &countingLandscape{}
	cached := NewCachedLandscape(next, unreachableClient(t), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	got, err := cached.GetCached(ctx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "from service", got.Summary)

	computed, err := cached.Compute(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "computed", computed.Summary)
	assert.Equal(t, 1, next.cachedCalls)
	assert.Equal(t, 1, next.computeCalls)
}

func TestConnectFailsFastOnBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://%zz")
	require.Error(t, err)
}

func TestKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "campaign:state:c-1", stateKey("c-1"))
	assert.Equal(t, "campaign:artifacts:c-1", artifactKey("c-1"))
	assert.NotEqual(t, landscapeKey("p-1"), strategyKey("p-1"))
}
