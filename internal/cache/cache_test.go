package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicedesk/backend/internal/domain"
)

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c SnapshotCache = NoopSnapshotCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", &domain.Settlement{ID: "set-1"}, time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSettlementKeyIsCompanyScoped(t *testing.T) {
	assert.NotEqual(t, SettlementKey("co-1", "set-1"), SettlementKey("co-2", "set-1"))
	assert.Equal(t, "settlement:co-1:set-1", SettlementKey("co-1", "set-1"))
}

func TestRedisSnapshotRoundTrip(t *testing.T) {
	addr := os.Getenv("SETTLEMENT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set SETTLEMENT_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	c := NewRedisSnapshotCache(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	key := SettlementKey("co-it", "set-"+time.Now().Format("150405.000000"))
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	verifiedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, c.Set(ctx, key, &domain.Settlement{
		ID:             "set-it",
		Status:         domain.SettlementStatusVerified,
		NetCashAmount:  decimal.RequireFromString("120.50"),
		CashDifference: decimal.RequireFromString("-5"),
		VerifiedAt:     &verifiedAt,
	}, time.Minute))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SettlementStatusVerified, got.Status)
	assert.True(t, got.NetCashAmount.Equal(decimal.RequireFromString("120.5")))
	require.NotNil(t, got.VerifiedAt)
	assert.True(t, got.VerifiedAt.Equal(verifiedAt))
}
