package cache

import (
	"context"
	"time"

	"servicedesk/backend/internal/domain"
)

// SnapshotCache holds frozen settlements. Only VERIFIED settlements are written to it.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*domain.Settlement, bool, error)
	Set(ctx context.Context, key string, value *domain.Settlement, ttl time.Duration) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) (*domain.Settlement, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ *domain.Settlement, _ time.Duration) error {
	return nil
}

func SettlementKey(companyID string, id string) string {
	return "settlement:" + companyID + ":" + id
}
