package repository

import (
	"context"

	"Coinverge/internal/domain/models"
)

// CoinSource resolves coins against the upstream price API.
type CoinSource interface {
	SearchCoins(ctx context.Context, query string) ([]models.CoinSummary, error)
	// GetCoinDetails returns false when the id does not resolve; it never errors.
	GetCoinDetails(ctx context.Context, id string) (models.CoinDetail, bool)
}

// HealthProbe reports upstream liveness.
type HealthProbe interface {
	Healthy(ctx context.Context) bool
}

// WatchlistStore persists an owner's ordered coin ids with whole-list semantics.
type WatchlistStore interface {
	Load(ctx context.Context, owner string) ([]string, error)
	Save(ctx context.Context, owner string, ids []string) error
	Delete(ctx context.Context, owner string) error
	// Lock serializes mutations of one owner's list; the returned func releases it.
	Lock(ctx context.Context, owner string) (func(), error)
}

// EventPublisher emits watchlist events to downstream consumers.
type EventPublisher interface {
	PublishWatchlistEvent(ctx context.Context, ev models.WatchlistEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(endpoint, outcome string)
	RecordRetry(endpoint string)
	RecordLatency(op string, seconds float64)
	RecordReconcile(kept, pruned int)
	RecordError(kind string)
}
