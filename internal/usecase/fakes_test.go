package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Coinverge/internal/domain/models"
	"Coinverge/internal/repository"
	"Coinverge/pkg/cache"
)

type fakeCoins struct {
	mu      sync.Mutex
	known   map[string]models.CoinDetail
	calls   []string
	delay   time.Duration
	search  func(ctx context.Context, query string) ([]models.CoinSummary, error)
	pending atomic.Int32
}

func newFakeCoins(ids ...string) *fakeCoins {
	f := &fakeCoins{known: make(map[string]models.CoinDetail)}
	for i, id := range ids {
		f.known[id] = models.CoinDetail{ID: id, Name: id, Symbol: id[:3], PriceUSD: float64(i + 1)}
	}
	return f
}

func (f *fakeCoins) SearchCoins(ctx context.Context, query string) ([]models.CoinSummary, error) {
	if f.search != nil {
		return f.search(ctx, query)
	}
	return []models.CoinSummary{{ID: query, Name: query}}, nil
}

func (f *fakeCoins) GetCoinDetails(ctx context.Context, id string) (models.CoinDetail, bool) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	d, ok := f.known[id]
	f.mu.Unlock()

	if f.delay > 0 {
		f.pending.Add(1)
		defer f.pending.Add(-1)
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.CoinDetail{}, false
		}
	}
	return d, ok
}

func (f *fakeCoins) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeHealth struct {
	healthy bool
	calls   atomic.Int32
}

func (h *fakeHealth) Healthy(context.Context) bool {
	h.calls.Add(1)
	return h.healthy
}

type fakeChecker struct {
	err   error
	calls atomic.Int32
}

func (c *fakeChecker) HealthCheck(context.Context) error {
	c.calls.Add(1)
	return c.err
}

type recordedEvents struct {
	mu     sync.Mutex
	events []models.WatchlistEvent
	err    error
}

func (r *recordedEvents) PublishWatchlistEvent(_ context.Context, ev models.WatchlistEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordedEvents) Close() error { return nil }

func (r *recordedEvents) all() []models.WatchlistEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.WatchlistEvent(nil), r.events...)
}

var errBroker = errors.New("broker down")

type watchlistFixture struct {
	svc    *WatchlistService
	coins  *fakeCoins
	health *fakeHealth
	events *recordedEvents
}

func newWatchlistFixture(t *testing.T, known ...string) watchlistFixture {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	coins := newFakeCoins(known...)
	health := &fakeHealth{healthy: true}
	events := &recordedEvents{}
	store := repository.NewCacheWatchlistStore(mc, time.Second, 0)
	svc := NewWatchlistService(store, NewReconciler(coins, health), events, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return watchlistFixture{svc: svc, coins: coins, health: health, events: events}
}
