package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Coinverge/internal/domain/models"
	"Coinverge/internal/domain/repository"
	"Coinverge/pkg/cache"
)

const (
	watchlistKeyPrefix = "watchlist"
	lockRetryInterval  = 25 * time.Millisecond
)

// CacheWatchlistStore persists each owner's list as one JSON array under
// "watchlist:<owner>" in any cache backend (memory, Redis, layered).
type CacheWatchlistStore struct {
	cache    cache.Service
	lockTTL  time.Duration
	lockWait time.Duration
}

// NewCacheWatchlistStore creates a store. lockTTL bounds how long a lock may be held;
// lockWait bounds how long Lock waits to take one and is kept below lockTTL so a
// waiter gives up before a live holder's lock can expire under it.
func NewCacheWatchlistStore(c cache.Service, lockTTL, lockWait time.Duration) repository.WatchlistStore {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	if lockWait <= 0 || lockWait >= lockTTL {
		lockWait = lockTTL / 2
	}
	return &CacheWatchlistStore{cache: c, lockTTL: lockTTL, lockWait: lockWait}
}

func watchlistKey(owner string) string {
	return cache.GenerateKey(watchlistKeyPrefix, owner)
}

func (s *CacheWatchlistStore) Load(ctx context.Context, owner string) ([]string, error) {
	var ids []string
	err := s.cache.Get(ctx, watchlistKey(owner), &ids)
	if errors.Is(err, cache.ErrCacheMiss) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", owner, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Save replaces the whole list. Watchlists never expire.
func (s *CacheWatchlistStore) Save(ctx context.Context, owner string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := s.cache.Set(ctx, watchlistKey(owner), ids, 0); err != nil {
		return fmt.Errorf("set %s: %w", owner, err)
	}
	return nil
}

func (s *CacheWatchlistStore) Delete(ctx context.Context, owner string) error {
	if err := s.cache.Delete(ctx, watchlistKey(owner)); err != nil {
		return fmt.Errorf("delete %s: %w", owner, err)
	}
	return nil
}

// Lock polls TryLock until it succeeds, lockWait elapses (ErrWatchlistBusy) or ctx ends.
func (s *CacheWatchlistStore) Lock(ctx context.Context, owner string) (func(), error) {
	key := cache.LockKey(watchlistKey(owner))
	deadline := time.Now().Add(s.lockWait)

	for attempt := 0; ; attempt++ {
		if attempt > 0 && !time.Now().Before(deadline) {
			return nil, fmt.Errorf("lock %s: %w", owner, models.ErrWatchlistBusy)
		}
		ok, err := s.cache.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", owner, err)
		}
		if ok {
			return func() {
				// release even if the caller's context is already done
				_ = s.cache.Unlock(context.WithoutCancel(ctx), key)
			}, nil
		}

		select {
		case <-time.After(lockRetryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
