package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"Coinverge/internal/domain/models"
	domrepo "Coinverge/internal/domain/repository"
	"Coinverge/pkg/logger"
)

// WatchlistService owns every owner's persisted coin list.
type WatchlistService struct {
	store      domrepo.WatchlistStore
	reconciler *Reconciler
	events     domrepo.EventPublisher
	logger     *logger.Logger
	now        func() time.Time
}

func NewWatchlistService(store domrepo.WatchlistStore, reconciler *Reconciler, events domrepo.EventPublisher, l *logger.Logger) *WatchlistService {
	if l == nil {
		l = logger.Nop()
	}
	return &WatchlistService{store: store, reconciler: reconciler, events: events, logger: l, now: time.Now}
}

// IDs returns the stored list; an unknown owner has an empty one.
func (s *WatchlistService) IDs(ctx context.Context, owner string) ([]string, error) {
	ids, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	return ids, nil
}

// Add appends id unless already present.
func (s *WatchlistService) Add(ctx context.Context, owner, id string) ([]string, error) {
	return s.AddMany(ctx, owner, []string{id})
}

// AddMany appends every id not already present, keeping first-seen order.
func (s *WatchlistService) AddMany(ctx context.Context, owner string, ids []string) ([]string, error) {
	trimmed := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("add coins: %w: empty coin id", models.ErrInvalidArgument)
		}
		trimmed = append(trimmed, id)
	}

	var added []string
	out, err := s.mutate(ctx, owner, func(cur []string) []string {
		added = nil
		next := slices.Clone(cur)
		for _, id := range trimmed {
			if !slices.Contains(next, id) {
				next = append(next, id)
				added = append(added, id)
			}
		}
		return next
	})
	if err != nil {
		return nil, fmt.Errorf("add coins: %w", err)
	}
	if len(added) > 0 {
		s.publish(ctx, owner, models.WatchlistAdded, added)
	}
	return out, nil
}

// Remove drops id if present. The id is trimmed the same way AddMany trims it.
func (s *WatchlistService) Remove(ctx context.Context, owner, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("remove coin: %w: empty coin id", models.ErrInvalidArgument)
	}
	removed := false
	out, err := s.mutate(ctx, owner, func(cur []string) []string {
		next := slices.DeleteFunc(slices.Clone(cur), func(x string) bool { return x == id })
		removed = len(next) != len(cur)
		return next
	})
	if err != nil {
		return nil, fmt.Errorf("remove coin: %w", err)
	}
	if removed {
		s.publish(ctx, owner, models.WatchlistRemoved, []string{id})
	}
	return out, nil
}

// Clear forgets the owner's whole list.
func (s *WatchlistService) Clear(ctx context.Context, owner string) error {
	release, err := s.store.Lock(ctx, owner)
	if err != nil {
		return fmt.Errorf("clear watchlist: %w", err)
	}
	defer release()

	prev, err := s.store.Load(ctx, owner)
	if err != nil {
		return fmt.Errorf("clear watchlist: %w", err)
	}
	if err := s.store.Delete(ctx, owner); err != nil {
		return fmt.Errorf("clear watchlist: %w", err)
	}
	s.publish(ctx, owner, models.WatchlistCleared, prev)
	return nil
}

// Clean applies the local syntactic filter to the stored list without any network call.
func (s *WatchlistService) Clean(ctx context.Context, owner string) (kept, removed []string, err error) {
	kept, err = s.mutate(ctx, owner, func(cur []string) []string {
		var next []string
		next, removed = CleanCoinIDs(cur)
		return next
	})
	if err != nil {
		return nil, nil, fmt.Errorf("clean watchlist: %w", err)
	}
	if len(removed) > 0 {
		s.publish(ctx, owner, models.WatchlistCleaned, removed)
	}
	return kept, removed, nil
}

// Refresh reconciles the stored list against the upstream and persists the pruned
// result. The list is read once up front. Only ids found unresolvable are removed
// at the end, so ids added while the fetches ran survive. The owner lock is held
// only around that final write, never across a fetch.
func (s *WatchlistService) Refresh(ctx context.Context, owner string) (models.Portfolio, error) {
	ids, err := s.store.Load(ctx, owner)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("refresh watchlist: %w", err)
	}

	res, err := s.reconciler.Reconcile(ctx, ids)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("refresh watchlist: %w", err)
	}

	needsWrite := len(res.Removed) > 0 || len(res.ValidIDs) != len(ids)
	if needsWrite {
		drop := make(map[string]struct{}, len(res.Removed))
		for _, id := range res.Removed {
			drop[id] = struct{}{}
		}
		_, err := s.mutate(ctx, owner, func(cur []string) []string {
			seen := make(map[string]struct{}, len(cur))
			next := make([]string, 0, len(cur))
			for _, id := range cur {
				if _, gone := drop[id]; gone {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				next = append(next, id)
			}
			return next
		})
		if err != nil {
			return models.Portfolio{}, fmt.Errorf("refresh watchlist: %w", err)
		}
		if len(res.Removed) > 0 {
			s.publish(ctx, owner, models.WatchlistPruned, res.Removed)
		}
	}

	return models.Portfolio{
		Owner:     owner,
		Holdings:  res.Details,
		CoinIDs:   res.ValidIDs,
		Removed:   res.Removed,
		CheckedAt: s.now().UTC(),
	}, nil
}

// mutate runs fn on the stored list under the owner lock and saves the result if it changed.
func (s *WatchlistService) mutate(ctx context.Context, owner string, fn func(cur []string) []string) ([]string, error) {
	release, err := s.store.Lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer release()

	cur, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next := fn(cur)
	if slices.Equal(cur, next) {
		return next, nil
	}
	if err := s.store.Save(ctx, owner, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *WatchlistService) publish(ctx context.Context, owner string, typ models.WatchlistEventType, ids []string) {
	ev := models.WatchlistEvent{Owner: owner, Type: typ, CoinIDs: ids, At: s.now().UTC()}
	if err := s.events.PublishWatchlistEvent(ctx, ev); err != nil {
		s.logger.Warn("publish watchlist event failed",
			logger.String("owner", owner),
			logger.String("type", string(typ)),
			logger.Error(err),
		)
	}
}
