package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"Coinverge/internal/domain/models"
)

func TestWatchlistAddDedupes(t *testing.T) {
	f := newWatchlistFixture(t)
	ctx := context.Background()

	ids, err := f.svc.Add(ctx, "alice", "bitcoin")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin"}, ids)

	ids, err = f.svc.AddMany(ctx, "alice", []string{" ethereum ", "bitcoin", "ethereum"})
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin", "ethereum"}, ids)

	ids, err = f.svc.Add(ctx, "alice", "bitcoin")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin", "ethereum"}, ids)

	events := f.events.all()
	require.Len(t, events, 2)
	require.Equal(t, models.WatchlistAdded, events[0].Type)
	require.Equal(t, []string{"bitcoin"}, events[0].CoinIDs)
	require.Equal(t, []string{"ethereum"}, events[1].CoinIDs)
}

func TestWatchlistAddRejectsBlank(t *testing.T) {
	f := newWatchlistFixture(t)

	_, err := f.svc.AddMany(context.Background(), "alice", []string{"bitcoin", "  "})
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	ids, err := f.svc.IDs(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestWatchlistOwnersAreIsolated(t *testing.T) {
	f := newWatchlistFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "alice", "bitcoin")
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "bob", "solana")
	require.NoError(t, err)

	ids, err := f.svc.IDs(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin"}, ids)
}

func TestWatchlistRemove(t *testing.T) {
	f := newWatchlistFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{"bitcoin", "ethereum"})
	require.NoError(t, err)

	ids, err := f.svc.Remove(ctx, "alice", "bitcoin")
	require.NoError(t, err)
	require.Equal(t, []string{"ethereum"}, ids)

	ids, err = f.svc.Remove(ctx, "alice", "missing")
	require.NoError(t, err)
	require.Equal(t, []string{"ethereum"}, ids)

	events := f.events.all()
	require.Len(t, events, 2)
	require.Equal(t, models.WatchlistRemoved, events[1].Type)
}

func TestWatchlistRemoveTrimsID(t *testing.T) {
	f := newWatchlistFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{" bitcoin ", "ethereum"})
	require.NoError(t, err)

	ids, err := f.svc.Remove(ctx, "alice", " bitcoin")
	require.NoError(t, err)
	require.Equal(t, []string{"ethereum"}, ids)

	events := f.events.all()
	require.Equal(t, []string{"bitcoin"}, events[len(events)-1].CoinIDs)

	_, err = f.svc.Remove(ctx, "alice", "  ")
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestWatchlistClear(t *testing.T) {
	f := newWatchlistFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, "alice"))

	ids, err := f.svc.IDs(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, ids)

	events := f.events.all()
	last := events[len(events)-1]
	require.Equal(t, models.WatchlistCleared, last.Type)
	require.Equal(t, []string{"bitcoin", "ethereum"}, last.CoinIDs)
}

func TestWatchlistClean(t *testing.T) {
	f := newWatchlistFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{"bitcoin", "not a valid id!!!"})
	require.NoError(t, err)

	kept, removed, err := f.svc.Clean(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin"}, kept)
	require.Equal(t, []string{"not a valid id!!!"}, removed)
	require.Zero(t, f.coins.callCount())

	ids, err := f.svc.IDs(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin"}, ids)
}

func TestWatchlistRefreshPersistsPrunedList(t *testing.T) {
	f := newWatchlistFixture(t, "bitcoin")
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{"bitcoin", "not a valid id!!!", "ethereum"})
	require.NoError(t, err)

	p, err := f.svc.Refresh(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", p.Owner)
	require.Equal(t, []string{"bitcoin"}, p.CoinIDs)
	require.Len(t, p.Holdings, 1)
	require.Equal(t, []string{"not a valid id!!!", "ethereum"}, p.Removed)
	require.False(t, p.CheckedAt.IsZero())

	ids, err := f.svc.IDs(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin"}, ids)

	events := f.events.all()
	last := events[len(events)-1]
	require.Equal(t, models.WatchlistPruned, last.Type)
	require.Equal(t, []string{"not a valid id!!!", "ethereum"}, last.CoinIDs)
}

func TestWatchlistRefreshUnhealthyLeavesStore(t *testing.T) {
	f := newWatchlistFixture(t, "bitcoin")
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	f.health.healthy = false

	_, err = f.svc.Refresh(ctx, "alice")
	require.ErrorIs(t, err, models.ErrServiceUnavailable)
	require.Zero(t, f.coins.callCount())

	ids, err := f.svc.IDs(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin", "ethereum"}, ids)
}

func TestWatchlistRefreshWithoutChangesPublishesNothing(t *testing.T) {
	f := newWatchlistFixture(t, "bitcoin", "ethereum")
	ctx := context.Background()

	_, err := f.svc.AddMany(ctx, "alice", []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	before := len(f.events.all())

	p, err := f.svc.Refresh(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin", "ethereum"}, p.CoinIDs)
	require.Empty(t, p.Removed)
	require.Len(t, f.events.all(), before)
}

func TestWatchlistPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newWatchlistFixture(t)
	f.events.err = errBroker

	ids, err := f.svc.Add(context.Background(), "alice", "bitcoin")
	require.NoError(t, err)
	require.Equal(t, []string{"bitcoin"}, ids)
}
