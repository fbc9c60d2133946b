package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Coinverge/internal/domain/models"
)

func TestSearchWithoutSession(t *testing.T) {
	s := NewSearchSessions(newFakeCoins())

	got, err := s.Search(context.Background(), "", "bitcoin")
	require.NoError(t, err)
	require.Equal(t, []models.CoinSummary{{ID: "bitcoin", Name: "bitcoin"}}, got)
	require.Zero(t, s.InFlight())
}

func TestSearchSupersededByNewerQuery(t *testing.T) {
	started := make(chan struct{})
	coins := newFakeCoins()
	coins.search = func(ctx context.Context, query string) ([]models.CoinSummary, error) {
		if query == "bit" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []models.CoinSummary{{ID: "bitcoin"}}, nil
	}
	s := NewSearchSessions(coins)

	type result struct {
		coins []models.CoinSummary
		err   error
	}
	first := make(chan result, 1)
	go func() {
		c, err := s.Search(context.Background(), "tab-1", "bit")
		first <- result{c, err}
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first search never started")
	}

	got, err := s.Search(context.Background(), "tab-1", "bitcoin")
	require.NoError(t, err)
	require.Equal(t, []models.CoinSummary{{ID: "bitcoin"}}, got)

	select {
	case r := <-first:
		require.ErrorIs(t, r.err, models.ErrSuperseded)
		require.Nil(t, r.coins)
	case <-time.After(time.Second):
		t.Fatal("superseded search did not return")
	}
	require.Zero(t, s.InFlight())
}

func TestSearchSessionsAreIndependent(t *testing.T) {
	s := NewSearchSessions(newFakeCoins())

	a, err := s.Search(context.Background(), "tab-1", "bitcoin")
	require.NoError(t, err)
	b, err := s.Search(context.Background(), "tab-2", "ethereum")
	require.NoError(t, err)

	require.Equal(t, "bitcoin", a[0].ID)
	require.Equal(t, "ethereum", b[0].ID)
}
