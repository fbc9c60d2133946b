package usecase

import (
	"context"
	"fmt"
	"sync"

	"Coinverge/internal/domain/models"
	domrepo "Coinverge/internal/domain/repository"
)

type searchTicket struct {
	cancel context.CancelFunc
}

// SearchSessions gives search-as-you-type callers last-query-wins semantics: a new
// query in a session cancels the one still in flight, whose result is discarded.
type SearchSessions struct {
	coins domrepo.CoinSource

	mu     sync.Mutex
	active map[string]*searchTicket
}

func NewSearchSessions(coins domrepo.CoinSource) *SearchSessions {
	return &SearchSessions{coins: coins, active: make(map[string]*searchTicket)}
}

// Search runs query for session. Without a session token it is a plain search.
// A superseded call returns models.ErrSuperseded whatever its fetch produced.
func (s *SearchSessions) Search(ctx context.Context, session, query string) ([]models.CoinSummary, error) {
	if session == "" {
		return s.coins.SearchCoins(ctx, query)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := &searchTicket{cancel: cancel}
	s.mu.Lock()
	if prev := s.active[session]; prev != nil {
		prev.cancel()
	}
	s.active[session] = t
	s.mu.Unlock()

	coins, err := s.coins.SearchCoins(ctx, query)

	s.mu.Lock()
	current := s.active[session] == t
	if current {
		delete(s.active, session)
	}
	s.mu.Unlock()

	if !current {
		return nil, fmt.Errorf("search %q: %w", query, models.ErrSuperseded)
	}
	return coins, err
}

// InFlight reports how many sessions have a search running.
func (s *SearchSessions) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
