package models

import "time"

// WatchlistEventType names a watchlist mutation.
type WatchlistEventType string

const (
	WatchlistAdded   WatchlistEventType = "added"
	WatchlistRemoved WatchlistEventType = "removed"
	WatchlistCleared WatchlistEventType = "cleared"
	WatchlistCleaned WatchlistEventType = "cleaned"
	WatchlistPruned  WatchlistEventType = "pruned"
)

// WatchlistEvent is published after every persisted change to an owner's watchlist.
type WatchlistEvent struct {
	Owner   string             `json:"owner"`
	Type    WatchlistEventType `json:"type"`
	CoinIDs []string           `json:"coin_ids"`
	At      time.Time          `json:"at"`
}

// ReconcileResult holds resolvable details in input order plus the surviving ids.
type ReconcileResult struct {
	Details  []CoinDetail `json:"details"`
	ValidIDs []string     `json:"valid_ids"`
	Removed  []string     `json:"removed"`
}

// Portfolio is an owner's reconciled watchlist ready for display.
type Portfolio struct {
	Owner     string       `json:"owner"`
	Holdings  []CoinDetail `json:"holdings"`
	CoinIDs   []string     `json:"coin_ids"`
	Removed   []string     `json:"removed"`
	CheckedAt time.Time    `json:"checked_at"`
}
