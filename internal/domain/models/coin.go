package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxCoinIDLength is the longest identifier accepted into a watchlist.
const MaxCoinIDLength = 50

// CoinSummary is a search hit.
type CoinSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURL string `json:"logo"`
}

// CoinDetail is a validated price card. Percentages are 0 when upstream omits them.
type CoinDetail struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	LogoURL      string  `json:"logo"`
	PriceUSD     float64 `json:"price"`
	Change1hPct  float64 `json:"change1h"`
	Change24hPct float64 `json:"change24h"`
	Change7dPct  float64 `json:"change7d"`
}

// HealthStatus is the last known liveness of the upstream source.
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// IsValidCoinID reports whether id could be an upstream identifier: non-empty,
// no whitespace anywhere, at most MaxCoinIDLength characters.
func IsValidCoinID(id string) bool {
	if id == "" || utf8.RuneCountInString(id) > MaxCoinIDLength {
		return false
	}
	return strings.IndexFunc(id, unicode.IsSpace) < 0
}
