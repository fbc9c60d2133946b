package coingecko

import (
	"math"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Paths into the coin detail document.
const (
	pathID        = "$.id"
	pathName      = "$.name"
	pathSymbol    = "$.symbol"
	pathThumb     = "$.image.thumb"
	pathPriceUSD  = "$.market_data.current_price.usd"
	pathChange1h  = "$.market_data.price_change_percentage_1h_in_currency.usd"
	pathChange24h = "$.market_data.price_change_percentage_24h"
	pathChange7d  = "$.market_data.price_change_percentage_7d"
)

// ValidCoinDetail reports whether a decoded detail payload carries everything a
// CoinDetail needs. Optional percentage fields are not inspected.
func ValidCoinDetail(payload any) bool {
	if payload == nil {
		return false
	}
	for _, p := range []string{pathID, pathName, pathSymbol, pathThumb} {
		if _, ok := stringAt(payload, p); !ok {
			return false
		}
	}
	_, ok := numberAt(payload, pathPriceUSD)
	return ok
}

// stringAt returns a non-blank string at path.
func stringAt(payload any, path string) (string, bool) {
	v, err := jsonpath.Get(path, payload)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// numberAt returns a non-NaN number at path.
func numberAt(payload any, path string) (float64, bool) {
	v, err := jsonpath.Get(path, payload)
	if err != nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// numberOrZero treats a missing, null, or non-numeric field as 0.
func numberOrZero(payload any, path string) float64 {
	f, _ := numberAt(payload, path)
	return f
}
