package models

// Request models for the HTTP API, bound by echo and checked by validator.

type SearchRequest struct {
	Query string `query:"query" json:"query" validate:"required,max=100"`
}

type CoinRequest struct {
	ID string `param:"id" json:"id" validate:"required,max=50"`
}

type WatchlistRequest struct {
	Owner string `param:"owner" json:"owner" validate:"required,max=64"`
}

type AddCoinsRequest struct {
	Owner string   `param:"owner" json:"-" validate:"required,max=64"`
	IDs   []string `json:"ids" validate:"required,min=1,max=100,dive,required,max=50"`
}

type RemoveCoinRequest struct {
	Owner string `param:"owner" json:"owner" validate:"required,max=64"`
	ID    string `param:"id" json:"id" validate:"required,max=50"`
}

type StreamRequest struct {
	Owner       string `param:"owner" json:"owner" validate:"required,max=64"`
	IntervalSec int    `query:"interval_sec" json:"interval_sec" default:"30" validate:"gte=5,lte=3600"`
}
