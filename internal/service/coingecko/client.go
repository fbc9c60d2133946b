package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"Coinverge/internal/domain/models"
	drepo "Coinverge/internal/domain/repository"
	"Coinverge/internal/service/ratelimit"
	xhttp "Coinverge/pkg/http"
	"Coinverge/pkg/logger"
	"Coinverge/pkg/metrics"
)

const (
	DefaultBaseURL     = "https://api.coingecko.com/api/v3"
	DefaultLogoURL     = "/default.png"
	APIKeyHeader       = "x-cg-demo-api-key"
	detailQueryParams  = "localization=false&tickers=false&community_data=false&developer_data=false&sparkline=false"
	rateLimitKey       = "coingecko"
	endpointSearch     = "search"
	endpointDetail     = "detail"
	endpointPing       = "ping"
	searchErrorMessage = "failed to search coins"
)

// Fetcher performs one classified GET.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) xhttp.Outcome[[]byte]
}

// Option configures Client.
type Option func(*Client)

// Client is the resilient CoinGecko client: rate limited, retried, validated.
type Client struct {
	fetcher     Fetcher
	baseURL     string
	defaultLogo string
	retry       xhttp.RetryPolicy

	limiter      *ratelimit.Limiter
	rateCapacity float64
	rateRefill   float64

	logger  *logger.Logger
	metrics drepo.Metrics
}

// New creates a Client on top of fetcher.
func New(fetcher Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:     fetcher,
		baseURL:     DefaultBaseURL,
		defaultLogo: DefaultLogoURL,
		retry:       xhttp.DefaultRetryPolicy(),
		logger:      logger.Nop(),
		metrics:     metrics.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchCoins looks coins up by free text. Every failure is returned as an error.
func (c *Client) SearchCoins(ctx context.Context, query string) ([]models.CoinSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%s: %w: query is empty", searchErrorMessage, models.ErrInvalidArgument)
	}

	c.logger.Debug("searching coins", logger.String("query", query))
	rawURL := c.baseURL + "/search?" + url.Values{"query": {query}}.Encode()
	out := c.fetch(ctx, endpointSearch, rawURL, true)
	if !out.IsOK() {
		return nil, fmt.Errorf("%s: %w", searchErrorMessage, out.Err())
	}

	coins, err := c.decodeSearch(out.Value)
	if err != nil {
		c.metrics.RecordError("search_shape")
		return nil, fmt.Errorf("%s: %w", searchErrorMessage, err)
	}
	c.logger.Debug("search complete", logger.String("query", query), logger.Int("results", len(coins)))
	return coins, nil
}

// GetCoinDetails resolves one coin. Any failure, including validation, yields false.
func (c *Client) GetCoinDetails(ctx context.Context, id string) (models.CoinDetail, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		c.logger.Warn("invalid coin id", logger.String("coin_id", id))
		return models.CoinDetail{}, false
	}

	rawURL := fmt.Sprintf("%s/coins/%s?%s", c.baseURL, url.PathEscape(id), detailQueryParams)
	res := parseDetail(c.fetch(ctx, endpointDetail, rawURL, true))
	switch res.Kind {
	case xhttp.OutcomeOK:
		return res.Value, true
	case xhttp.OutcomeNotFound:
		c.logger.Info("coin not found", logger.String("coin_id", id))
	case xhttp.OutcomeInvalidShape:
		c.metrics.RecordError("detail_shape")
		c.logger.Warn("invalid coin data received", logger.String("coin_id", id), logger.Error(res.Err()))
	default:
		c.logger.Warn("coin details unavailable", logger.String("coin_id", id), logger.Error(res.Err()))
	}
	return models.CoinDetail{}, false
}

// Healthy pings the upstream once, without retries.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.HealthCheck(ctx) == nil
}

// HealthCheck pings the upstream once and returns the failure, if any.
func (c *Client) HealthCheck(ctx context.Context) error {
	out := c.fetch(ctx, endpointPing, c.baseURL+"/ping", false)
	if !out.IsOK() {
		return fmt.Errorf("ping: %w", out.Err())
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint, rawURL string, retry bool) xhttp.Outcome[[]byte] {
	start := time.Now()
	attempt := func(ctx context.Context) xhttp.Outcome[[]byte] {
		if err := c.limiter.Wait(ctx, rateLimitKey, c.rateCapacity, c.rateRefill); err != nil {
			return xhttp.Fail[[]byte](xhttp.OutcomeCanceled, 0, err)
		}
		return c.fetcher.Fetch(ctx, rawURL)
	}

	var out xhttp.Outcome[[]byte]
	if retry {
		policy := c.retry
		policy.OnRetry = func(i int, delay time.Duration, kind xhttp.OutcomeKind, cause error) {
			c.metrics.RecordRetry(endpoint)
			c.logger.Warn("upstream attempt failed, retrying",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", i+1),
				logger.String("outcome", kind.String()),
				logger.Duration("backoff_ms", delay),
				logger.Any("cause", errString(cause)),
			)
		}
		out = xhttp.WithRetry(ctx, policy, attempt)
	} else {
		out = attempt(ctx)
	}

	c.metrics.RecordFetch(endpoint, out.Kind.String())
	c.metrics.RecordLatency("upstream_"+endpoint, time.Since(start).Seconds())
	return out
}

type searchCoin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Thumb  string `json:"thumb"`
}

func (c *Client) decodeSearch(body []byte) ([]models.CoinSummary, error) {
	var envelope struct {
		Coins json.RawMessage `json:"coins"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", xhttp.ErrInvalidShape, err)
	}
	raw := bytes.TrimSpace(envelope.Coins)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: invalid API response format", xhttp.ErrInvalidShape)
	}

	var items []searchCoin
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", xhttp.ErrInvalidShape, err)
	}

	coins := make([]models.CoinSummary, 0, len(items))
	for _, it := range items {
		logo := it.Thumb
		if logo == "" {
			logo = c.defaultLogo
		}
		coins = append(coins, models.CoinSummary{ID: it.ID, Name: it.Name, Symbol: it.Symbol, LogoURL: logo})
	}
	return coins, nil
}

// parseDetail turns a fetched body into a CoinDetail, gated by ValidCoinDetail.
func parseDetail(out xhttp.Outcome[[]byte]) xhttp.Outcome[models.CoinDetail] {
	if !out.IsOK() {
		return xhttp.Recast[models.CoinDetail](out)
	}
	var payload any
	if err := json.Unmarshal(out.Value, &payload); err != nil {
		return xhttp.Fail[models.CoinDetail](xhttp.OutcomeInvalidShape, 0, err)
	}
	if !ValidCoinDetail(payload) {
		return xhttp.Fail[models.CoinDetail](xhttp.OutcomeInvalidShape, 0, nil)
	}
	return xhttp.OK(detailFromPayload(payload))
}

func detailFromPayload(payload any) models.CoinDetail {
	id, _ := stringAt(payload, pathID)
	name, _ := stringAt(payload, pathName)
	symbol, _ := stringAt(payload, pathSymbol)
	thumb, _ := stringAt(payload, pathThumb)
	return models.CoinDetail{
		ID:           id,
		Name:         name,
		Symbol:       symbol,
		LogoURL:      thumb,
		PriceUSD:     numberOrZero(payload, pathPriceUSD),
		Change1hPct:  numberOrZero(payload, pathChange1h),
		Change24hPct: numberOrZero(payload, pathChange24h),
		Change7dPct:  numberOrZero(payload, pathChange7d),
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// WithBaseURL points the client at another upstream root (mocks, proxies).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithRetryPolicy overrides attempts and backoff.
func WithRetryPolicy(p xhttp.RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithRateLimit throttles attempts through a token bucket.
func WithRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.limiter = l
		c.rateCapacity = capacity
		c.rateRefill = refillPerSec
	}
}

// WithDefaultLogo sets the logo used when search results carry no thumbnail.
func WithDefaultLogo(logo string) Option {
	return func(c *Client) {
		if logo != "" {
			c.defaultLogo = logo
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

var (
	_ drepo.CoinSource  = (*Client)(nil)
	_ drepo.HealthProbe = (*Client)(nil)
)
