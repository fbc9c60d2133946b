package di

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"Coinverge/internal/domain/repository"
	"Coinverge/internal/handler/api"
	internalrepo "Coinverge/internal/repository"
	"Coinverge/internal/service/coingecko"
	"Coinverge/internal/service/ratelimit"
	"Coinverge/internal/usecase"
	"Coinverge/pkg/cache"
	"Coinverge/pkg/config"
	xhttp "Coinverge/pkg/http"
	pkgkafka "Coinverge/pkg/kafka"
	"Coinverge/pkg/logger"
	"Coinverge/pkg/metrics"
	"Coinverge/pkg/server"
)

// memoryCacheEntries bounds the in-process store; watchlists are small.
const memoryCacheEntries = 100000

// ProvideLogger builds the application logger. Error logs are aggregated to the
// Kafka log topic when a producer and topic are configured.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideRegistry creates the application's Prometheus registry with the Go
// runtime and process collectors. Each injector gets its own registry.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideRegisterer(reg *prometheus.Registry) prometheus.Registerer { return reg }

func ProvideGatherer(reg *prometheus.Registry) prometheus.Gatherer { return reg }

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.New(reg)
}

// ProvideFetcher creates the single-attempt HTTP fetcher for the upstream.
func ProvideFetcher(cfg *config.Config) *xhttp.Client {
	opts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.Upstream.Timeout)}
	if cfg.Upstream.APIKey != "" {
		opts = append(opts, xhttp.WithHeader(coingecko.APIKeyHeader, cfg.Upstream.APIKey))
	}
	return xhttp.NewClient(opts...)
}

// ProvideCoinGeckoClient creates the rate limited, retrying upstream client.
func ProvideCoinGeckoClient(cfg *config.Config, fetcher *xhttp.Client, l *logger.Logger, m repository.Metrics) *coingecko.Client {
	return coingecko.New(fetcher,
		coingecko.WithBaseURL(cfg.Upstream.BaseURL),
		coingecko.WithRetryPolicy(xhttp.RetryPolicy{
			MaxAttempts: cfg.Upstream.MaxAttempts,
			BaseDelay:   cfg.Upstream.BackoffBase,
		}),
		coingecko.WithRateLimit(ratelimit.New(), cfg.Upstream.RateLimit.Capacity, cfg.Upstream.RateLimit.RefillPerSec),
		coingecko.WithDefaultLogo(cfg.Upstream.DefaultLogo),
		coingecko.WithLogger(l.With(logger.String("component", "coingecko"))),
		coingecko.WithMetrics(m),
	)
}

func ProvideCoinSource(c *coingecko.Client) repository.CoinSource { return c }

func ProvideHealthChecker(c *coingecko.Client) usecase.HealthChecker { return c }

// ProvideCache creates the watchlist backend selected by watchlist.backend.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	var (
		svc cache.Service
		err error
	)
	switch cfg.Watchlist.Backend {
	case config.BackendMemory:
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(memoryCacheEntries))
	case config.BackendRedis, config.BackendLayered:
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
		if cfg.Watchlist.Backend == config.BackendLayered {
			svc = cache.NewLayeredCache(rc)
		}
	default:
		return nil, nil, fmt.Errorf("unknown watchlist backend %q", cfg.Watchlist.Backend)
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideEventPublisher publishes watchlist events to Kafka when enabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NewNoopEventPublisher()
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

func ProvideWatchlistStore(cfg *config.Config, c cache.Service) repository.WatchlistStore {
	return internalrepo.NewCacheWatchlistStore(c, cfg.Watchlist.LockTTL, cfg.Watchlist.LockWait)
}

func ProvideHealthMonitor(cfg *config.Config, checker usecase.HealthChecker, c cache.Service, l *logger.Logger) *usecase.HealthMonitor {
	return usecase.NewHealthMonitor(checker, c, cfg.Health.CacheTTL, l.With(logger.String("component", "health")))
}

func ProvideHealthProbe(m *usecase.HealthMonitor) repository.HealthProbe { return m }

func ProvideReconciler(cfg *config.Config, coins repository.CoinSource, health repository.HealthProbe, l *logger.Logger, m repository.Metrics) *usecase.Reconciler {
	return usecase.NewReconciler(coins, health,
		usecase.WithConcurrency(cfg.Watchlist.ReconcileConcurrency),
		usecase.WithReconcilerLogger(l.With(logger.String("component", "reconciler"))),
		usecase.WithReconcilerMetrics(m),
	)
}

func ProvideWatchlistService(store repository.WatchlistStore, r *usecase.Reconciler, events repository.EventPublisher, l *logger.Logger) *usecase.WatchlistService {
	return usecase.NewWatchlistService(store, r, events, l.With(logger.String("component", "watchlist")))
}

func ProvideSearchSessions(coins repository.CoinSource) *usecase.SearchSessions {
	return usecase.NewSearchSessions(coins)
}

// ProvideHandlers collects every route group served by the HTTP server.
func ProvideHandlers(
	cfg *config.Config,
	l *logger.Logger,
	coins repository.CoinSource,
	sessions *usecase.SearchSessions,
	health *usecase.HealthMonitor,
	watchlist *usecase.WatchlistService,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewCoinsEchoHandler(l, coins, sessions, health),
		api.NewWatchlistEchoHandler(l, watchlist),
		api.NewWatchlistStreamHandler(l, watchlist, cfg.Watchlist.StreamInterval),
	}
}

// ProvideHTTPServer creates the Echo server with metrics and CORS configured.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *logger.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l.With(logger.String("component", "http"))),
	}
	if len(cfg.Server.AllowOrigins) > 0 {
		opts = append(opts, xhttp.WithAllowOrigins(cfg.Server.AllowOrigins))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, gatherer))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, httpServer *xhttp.Server, l *logger.Logger) *server.App {
	return server.New(cfg, httpServer, l)
}
