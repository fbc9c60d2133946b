package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"Coinverge/internal/domain/models"
	"Coinverge/pkg/cache"
	"Coinverge/pkg/logger"
)

const healthCacheKey = "health:upstream"

// HealthChecker pings the upstream once.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthMonitor remembers the last upstream status. With a positive TTL and a
// cache, a recent status is reused instead of pinging again.
type HealthMonitor struct {
	checker HealthChecker
	cache   cache.Service
	ttl     time.Duration
	logger  *logger.Logger
	now     func() time.Time

	mu   sync.RWMutex
	last models.HealthStatus
}

func NewHealthMonitor(checker HealthChecker, c cache.Service, ttl time.Duration, l *logger.Logger) *HealthMonitor {
	if l == nil {
		l = logger.Nop()
	}
	return &HealthMonitor{checker: checker, cache: c, ttl: ttl, logger: l, now: time.Now}
}

// Check returns the upstream status, pinging unless a cached one is still fresh.
func (m *HealthMonitor) Check(ctx context.Context) models.HealthStatus {
	if m.cache != nil && m.ttl > 0 {
		var cached models.HealthStatus
		err := m.cache.Get(ctx, healthCacheKey, &cached)
		if err == nil {
			m.remember(cached)
			return cached
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			m.logger.Warn("health cache read failed", logger.Error(err))
		}
	}

	status := models.HealthStatus{Healthy: true, CheckedAt: m.now().UTC()}
	if err := m.checker.HealthCheck(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		m.logger.Warn("upstream health check failed", logger.Error(err))
	}
	m.remember(status)

	// a canceled probe says nothing about the upstream
	if m.cache != nil && m.ttl > 0 && ctx.Err() == nil {
		if err := m.cache.Set(ctx, healthCacheKey, status, m.ttl); err != nil {
			m.logger.Warn("health cache write failed", logger.Error(err))
		}
	}
	return status
}

// Healthy satisfies repository.HealthProbe.
func (m *HealthMonitor) Healthy(ctx context.Context) bool {
	return m.Check(ctx).Healthy
}

// Last returns the most recent status without probing. CheckedAt is zero if never checked.
func (m *HealthMonitor) Last() models.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *HealthMonitor) remember(s models.HealthStatus) {
	m.mu.Lock()
	m.last = s
	m.mu.Unlock()
}
