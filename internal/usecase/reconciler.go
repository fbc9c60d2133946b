package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"Coinverge/internal/domain/models"
	domrepo "Coinverge/internal/domain/repository"
	"Coinverge/pkg/logger"
	"Coinverge/pkg/metrics"
)

// Reconciler prunes a watchlist down to the ids the upstream still resolves.
type Reconciler struct {
	coins       domrepo.CoinSource
	health      domrepo.HealthProbe
	concurrency int
	logger      *logger.Logger
	metrics     domrepo.Metrics
}

type ReconcilerOption func(*Reconciler)

func NewReconciler(coins domrepo.CoinSource, health domrepo.HealthProbe, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		coins:       coins,
		health:      health,
		concurrency: 1,
		logger:      logger.Nop(),
		metrics:     metrics.Noop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithConcurrency bounds parallel detail fetches. 1 keeps them sequential.
func WithConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithReconcilerLogger(l *logger.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithReconcilerMetrics(m domrepo.Metrics) ReconcilerOption {
	return func(r *Reconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

// CleanCoinIDs applies the local syntactic filter. Duplicates collapse to their
// first occurrence; everything dropped is returned in removed, in input order.
func CleanCoinIDs(ids []string) (kept, removed []string) {
	kept = make([]string, 0, len(ids))
	removed = []string{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !models.IsValidCoinID(id) {
			removed = append(removed, id)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	return kept, removed
}

type detailResult struct {
	detail models.CoinDetail
	ok     bool
}

// Reconcile probes the upstream, drops syntactically invalid ids locally, then
// resolves each remaining id. Details and ValidIDs keep input order. When the
// upstream is unhealthy nothing is fetched and ErrServiceUnavailable is returned.
// If ctx ends midway the context error is returned and nothing is pruned.
func (r *Reconciler) Reconcile(ctx context.Context, ids []string) (models.ReconcileResult, error) {
	if !r.health.Healthy(ctx) {
		if err := ctx.Err(); err != nil {
			return models.ReconcileResult{}, err
		}
		r.metrics.RecordError("upstream_unhealthy")
		return models.ReconcileResult{}, models.ErrServiceUnavailable
	}

	candidates, removed := CleanCoinIDs(ids)
	if len(removed) > 0 {
		r.logger.Debug("dropped malformed coin ids", logger.Strings("ids", removed))
	}

	results := make([]detailResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range candidates {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, ok := r.coins.GetCoinDetails(gctx, id)
			results[i] = detailResult{detail: d, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ReconcileResult{}, fmt.Errorf("reconcile: %w", err)
	}
	// An absent result observed after cancellation may just be a cut-short fetch.
	if err := ctx.Err(); err != nil {
		return models.ReconcileResult{}, fmt.Errorf("reconcile: %w", err)
	}

	res := models.ReconcileResult{
		Details:  make([]models.CoinDetail, 0, len(candidates)),
		ValidIDs: make([]string, 0, len(candidates)),
		Removed:  removed,
	}
	for i, id := range candidates {
		if !results[i].ok {
			res.Removed = append(res.Removed, id)
			continue
		}
		res.Details = append(res.Details, results[i].detail)
		res.ValidIDs = append(res.ValidIDs, id)
	}

	r.metrics.RecordReconcile(len(res.ValidIDs), len(res.Removed))
	if len(res.Removed) > 0 {
		r.logger.Info("reconciled watchlist",
			logger.Int("kept", len(res.ValidIDs)),
			logger.Strings("removed", res.Removed),
		)
	}
	return res, nil
}
