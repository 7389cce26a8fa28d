package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"krishilink/apperr"
	"krishilink/logger"
	"krishilink/models"
	"krishilink/rdx"
)

const (
	cacheKeyPrefix   = "dashboard:stats:"
	versionKeyPrefix = "dashboard:version:"
)

// cacheKey embeds the owner's version so results computed before an
// invalidation land under a key nobody reads again.
func cacheKey(ownerEmail string, version int64) string {
	return fmt.Sprintf("%s%d:%s", cacheKeyPrefix, version, ownerEmail)
}

func versionKey(ownerEmail string) string {
	return versionKeyPrefix + ownerEmail
}

// Aggregator serves owner statistics, caching each owner's result briefly.
// Every mutation of an owner's crops calls Invalidate.
type Aggregator struct {
	store Store
	cache rdx.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewAggregator(store Store, cache rdx.Cache, ttl time.Duration, log *logger.Logger) *Aggregator {
	if cache == nil {
		cache = rdx.Nop{}
	}
	return &Aggregator{store: store, cache: cache, ttl: ttl, log: log.With("service", "DashboardAggregator")}
}

func (a *Aggregator) Stats(ctx context.Context, ownerEmail string) (models.DashboardStats, error) {
	owner := models.NormalizeEmail(ownerEmail)
	if owner == "" {
		return models.DashboardStats{}, apperr.BadRequest("email is required")
	}

	if a.ttl <= 0 {
		return a.compute(ctx, owner)
	}

	version := a.version(ctx, owner)
	key := cacheKey(owner, version)

	var cached models.DashboardStats
	err := a.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, rdx.ErrMiss) {
		a.log.Warn("stats cache read failed", "owner", owner, "error", err)
	}

	stats, err := a.compute(ctx, owner)
	if err != nil {
		return models.DashboardStats{}, err
	}
	if err := a.cache.SetJSON(ctx, key, stats, a.ttl); err != nil {
		a.log.Warn("stats cache write failed", "owner", owner, "error", err)
	}
	return stats, nil
}

func (a *Aggregator) compute(ctx context.Context, owner string) (models.DashboardStats, error) {
	stats, err := a.store.OwnerStats(ctx, owner)
	if err != nil {
		return models.DashboardStats{}, apperr.Internal(err, "dashboard stats")
	}
	return stats, nil
}

// version is 0 until the owner's first invalidation.
func (a *Aggregator) version(ctx context.Context, owner string) int64 {
	var v int64
	if err := a.cache.GetJSON(ctx, versionKey(owner), &v); err != nil && !errors.Is(err, rdx.ErrMiss) {
		a.log.Warn("stats version read failed", "owner", owner, "error", err)
	}
	return v
}

func (a *Aggregator) Invalidate(ctx context.Context, ownerEmail string) {
	owner := models.NormalizeEmail(ownerEmail)
	if owner == "" {
		return
	}
	if err := a.cache.Incr(ctx, versionKey(owner)); err != nil {
		a.log.Warn("stats cache invalidate failed", "owner", owner, "error", err)
	}
}
