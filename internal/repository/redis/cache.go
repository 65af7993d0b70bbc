package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketloop/recommendations/internal/domain"
	"github.com/marketloop/recommendations/internal/repository"
)

const keyPrefix = "recommendation:"

// CachedRecommendationRepository decorates a RecommendationRepository with a
// Redis read-through cache for single-record lookups. Writes go straight to
// the underlying store and invalidate the cached entry. Cache failures are
// logged and otherwise ignored so Redis outages never break reads.
type CachedRecommendationRepository struct {
	inner  repository.RecommendationRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRecommendationRepository wraps inner with a Redis cache.
func NewCachedRecommendationRepository(inner repository.RecommendationRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRecommendationRepository {
	return &CachedRecommendationRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// Create delegates to the underlying store.
func (r *CachedRecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	return r.inner.Create(ctx, rec)
}

// GetByID returns the cached record when present, otherwise reads through to
// the underlying store and caches the result.
func (r *CachedRecommendationRepository) GetByID(ctx context.Context, id int64) (*domain.Recommendation, error) {
	key := cacheKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var rec domain.Recommendation
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
		// Corrupt entry; drop it and fall through to the store.
		r.invalidate(ctx, id)
	} else if err != redis.Nil {
		r.logger.WarnContext(ctx, "redis get failed, falling back to store",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	rec, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, rec)
	return rec, nil
}

// List delegates to the underlying store. Filtered listings are not cached.
func (r *CachedRecommendationRepository) List(ctx context.Context, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	return r.inner.List(ctx, filter)
}

// Update writes to the underlying store and invalidates the cached entry.
func (r *CachedRecommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) error {
	if err := r.inner.Update(ctx, rec); err != nil {
		return err
	}
	r.invalidate(ctx, rec.ID)
	return nil
}

// Delete removes from the underlying store and invalidates the cached entry.
func (r *CachedRecommendationRepository) Delete(ctx context.Context, id int64) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// IncrementLikes bumps the counter in the store and refreshes the cache with
// the returned record.
func (r *CachedRecommendationRepository) IncrementLikes(ctx context.Context, id int64) (*domain.Recommendation, error) {
	rec, err := r.inner.IncrementLikes(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, rec)
	return rec, nil
}

func (r *CachedRecommendationRepository) store(ctx context.Context, rec *domain.Recommendation) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, cacheKey(rec.ID), data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "redis set failed",
			slog.String("key", cacheKey(rec.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (r *CachedRecommendationRepository) invalidate(ctx context.Context, id int64) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.logger.WarnContext(ctx, "redis del failed",
			slog.String("key", cacheKey(id)),
			slog.String("error", err.Error()),
		)
	}
}
