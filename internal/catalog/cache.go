package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
)

const cacheKeyPrefix = "storefront:catalog:product:"

// Fetcher loads a product, optionally merged for one variant.
type Fetcher interface {
	FetchProduct(ctx context.Context, slug, variantID string) (*domain.Product, error)
}

// CachedFetcher caches un-keyed product fetches in Redis. Fetches keyed by
// variant id always reach the catalog since they are authoritative. Cache
// failures degrade to a direct fetch.
type CachedFetcher struct {
	next   Fetcher
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedFetcher wraps next with a Redis read-through cache.
func NewCachedFetcher(next Fetcher, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// FetchProduct implements Fetcher.
func (f *CachedFetcher) FetchProduct(ctx context.Context, slug, variantID string) (*domain.Product, error) {
	if variantID != "" {
		return f.next.FetchProduct(ctx, slug, variantID)
	}

	key := cacheKeyPrefix + slug
	product, err := f.get(ctx, key)
	switch {
	case err == nil:
		return product, nil
	case !errors.Is(err, redis.Nil):
		f.logger.WarnContext(ctx, "catalog cache read failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
	}

	product, err = f.next.FetchProduct(ctx, slug, "")
	if err != nil {
		return nil, err
	}

	if err := f.set(ctx, key, product); err != nil {
		f.logger.WarnContext(ctx, "catalog cache write failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
	}
	return product, nil
}

// Invalidate drops the cached product for slug.
func (f *CachedFetcher) Invalidate(ctx context.Context, slug string) error {
	if err := f.client.Del(ctx, cacheKeyPrefix+slug).Err(); err != nil {
		return fmt.Errorf("redis del catalog product: %w", err)
	}
	return nil
}

func (f *CachedFetcher) get(ctx context.Context, key string) (*domain.Product, error) {
	data, err := f.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal cached product: %w", err)
	}
	return &product, nil
}

func (f *CachedFetcher) set(ctx context.Context, key string, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if err := f.client.Set(ctx, key, data, f.ttl).Err(); err != nil {
		return fmt.Errorf("redis set catalog product: %w", err)
	}
	return nil
}
